// Package middleware provides HTTP middleware components for the bundle service.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/metrics"
)

const (
	// IdempotencyKeyHeader carries the client's key for a cart submission.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader is set on responses served from the replay store.
	ReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long a successful submission is replayed.
	IdempotencyKeyTTL = 5 * time.Minute

	maxIdempotencyKeyLength = 255
	replayStoreTimeout      = 200 * time.Millisecond
)

// Replay is a stored successful response.
type Replay struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// ReplayStore keeps replays by fingerprint. Stores are best effort: a
// failing store behaves like an empty one.
type ReplayStore interface {
	Load(ctx context.Context, fingerprint string) (*Replay, bool)
	Save(ctx context.Context, fingerprint string, replay *Replay)
}

// IdempotencyConfig holds configuration for idempotency middleware.
type IdempotencyConfig struct {
	Store   ReplayStore
	Enabled bool
}

// DefaultIdempotencyConfig keeps replays in process memory.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		Store:   NewMemoryReplayStore(IdempotencyKeyTTL),
		Enabled: true,
	}
}

// Idempotency replays the stored response when a POST repeats an
// Idempotency-Key with the same caller, path and body. Only 2xx responses are
// stored, so a rejected cart submission can be retried with the same key.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Store == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			message := i18n.GetTranslator().Translate(i18n.ErrKeyInvalidRequest, i18n.GetLocale(c))
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewError(dto.ErrCodeInvalidRequest, message).WithRequestID(GetRequestID(c)))
			return
		}

		fingerprint, err := requestFingerprint(key, GetSubject(c), c.Request)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), replayStoreTimeout)
		replay, ok := cfg.Store.Load(ctx, fingerprint)
		cancel()
		if ok {
			metrics.IdempotencyLookupsTotal.WithLabelValues("replayed").Inc()
			c.Header(ReplayedHeader, "true")
			c.Data(replay.Status, replay.ContentType, replay.Body)
			c.Abort()
			return
		}
		metrics.IdempotencyLookupsTotal.WithLabelValues("miss").Inc()

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		ctx, cancel = context.WithTimeout(context.WithoutCancel(c.Request.Context()), replayStoreTimeout)
		defer cancel()
		cfg.Store.Save(ctx, fingerprint, &Replay{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
			StoredAt:    time.Now().UTC(),
		})
		metrics.IdempotencyLookupsTotal.WithLabelValues("stored").Inc()
	}
}

// requestFingerprint hashes the key with the caller, method, path and body.
// The body is restored for the handler.
func requestFingerprint(key, subject string, req *http.Request) (string, error) {
	h := sha256.New()
	for _, part := range []string{key, subject, req.Method, req.URL.Path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return "", err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
