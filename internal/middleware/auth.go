package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/i18n"
)

// APIKeyHeader carries the caller's API key. Keys are not read from the
// query string so they stay out of access logs.
const APIKeyHeader = "X-API-Key"

// apiKeySubjectPrefix prefixes the subject of an API-key caller. The rest is
// a short fingerprint of the key, enough to tell storefronts apart in logs
// and rate-limit buckets without revealing the key.
const apiKeySubjectPrefix = "api-key:"

type apiKey struct {
	digest  [sha256.Size]byte
	subject string
}

func compileAPIKeys(keys map[string]bool) []apiKey {
	compiled := make([]apiKey, 0, len(keys))
	for k, enabled := range keys {
		if !enabled || k == "" {
			continue
		}
		digest := sha256.Sum256([]byte(k))
		compiled = append(compiled, apiKey{
			digest:  digest,
			subject: apiKeySubjectPrefix + hex.EncodeToString(digest[:4]),
		})
	}
	return compiled
}

// matchAPIKey compares against every configured key so the time taken does
// not depend on which key matched.
func matchAPIKey(keys []apiKey, presented string) (string, bool) {
	digest := sha256.Sum256([]byte(presented))
	subject := ""
	for _, k := range keys {
		if subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1 {
			subject = k.subject
		}
	}
	return subject, subject != ""
}

// APIKeyAuth admits callers presenting one of keys in the X-API-Key header.
// Entries mapped to false are ignored; with no usable key the middleware is a
// pass-through.
func APIKeyAuth(keys map[string]bool) gin.HandlerFunc {
	compiled := compileAPIKeys(keys)

	return func(c *gin.Context) {
		if len(compiled) == 0 {
			c.Next()
			return
		}

		presented := c.GetHeader(APIKeyHeader)
		if presented == "" {
			abortUnauthorized(c, i18n.ErrKeyAPIKeyRequired)
			return
		}

		subject, ok := matchAPIKey(compiled, presented)
		if !ok {
			abortUnauthorized(c, i18n.ErrKeyInvalidAPIKey)
			return
		}

		c.Set(ContextKeySubject, subject)
		c.Next()
	}
}
