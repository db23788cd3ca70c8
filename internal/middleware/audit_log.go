package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/service"
)

const (
	// ContextKeyBundleID holds the bundle a request operates on.
	ContextKeyBundleID = "bundle_id"
	// ContextKeySessionID holds the selection session a request operates on.
	ContextKeySessionID = "session_id"

	storeTimeout = 5 * time.Second
)

// SetAuditContext records the bundle and session a request operates on, so
// request and audit log entries can be filtered by them.
func SetAuditContext(c *gin.Context, bundleID, sessionID string) {
	if bundleID != "" {
		c.Set(ContextKeyBundleID, bundleID)
	}
	if sessionID != "" {
		c.Set(ContextKeySessionID, sessionID)
	}
}

// AuditLog records a bundle action: quotes, session changes and cart submissions.
func AuditLog(loggingService service.LoggingService, c *gin.Context, actionType string, message string, fields map[string]interface{}) {
	if loggingService == nil {
		return
	}
	entry := newEntry(c, "info", message)
	entry.ActionType = actionType
	entry.Fields = fields
	store(c, loggingService, entry)
}

// AuditLogError records a failed bundle action.
func AuditLogError(loggingService service.LoggingService, c *gin.Context, actionType string, message string, err error, fields map[string]interface{}) {
	if loggingService == nil {
		return
	}
	entry := newEntry(c, "error", message)
	entry.ActionType = actionType
	entry.Fields = fields
	if err != nil {
		entry.Error = err.Error()
	}
	store(c, loggingService, entry)
}

func newEntry(c *gin.Context, level, message string) *model.LogEntry {
	return &model.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		RequestID: GetRequestID(c),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		BundleID:  c.GetString(ContextKeyBundleID),
		SessionID: c.GetString(ContextKeySessionID),
		Subject:   GetSubject(c),
	}
}

// store hands the entry to loggingService. The write outlives the request
// context: a client that disconnects still leaves an audit trail.
func store(c *gin.Context, loggingService service.LoggingService, entry *model.LogEntry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), storeTimeout)
	defer cancel()

	if err := loggingService.CreateLog(ctx, entry); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("entry", entry.Message).Msg("Log entry not stored")
	}
}
