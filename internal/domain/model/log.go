package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit action types recorded for bundle operations.
const (
	AuditActionQuote         = "quote"
	AuditActionSessionOpen   = "session_open"
	AuditActionSessionAction = "session_action"
	AuditActionCartSubmit    = "cart_submit"
)

// LogEntry is a request or audit record persisted to the logs collection.
// Context-specific data goes into Fields.
type LogEntry struct {
	ID         primitive.ObjectID     `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	RequestID  string                 `json:"request_id,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Duration   int64                  `json:"duration_ms,omitempty"`
	IP         string                 `json:"ip,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Error      string                 `json:"error,omitempty"`
	BundleID   string                 `json:"bundle_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	// Subject is the authenticated storefront caller, when auth is enabled.
	Subject    string                 `json:"subject,omitempty"`
	ActionType string                 `json:"action_type,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// WithField adds a field to the entry, initializing Fields when needed.
func (e *LogEntry) WithField(key string, value interface{}) *LogEntry {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithFields merges fields into the entry.
func (e *LogEntry) WithFields(fields map[string]interface{}) *LogEntry {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// LogQueryOptions filters stored log entries.
type LogQueryOptions struct {
	RequestID  string
	Level      string
	Method     string
	Path       string
	BundleID   string
	ActionType string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Skip       int
}
