// Package audit records security-relevant marketplace actions as structured
// log events correlated with the request that caused them.
package audit

import (
	"context"
	"time"

	"rentledger.org/internal/auth"
	"rentledger.org/internal/ids"
	"rentledger.org/internal/obs"
)

// LogEvent writes an audit line for the given event. The request id and the
// authenticated account are taken from the context when present.
func LogEvent(ctx context.Context, event string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "info",
		"msg":   "audit",
		"event": event,
	}
	if requestID, ok := ids.RequestIDFromContext(ctx); ok {
		entry["request_id"] = requestID
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		entry["user_id"] = userID
	}
	for k, v := range fields {
		entry[k] = v
	}
	obs.LogRequest(entry)
}
