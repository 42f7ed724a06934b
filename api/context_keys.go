package api

import (
	"context"
	"encoding/json"
)

// contextKey is a private type to prevent context key collisions across packages
type contextKey string

// Context keys for values attached by pipeline steps
const (
	// ContextKeyRequestID stores the request identifier (string)
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyJSONBody stores the validated JSON request body (json.RawMessage)
	ContextKeyJSONBody contextKey = "json_body"
)

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyRequestID).(string)
	return id, ok && id != ""
}

// WithRequestID returns a context carrying the request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// withJSONBody returns a context carrying the parsed JSON body
func withJSONBody(ctx context.Context, body json.RawMessage) context.Context {
	return context.WithValue(ctx, ContextKeyJSONBody, body)
}
