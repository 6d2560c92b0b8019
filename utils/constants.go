package utils

import (
	"context"
	"time"
)

// Request handling constants
const (
	// RequestTimeout bounds every request-scoped context created by handlers
	RequestTimeout = 30 * time.Second

	// ExportSheetName is the worksheet name used by spreadsheet exports
	ExportSheetName = "Demos"
)

type contextKey string

// Keys for request-scoped values stored in context by handlers
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
)

// RequestIDFrom returns the request id stored in ctx, or "-"
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		return v
	}
	return "-"
}
