package core

import "context"

type contextKey string

const (
	ctxKeyBatchID   contextKey = "batch_id"
	ctxKeyIPAddress contextKey = "client_ip"
)

// ContextWithBatchID tags ctx with the batch a submission belongs to.
func ContextWithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyBatchID, id)
}

// BatchIDFromContext returns the batch ID set by ContextWithBatchID.
func BatchIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyBatchID).(string); ok {
		return v
	}
	return ""
}

// ContextWithIPAddress adds the client IP to context for batch history.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// GetIPAddressFromContext extracts the client IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
