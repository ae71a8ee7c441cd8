package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/gazette-import/internal/core"
)

// WithRequestMetadata adds the client IP to context for batch history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithIPAddress(ctx, clientIP(r)) // RemoteAddr already set by TrustedRealIP
}
