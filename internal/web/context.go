package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/tidycsv/internal/core"
)

// WithRequestMetadata copies the client IP and User-Agent into the context
// so cleaning runs log who submitted them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already resolved by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}
