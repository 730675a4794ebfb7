// Package requestid tags outbound calls with a correlation id.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request id.
const Header = "X-Request-ID"

type ctxKey struct{}

// WithRequestID returns a context carrying id. Calls made with it reuse the id
// instead of generating one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id in ctx, or a fresh one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Apply sets the request id header on req from its context and returns the id.
// An id already present on the request is kept.
func Apply(req *http.Request) string {
	if id := req.Header.Get(Header); id != "" {
		return id
	}
	id := FromContext(req.Context())
	req.Header.Set(Header, id)
	return id
}
