package httpmw

import (
	"context"
	"net/http"

	"github.com/keithlinneman/webctx/reqctx"
)

type reqctxKey struct{}

// WithRequestContext returns middleware that builds a reqctx.Context for
// each request before routing touches it, so the original request-target
// snapshot is intact, and stores it on the request context.
func WithRequestContext(cfg reqctx.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := reqctx.New(r, cfg)
			ctx := context.WithValue(r.Context(), reqctxKey{}, rc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestContext returns the reqctx.Context stored by WithRequestContext,
// or nil when the middleware didn't run.
func RequestContext(ctx context.Context) *reqctx.Context {
	rc, _ := ctx.Value(reqctxKey{}).(*reqctx.Context)
	return rc
}

// MustRequestContext is RequestContext but builds a fresh untrusted-proxy
// context when none is stored, so handlers always have one to work with.
func MustRequestContext(r *http.Request) *reqctx.Context {
	if rc := RequestContext(r.Context()); rc != nil {
		return rc
	}
	return reqctx.New(r, reqctx.Config{})
}
