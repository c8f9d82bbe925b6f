// Package reqctx wraps an inbound HTTP request in a per-request context that
// exposes derived views of it: URL components, proxy-aware host / protocol /
// client IP resolution, content negotiation, and cache-freshness checks.
//
// A Context is created once per request and owned exclusively by that
// request's handling; nothing here is safe for concurrent use and nothing
// needs to be. Several derived fields are computed at most once per Context
// (URL, Accept, IP, parsed query strings) and are deliberately never
// invalidated by later mutation of the url or headers; path, querystring,
// and search re-derive from the current url on every call.
package reqctx

import (
	"net/http"
	"net/url"

	"github.com/keithlinneman/webctx/negotiate"
)

// DefaultSubdomainOffset is the number of trailing domain labels that do not
// count as subdomains ("example.com" -> 2).
const DefaultSubdomainOffset = 2

// Config carries the application-level settings a Context derives from.
type Config struct {
	// Proxy enables trusting X-Forwarded-* headers. Leave false unless the
	// server sits behind a reverse proxy you control.
	Proxy bool

	// SubdomainOffset is the number of trailing domain labels ignored by
	// Subdomains. Zero means DefaultSubdomainOffset.
	SubdomainOffset int
}

// ResponseView is the read-only slice of the paired response that the
// freshness check consults.
type ResponseView interface {
	Status() int
	Header() http.Header
}

// Response is a trivial ResponseView for callers that stage response
// validators before deciding whether to send a body.
type Response struct {
	StatusCode int
	HeaderMap  http.Header
}

func (r *Response) Status() int { return r.StatusCode }

func (r *Response) Header() http.Header {
	if r.HeaderMap == nil {
		r.HeaderMap = make(http.Header)
	}
	return r.HeaderMap
}

// Context is the per-request view. Create one with New; the zero value is
// not usable.
type Context struct {
	req *http.Request
	res ResponseView
	cfg Config

	method string
	url    string

	// originalURL is the request-target exactly as received, snapshotted
	// before any routing rewrites url. Href and URL derive from it.
	originalURL string

	// write-once caches, never invalidated (see package comment)
	memoURL    *url.URL
	memoURLSet bool
	accept     negotiate.Negotiator
	ip         string
	ipSet      bool
	queryCache map[string]url.Values
}

// New builds a Context over the given transport request. The request-target
// snapshot is taken here, so construct the Context before any routing
// rewrites the URL.
func New(r *http.Request, cfg Config) *Context {
	if cfg.SubdomainOffset <= 0 {
		cfg.SubdomainOffset = DefaultSubdomainOffset
	}
	target := r.RequestURI
	if target == "" && r.URL != nil {
		target = r.URL.RequestURI()
	}
	return &Context{
		req:         r,
		cfg:         cfg,
		method:      r.Method,
		url:         target,
		originalURL: target,
		queryCache:  make(map[string]url.Values),
	}
}

// BindResponse attaches the paired response so Fresh can compare validators.
func (c *Context) BindResponse(res ResponseView) { c.res = res }

// Request returns the underlying transport request.
func (c *Context) Request() *http.Request { return c.req }

// Method returns the request method, which routing may have rewritten.
func (c *Context) Method() string { return c.method }

// SetMethod rewrites the request method (e.g. for method override
// middleware).
func (c *Context) SetMethod(m string) { c.method = m }

// URLString returns the current request-target string.
func (c *Context) URLString() string { return c.url }

// SetURLString rewrites the request-target. Intended for URL rewriting;
// the original snapshot used by Href and URL is unaffected.
func (c *Context) SetURLString(u string) { c.url = u }

// OriginalURL returns the request-target as received, before any rewrite.
func (c *Context) OriginalURL() string { return c.originalURL }

// Idempotent reports whether the request method is idempotent.
func (c *Context) Idempotent() bool {
	switch c.method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete,
		http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
