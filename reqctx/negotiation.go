package reqctx

import (
	"mime"
	"strconv"
	"strings"

	"github.com/keithlinneman/webctx/negotiate"
	"github.com/keithlinneman/webctx/typeis"
)

// Sentinel results of Is, re-exported so callers don't need to import typeis.
var (
	ErrNoBody  = typeis.ErrNoBody
	ErrNoMatch = typeis.ErrNoMatch
)

// Accept returns the negotiator bound to the request headers. Built on
// first access and kept for the Context's lifetime.
func (c *Context) Accept() negotiate.Negotiator {
	if c.accept == nil {
		c.accept = negotiate.New(c.req.Header)
	}
	return c.accept
}

// SetAccept substitutes an alternate negotiator.
func (c *Context) SetAccept(n negotiate.Negotiator) { c.accept = n }

// Accepts returns the best of the given media types per the Accept header,
// or "" when none is acceptable (the caller should respond 406). Extension
// shorthands are expanded before matching but the winner is returned as the
// caller spelled it. With no Accept header the first candidate wins.
func (c *Context) Accepts(offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	normalized := make([]string, len(offers))
	for i, offer := range offers {
		normalized[i] = offer
		if !strings.Contains(offer, "/") {
			normalized[i] = typeis.Normalize(offer)
		}
	}
	best := c.Accept().Types(normalized...)
	if len(best) == 0 {
		return ""
	}
	for i, n := range normalized {
		if n == best[0] {
			return offers[i]
		}
	}
	return ""
}

// AcceptedTypes returns every media range the request accepts, best first.
func (c *Context) AcceptedTypes() []string { return c.Accept().Types() }

// AcceptsEncodings returns the best of the given encodings, or "".
func (c *Context) AcceptsEncodings(offers ...string) string {
	return first(c.Accept().Encodings(offers...))
}

// AcceptedEncodings returns every encoding the request accepts, best first.
func (c *Context) AcceptedEncodings() []string { return c.Accept().Encodings() }

// AcceptsCharsets returns the best of the given charsets, or "".
func (c *Context) AcceptsCharsets(offers ...string) string {
	return first(c.Accept().Charsets(offers...))
}

// AcceptedCharsets returns every charset the request accepts, best first.
func (c *Context) AcceptedCharsets() []string { return c.Accept().Charsets() }

// AcceptsLanguages returns the best of the given languages, or "".
func (c *Context) AcceptsLanguages(offers ...string) string {
	return first(c.Accept().Languages(offers...))
}

// AcceptedLanguages returns every language the request accepts, best first.
func (c *Context) AcceptedLanguages() []string { return c.Accept().Languages() }

// Is matches the request Content-Type against the given patterns. It
// returns ErrNoBody when the request carries no body signal at all,
// ErrNoMatch when a body is present but nothing matches, and otherwise the
// first matching pattern as the caller spelled it.
func (c *Context) Is(patterns ...string) (string, error) {
	return typeis.Request(c.req, patterns...)
}

// ContentType returns the Content-Type value with parameters stripped,
// or "".
func (c *Context) ContentType() string {
	value := c.Get("Content-Type")
	if value == "" {
		return ""
	}
	t, _, _ := strings.Cut(value, ";")
	return strings.TrimSpace(t)
}

// Charset returns the charset parameter of Content-Type, or "" when absent
// or unparseable.
func (c *Context) Charset() string {
	value := c.Get("Content-Type")
	if value == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// Length returns Content-Length as an integer. ok is false when the header
// is absent or empty, which is distinct from an explicit 0; an unparseable
// value counts as present with length 0.
func (c *Context) Length() (n int64, ok bool) {
	value := c.Get("Content-Length")
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, true
	}
	return n, true
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
