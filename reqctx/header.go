package reqctx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Header returns the transport request's header mapping. Mutations are
// visible to the transport and to later derivations, except for the
// memoized fields (see package comment).
func (c *Context) Header() http.Header { return c.req.Header }

// SetHeader replaces the transport request's header mapping.
func (c *Context) SetHeader(h http.Header) { c.req.Header = h }

// Get looks up a single header field case-insensitively, returning "" when
// absent. "referer" and "referrer" are interchangeable, with the Referrer
// spelling consulted first.
func (c *Context) Get(field string) string {
	switch strings.ToLower(field) {
	case "referer", "referrer":
		if v := c.req.Header.Get("Referrer"); v != "" {
			return v
		}
		return c.req.Header.Get("Referer")
	default:
		return c.req.Header.Get(field)
	}
}

// MarshalJSON renders the diagnostic view: method, url, and headers only.
// Internal cache state never appears.
func (c *Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method string      `json:"method"`
		URL    string      `json:"url"`
		Header http.Header `json:"header"`
	}{
		Method: c.method,
		URL:    c.url,
		Header: c.req.Header,
	})
}

// String implements fmt.Stringer for log and debug output.
func (c *Context) String() string {
	return fmt.Sprintf("<Request %s %s>", c.method, c.url)
}
