package reqctx

import (
	"net/http"

	"github.com/keithlinneman/webctx/fresh"
)

// Fresh reports whether the client's cached copy is still current: only for
// GET/HEAD, only when the bound response status is 2xx or 304, and then per
// the conditional-request rules in package fresh. Without a bound response
// it is always false.
func (c *Context) Fresh() bool {
	if c.method != http.MethodGet && c.method != http.MethodHead {
		return false
	}
	if c.res == nil {
		return false
	}
	status := c.res.Status()
	if (status >= 200 && status < 300) || status == 304 {
		return fresh.Check(c.req.Header, c.res.Header())
	}
	return false
}

// Stale is the negation of Fresh.
func (c *Context) Stale() bool { return !c.Fresh() }
