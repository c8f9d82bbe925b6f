package reqctx

import (
	"net/url"
	"strings"
)

// parsed parses the current url string. Never memoized: path, querystring,
// and search must always reflect the current url. Parse failures degrade to
// an empty URL value.
func (c *Context) parsed() *url.URL {
	u, err := url.Parse(c.url)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// Path returns the pathname portion of the current url.
func (c *Context) Path() string { return c.parsed().Path }

// SetPath replaces the pathname, preserving the query string. Setting the
// path to its current value leaves the url untouched.
func (c *Context) SetPath(p string) {
	u := c.parsed()
	if u.Path == p {
		return
	}
	u.Path = p
	u.RawPath = ""
	c.url = u.String()
}

// Querystring returns the query portion of the current url without the
// leading "?", or "" if there is none.
func (c *Context) Querystring() string { return c.parsed().RawQuery }

// SetQuerystring rewrites the url's query portion. A value identical to the
// current one leaves the url untouched.
func (c *Context) SetQuerystring(qs string) {
	u := c.parsed()
	if u.RawQuery == qs {
		return
	}
	u.RawQuery = qs
	c.url = u.String()
}

// Search is Querystring with a leading "?"; an empty query string maps to
// "" rather than "?".
func (c *Context) Search() string {
	qs := c.Querystring()
	if qs == "" {
		return ""
	}
	return "?" + qs
}

// SetSearch rewrites the query portion, accepting an optional leading "?".
func (c *Context) SetSearch(s string) {
	c.SetQuerystring(strings.TrimPrefix(s, "?"))
}

// Query parses the current query string using form-encoding rules. The
// parse for a given raw string is computed once per Context and reused;
// a different raw string gets its own independent entry. Malformed pairs
// are dropped rather than reported.
func (c *Context) Query() url.Values {
	raw := c.Querystring()
	if v, ok := c.queryCache[raw]; ok {
		return v
	}
	v, _ := url.ParseQuery(raw)
	c.queryCache[raw] = v
	return v
}

// SetQuery serializes the given values into the query string.
func (c *Context) SetQuery(v url.Values) { c.SetQuerystring(v.Encode()) }

// Origin returns protocol + "://" + host.
func (c *Context) Origin() string {
	return c.Protocol() + "://" + c.Host()
}

// Href returns the full request URL. An absolute-form request-target is
// returned as received; otherwise the origin is prepended.
func (c *Context) Href() string {
	if isAbsolute(c.originalURL) {
		return c.originalURL
	}
	return c.Origin() + c.originalURL
}

// URL returns the request URL parsed with the standard parser, built from
// origin + original request-target on first access and memoized for the
// Context's lifetime. Later header or url mutation never recomputes it. On
// parse failure it memoizes an inert empty URL rather than failing.
func (c *Context) URL() *url.URL {
	if !c.memoURLSet {
		c.memoURLSet = true
		u, err := url.Parse(c.Origin() + c.originalURL)
		if err != nil {
			u = &url.URL{}
		}
		c.memoURL = u
	}
	return c.memoURL
}

func isAbsolute(target string) bool {
	lowered := strings.ToLower(target)
	return strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://")
}
