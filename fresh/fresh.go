// Package fresh evaluates conditional request headers against response
// validators to decide whether a client's cached copy is still fresh, i.e.
// whether a 304 can be served instead of the full representation.
package fresh

import (
	"net/http"
	"strings"
)

// Check compares the request's If-None-Match / If-Modified-Since headers
// against the response's ETag / Last-Modified. If-None-Match supports "*"
// and weak comparison (W/ prefixes ignored) and takes precedence:
// If-Modified-Since is only consulted when If-None-Match is absent.
// A request Cache-Control containing no-cache always defeats freshness.
// Unparseable dates count as stale.
func Check(reqHeader, resHeader http.Header) bool {
	noneMatch := reqHeader.Get("If-None-Match")
	modifiedSince := reqHeader.Get("If-Modified-Since")
	if noneMatch == "" && modifiedSince == "" {
		return false
	}

	if hasNoCache(reqHeader.Get("Cache-Control")) {
		return false
	}

	if noneMatch != "" {
		if noneMatch == "*" {
			return true
		}
		etag := resHeader.Get("Etag")
		if etag == "" {
			return false
		}
		for _, candidate := range splitList(noneMatch) {
			if etagMatch(candidate, etag) {
				return true
			}
		}
		return false
	}

	lastModified := resHeader.Get("Last-Modified")
	if lastModified == "" {
		return false
	}
	lm, err := http.ParseTime(lastModified)
	if err != nil {
		return false
	}
	ims, err := http.ParseTime(modifiedSince)
	if err != nil {
		return false
	}
	return !lm.After(ims)
}

// etagMatch implements weak comparison: two entity tags match if they are
// byte-equal after removing any W/ prefix.
func etagMatch(a, b string) bool {
	return strings.TrimPrefix(a, "W/") == strings.TrimPrefix(b, "W/")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasNoCache(cacheControl string) bool {
	if cacheControl == "" {
		return false
	}
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if name, _, _ := strings.Cut(directive, "="); strings.EqualFold(name, "no-cache") {
			return true
		}
	}
	return false
}
