// Package typeis matches a request's Content-Type against media type
// patterns: exact types ("application/json"), wildcard subtypes
// ("application/*", "*/*"), structured-suffix patterns ("+json"), and
// extension shorthands ("json", "html", "urlencoded", ...).
package typeis

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

// ErrNoBody is returned by Request when the message carries no body signal
// (neither Transfer-Encoding nor Content-Length is present).
var ErrNoBody = errors.New("typeis: request has no body")

// ErrNoMatch is returned by Request when the message has a body but its
// Content-Type does not match any of the given patterns.
var ErrNoMatch = errors.New("typeis: no matching type")

// extTypes maps common extension shorthands to full media types. Resolution
// falls back to the stdlib mime database for anything not listed here.
var extTypes = map[string]string{
	"json":       "application/json",
	"html":       "text/html",
	"htm":        "text/html",
	"text":       "text/plain",
	"txt":        "text/plain",
	"xml":        "application/xml",
	"js":         "text/javascript",
	"css":        "text/css",
	"csv":        "text/csv",
	"bin":        "application/octet-stream",
	"png":        "image/png",
	"jpg":        "image/jpeg",
	"jpeg":       "image/jpeg",
	"gif":        "image/gif",
	"svg":        "image/svg+xml",
	"pdf":        "application/pdf",
	"zip":        "application/zip",
	"form":       "application/x-www-form-urlencoded",
	"urlencoded": "application/x-www-form-urlencoded",
	"multipart":  "multipart/*",
}

// HasBody reports whether the request signals a message body: any
// Transfer-Encoding, any Content-Length header (even "0"), or a positive
// ContentLength. The header map alone is not enough on the server side:
// net/http moves the Transfer-Encoding header for inbound chunked requests
// into r.TransferEncoding, and synthetic requests often carry the length
// only in r.ContentLength.
func HasBody(r *http.Request) bool {
	if r.Header.Get("Transfer-Encoding") != "" || len(r.TransferEncoding) > 0 {
		return true
	}
	if _, ok := r.Header["Content-Length"]; ok {
		return true
	}
	return r.ContentLength > 0
}

// Normalize resolves a pattern to a full media type pattern. Patterns that
// already contain "/" pass through unchanged, "+suffix" becomes "*/*+suffix",
// and bare extensions are looked up ("json" -> "application/json"). Returns
// "" for an unknown extension, which matches nothing.
func Normalize(pattern string) string {
	if pattern == "" {
		return ""
	}
	if strings.Contains(pattern, "/") {
		return pattern
	}
	if pattern[0] == '+' {
		return "*/*" + pattern
	}
	if t, ok := extTypes[strings.ToLower(pattern)]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + pattern); t != "" {
		// strip any parameters the mime db tacks on (e.g. "; charset=utf-8")
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return ""
}

// Match reports whether the actual media type (no parameters) satisfies the
// normalized pattern.
func Match(pattern, actual string) bool {
	if pattern == "" || actual == "" {
		return false
	}
	pattern = strings.ToLower(pattern)
	actual = strings.ToLower(actual)

	pt, ps, ok := strings.Cut(pattern, "/")
	if !ok {
		return false
	}
	at, as, ok := strings.Cut(actual, "/")
	if !ok {
		return false
	}

	if pt != "*" && pt != at {
		return false
	}
	switch {
	case ps == "*":
		return true
	case strings.HasPrefix(ps, "*+"):
		// "*/*+json" style: subtype must end with the suffix
		return strings.HasSuffix(as, ps[1:])
	default:
		return ps == as
	}
}

// ContentType strips any parameters from a Content-Type value, returning the
// bare lowercased media type or "".
func ContentType(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// Request matches the request's Content-Type against the given patterns.
// It returns ErrNoBody when the message has no body at all, ErrNoMatch
// when a body is present but the type matches none of the patterns, and
// otherwise the first matching pattern as given by the caller. With no
// patterns it returns the bare content type itself.
func Request(r *http.Request, patterns ...string) (string, error) {
	if !HasBody(r) {
		return "", ErrNoBody
	}
	actual := ContentType(r.Header.Get("Content-Type"))
	if actual == "" {
		return "", ErrNoMatch
	}
	if len(patterns) == 0 {
		return actual, nil
	}
	for _, p := range patterns {
		if Match(Normalize(p), actual) {
			return p, nil
		}
	}
	return "", ErrNoMatch
}
