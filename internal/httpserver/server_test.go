package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keithlinneman/webctx/internal/health"
	"github.com/keithlinneman/webctx/internal/metrics"
	"github.com/keithlinneman/webctx/reqctx"
)

func newTestHandler(t *testing.T, opts *Options) http.Handler {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return NewHandler(opts)
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}

// /whoami

func TestWhoami_Direct(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("GET", "/whoami?a=1&a=2", nil)
	r.RemoteAddr = "192.0.2.7:4444"
	r.Host = "api.example.com"
	w := do(h, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decodeJSON(t, w)

	if m["method"] != "GET" {
		t.Errorf("method = %v", m["method"])
	}
	if m["path"] != "/whoami" {
		t.Errorf("path = %v", m["path"])
	}
	if m["querystring"] != "a=1&a=2" {
		t.Errorf("querystring = %v", m["querystring"])
	}
	if m["host"] != "api.example.com" {
		t.Errorf("host = %v", m["host"])
	}
	if m["hostname"] != "api.example.com" {
		t.Errorf("hostname = %v", m["hostname"])
	}
	if m["protocol"] != "http" {
		t.Errorf("protocol = %v", m["protocol"])
	}
	if m["ip"] != "192.0.2.7" {
		t.Errorf("ip = %v", m["ip"])
	}
	if m["idempotent"] != true {
		t.Errorf("idempotent = %v", m["idempotent"])
	}
}

func TestWhoami_BehindTrustedProxy(t *testing.T) {
	h := newTestHandler(t, &Options{
		Request: reqctx.Config{Proxy: true},
	})

	r := httptest.NewRequest("GET", "/whoami", nil)
	r.RemoteAddr = "10.0.0.1:999"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "svc.tools.example.com")
	w := do(h, r)

	m := decodeJSON(t, w)
	if m["ip"] != "203.0.113.9" {
		t.Errorf("ip = %v, want first forwarded hop", m["ip"])
	}
	if m["protocol"] != "https" {
		t.Errorf("protocol = %v", m["protocol"])
	}
	if m["secure"] != true {
		t.Errorf("secure = %v", m["secure"])
	}
	if m["host"] != "svc.tools.example.com" {
		t.Errorf("host = %v", m["host"])
	}
	subs, _ := m["subdomains"].([]any)
	if len(subs) != 2 || subs[0] != "tools" || subs[1] != "svc" {
		t.Errorf("subdomains = %v, want [tools svc]", m["subdomains"])
	}
}

func TestWhoami_UntrustedProxyHeadersIgnored(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("GET", "/whoami", nil)
	r.RemoteAddr = "10.0.0.1:999"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.Header.Set("X-Forwarded-Proto", "https")
	w := do(h, r)

	m := decodeJSON(t, w)
	if m["ip"] != "10.0.0.1" {
		t.Errorf("ip = %v, want socket address", m["ip"])
	}
	if m["protocol"] != "http" {
		t.Errorf("protocol = %v, forwarded proto should be ignored", m["protocol"])
	}
}

// /greeting

func TestGreeting_Negotiation(t *testing.T) {
	h := newTestHandler(t, &Options{})

	tests := []struct {
		name        string
		accept      string
		wantType    string
		wantBodySub string
	}{
		{"json preferred", "application/json", "application/json", `"greeting"`},
		{"html preferred", "text/html,application/json;q=0.5", "text/html", "<p>hello"},
		{"plain text", "text/plain", "text/plain", "hello, world"},
		{"absent accept takes first offer", "", "application/json", `"greeting"`},
		{"wildcard takes first offer", "*/*", "application/json", `"greeting"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/greeting", nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			w := do(h, r)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.wantType) {
				t.Errorf("Content-Type = %q, want prefix %q", ct, tt.wantType)
			}
			if !strings.Contains(w.Body.String(), tt.wantBodySub) {
				t.Errorf("body = %q, want substring %q", w.Body.String(), tt.wantBodySub)
			}
		})
	}
}

func TestGreeting_NotAcceptable(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("GET", "/greeting", nil)
	r.Header.Set("Accept", "application/xml")
	w := do(h, r)

	if w.Code != http.StatusNotAcceptable {
		t.Fatalf("status = %d, want 406", w.Code)
	}
	m := decodeJSON(t, w)
	if m["error"] != "not acceptable" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestGreeting_EscapesName(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("GET", "/greeting?name=%3Cscript%3E", nil)
	r.Header.Set("Accept", "text/html")
	w := do(h, r)

	if strings.Contains(w.Body.String(), "<script>") {
		t.Fatalf("unescaped HTML in body: %q", w.Body.String())
	}
}

// /version

func TestVersion_ServesValidators(t *testing.T) {
	h := newTestHandler(t, &Options{})

	w := do(h, httptest.NewRequest("GET", "/version", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	if w.Header().Get("Last-Modified") == "" {
		t.Error("missing Last-Modified")
	}
}

func TestVersion_ConditionalRevalidation(t *testing.T) {
	h := newTestHandler(t, &Options{})

	first := do(h, httptest.NewRequest("GET", "/version", nil))
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on first response")
	}

	r := httptest.NewRequest("GET", "/version", nil)
	r.Header.Set("If-None-Match", etag)
	second := do(h, r)

	if second.Code != http.StatusNotModified {
		t.Fatalf("revalidation status = %d, want 304", second.Code)
	}
	if second.Body.Len() != 0 {
		t.Errorf("304 carried a body: %q", second.Body.String())
	}
}

func TestVersion_StaleEtagGetsFullResponse(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("GET", "/version", nil)
	r.Header.Set("If-None-Match", `"something-else"`)
	w := do(h, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

// /echo

func TestEcho_MatchesJSON(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("POST", "/echo", strings.NewReader(`{"k":"v"}`))
	r.Header.Set("Content-Type", "application/json")
	w := do(h, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decodeJSON(t, w)
	if m["matched"] != "json" {
		t.Errorf("matched = %v", m["matched"])
	}
	if m["body"] != `{"k":"v"}` {
		t.Errorf("body = %v", m["body"])
	}
}

func TestEcho_MatchesCharsetParam(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("POST", "/echo", strings.NewReader("hi"))
	r.Header.Set("Content-Type", "text/plain; charset=iso-8859-1")
	w := do(h, r)

	m := decodeJSON(t, w)
	if m["matched"] != "text/*" {
		t.Errorf("matched = %v", m["matched"])
	}
	if m["charset"] != "iso-8859-1" {
		t.Errorf("charset = %v", m["charset"])
	}
}

func TestEcho_ChunkedBody(t *testing.T) {
	h := newTestHandler(t, &Options{})

	// mimic an inbound chunked request: no Content-Length, encoding
	// recorded on the struct rather than the header map
	r := httptest.NewRequest("POST", "/echo", strings.NewReader(`{"k":"v"}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Del("Content-Length")
	r.ContentLength = -1
	r.TransferEncoding = []string{"chunked"}
	w := do(h, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	m := decodeJSON(t, w)
	if m["matched"] != "json" {
		t.Errorf("matched = %v", m["matched"])
	}
}

func TestEcho_UnsupportedMediaType(t *testing.T) {
	h := newTestHandler(t, &Options{})

	r := httptest.NewRequest("POST", "/echo", strings.NewReader("<x/>"))
	r.Header.Set("Content-Type", "application/xml")
	w := do(h, r)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func TestEcho_NoBody(t *testing.T) {
	h := newTestHandler(t, &Options{})

	// no Content-Length, no Transfer-Encoding
	r := httptest.NewRequest("POST", "/echo", nil)
	w := do(h, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// infrastructure

func TestHealthRoutes(t *testing.T) {
	h := newTestHandler(t, &Options{
		Health:    health.Fixed(true, ""),
		Readiness: health.Fixed(false, "draining"),
	})

	if w := do(h, httptest.NewRequest("GET", "/-/healthy", nil)); w.Code != http.StatusOK {
		t.Errorf("/-/healthy = %d", w.Code)
	}
	if w := do(h, httptest.NewRequest("GET", "/-/ready", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("/-/ready = %d", w.Code)
	}
}

func TestRequestIDHeaderOnResponse(t *testing.T) {
	h := newTestHandler(t, &Options{})

	w := do(h, httptest.NewRequest("GET", "/whoami", nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newTestHandler(t, &Options{})

	if w := do(h, httptest.NewRequest("GET", "/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
