package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/webctx/internal/httpmw"
	"github.com/keithlinneman/webctx/internal/log"
	"github.com/keithlinneman/webctx/internal/metrics"
	"github.com/keithlinneman/webctx/internal/version"
	"github.com/keithlinneman/webctx/reqctx"
)

// buildTime anchors the /version validators; resolved once at startup so
// Last-Modified stays stable across requests.
var buildTime = time.Now().UTC().Truncate(time.Second)

type handlers struct {
	log     log.Logger
	metrics *metrics.ServerMetrics
}

func (h *handlers) routes(r chi.Router) {
	r.Get("/whoami", h.whoami)
	r.Get("/greeting", h.greeting)
	r.Get("/version", h.version)
	r.Post("/echo", h.echo)
}

// whoami reports everything the server derived about the caller: proxy-aware
// addressing, URL decomposition, and negotiation preferences.
func (h *handlers) whoami(w http.ResponseWriter, r *http.Request) {
	rc := httpmw.MustRequestContext(r)

	length, hasLength := rc.Length()
	var lengthField any
	if hasLength {
		lengthField = length
	}

	out := struct {
		Method      string     `json:"method"`
		Href        string     `json:"href"`
		Origin      string     `json:"origin"`
		Path        string     `json:"path"`
		Querystring string     `json:"querystring"`
		Query       url.Values `json:"query"`
		Host        string     `json:"host"`
		Hostname    string     `json:"hostname"`
		Protocol    string     `json:"protocol"`
		Secure      bool       `json:"secure"`
		IP          string     `json:"ip"`
		IPs         []string   `json:"ips"`
		Subdomains  []string   `json:"subdomains"`
		Idempotent  bool       `json:"idempotent"`
		Type        string     `json:"type"`
		Charset     string     `json:"charset"`
		Length      any        `json:"length"`
		AcceptTypes []string   `json:"accept_types"`
		Languages   []string   `json:"accept_languages"`
		UserAgent   string     `json:"user_agent"`
	}{
		Method:      rc.Method(),
		Href:        rc.Href(),
		Origin:      rc.Origin(),
		Path:        rc.Path(),
		Querystring: rc.Querystring(),
		Query:       rc.Query(),
		Host:        rc.Host(),
		Hostname:    rc.Hostname(),
		Protocol:    rc.Protocol(),
		Secure:      rc.Secure(),
		IP:          rc.IP(),
		IPs:         rc.IPs(),
		Subdomains:  rc.Subdomains(),
		Idempotent:  rc.Idempotent(),
		Type:        rc.ContentType(),
		Charset:     rc.Charset(),
		Length:      lengthField,
		AcceptTypes: rc.AcceptedTypes(),
		Languages:   rc.AcceptedLanguages(),
		UserAgent:   rc.Get("User-Agent"),
	}

	writeJSON(w, http.StatusOK, out)
}

// greeting picks a representation via Accept negotiation. An explicit
// Accept that matches none of our offers gets a 406.
func (h *handlers) greeting(w http.ResponseWriter, r *http.Request) {
	rc := httpmw.MustRequestContext(r)

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "world"
	}

	switch rc.Accepts("json", "html", "text") {
	case "json":
		writeJSON(w, http.StatusOK, map[string]string{"greeting": "hello", "name": name})
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<p>hello, %s</p>\n", html.EscapeString(name))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "hello, %s\n", name)
	default:
		h.metrics.NegotiationMiss("/greeting")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotAcceptable)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   "not acceptable",
			"offered": []string{"application/json", "text/html", "text/plain"},
		})
	}
}

// version serves build info with validators and answers conditional
// requests with 304.
func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	rc := httpmw.MustRequestContext(r)

	info := version.Get()
	etag := fmt.Sprintf(`"%s-%s"`, info.Version, info.Commit)

	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", buildTime.Format(http.TimeFormat))
	w.Header().Set("Cache-Control", "max-age=60")

	rc.BindResponse(&reqctx.Response{StatusCode: http.StatusOK, HeaderMap: w.Header()})
	if rc.Fresh() {
		h.metrics.ConditionalHit()
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// echo accepts json, form, or plain text bodies and reflects them back,
// reporting what the server understood about the payload.
func (h *handlers) echo(w http.ResponseWriter, r *http.Request) {
	rc := httpmw.MustRequestContext(r)

	matched, err := rc.Is("json", "urlencoded", "text/*")
	switch {
	case errors.Is(err, reqctx.ErrNoBody):
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "request body required"})
		return
	case errors.Is(err, reqctx.ErrNoMatch):
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		json.NewEncoder(w).Encode(map[string]any{
			"error":    "unsupported media type",
			"received": rc.ContentType(),
		})
		return
	case err != nil:
		h.log.Error(r.Context(), err, "echo type check")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.log.Error(r.Context(), err, "echo read body")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	length, _ := rc.Length()
	writeJSON(w, http.StatusOK, map[string]any{
		"matched": matched,
		"type":    rc.ContentType(),
		"charset": rc.Charset(),
		"length":  length,
		"body":    string(body),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
