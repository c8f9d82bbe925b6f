package httpmw

import (
	"net/http"
	"time"

	"github.com/keithlinneman/webctx/internal/log"
)

type accessWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *accessWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *accessWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// AccessLog emits one info line per request. The client-facing fields (ip,
// host, protocol) come from the request context so they respect the proxy
// trust configuration instead of reporting the nearest hop.
func AccessLog(L log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			aw := &accessWriter{ResponseWriter: w}

			next.ServeHTTP(aw, r)

			status := aw.status
			if status == 0 {
				status = http.StatusOK
			}

			rc := MustRequestContext(r)
			L.Info(r.Context(), "request",
				"method", rc.Method(),
				"path", rc.Path(),
				"status", status,
				"bytes", aw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", rc.IP(),
				"host", rc.Host(),
				"protocol", rc.Protocol(),
				"request_id", RequestIDFromContext(r.Context()),
			)
		})
	}
}
