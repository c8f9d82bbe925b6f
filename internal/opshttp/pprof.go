package opshttp

import (
	"net/http"
	"net/http/pprof"
)

// RegisterPprof attaches the runtime profiling endpoints to mux. Only ever
// wired on the admin port, which is not exposed outside the pod network.
func RegisterPprof(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
