package httpserver

import (
	"net/http"

	"github.com/keithlinneman/webctx/internal/health"
	"github.com/keithlinneman/webctx/internal/log"
	"github.com/keithlinneman/webctx/internal/metrics"
	"github.com/keithlinneman/webctx/reqctx"
)

type Options struct {
	Logger      log.Logger
	Port        int
	Request     reqctx.Config
	Metrics     *metrics.ServerMetrics
	RateLimitMW func(http.Handler) http.Handler
	Health      health.Probe
	Readiness   health.Probe
}
