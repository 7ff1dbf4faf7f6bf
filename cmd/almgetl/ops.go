package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"almgetl/internal/core/version"
	"almgetl/internal/modkit"
	"almgetl/internal/platform/config"
	perr "almgetl/internal/platform/errors"
	phttp "almgetl/internal/platform/net/http"
	"almgetl/internal/platform/net/middleware"
)

// pinger is the readiness seam; *store.Store satisfies it through Guard
type pinger interface {
	Guard(ctx context.Context) error
}

// newOpsServer builds the ops surface on ETL_OPS_ADDR:
// liveness, readiness, build info, harvest status, metrics and pprof
func newOpsServer(etl config.Conf, st pinger, reg *prometheus.Registry, mods ...modkit.Module) *phttp.Server {
	srv := phttp.NewServer(etl, func(m *chi.Mux) {
		m.Use(middleware.Defaults(middleware.AccessLogOptions{
			Slow:  time.Second,
			Quiet: []string{"/healthz", "/readyz", "/metrics"},
		})...)
	})
	mountOps(srv.Router(), st, reg, etl.MayBool("PROFILER", false), mods...)
	return srv
}

func mountOps(r phttp.Router, st pinger, reg *prometheus.Registry, profiler bool, mods ...modkit.Module) {
	phttp.GetJSON(r, "/healthz", func(*http.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})
	phttp.GetJSON(r, "/readyz", func(req *http.Request) (any, error) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := st.Guard(ctx); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "store not ready")
		}
		return map[string]string{"status": "ready"}, nil
	})
	phttp.GetJSON(r, "/version", func(*http.Request) (any, error) {
		return version.Info(), nil
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	phttp.MountProfiler(r, "/debug", profiler)
	for _, m := range mods {
		m.MountRoutes(r)
	}
}
