package http

import (
	stdhttp "net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler serves pprof and expvar under prefix when on (ETL_PROFILER)
func MountProfiler(r Router, prefix string, on bool) {
	if !on {
		return
	}
	prof := stdhttp.StripPrefix(prefix, chimw.Profiler())
	r.Handle(prefix, prof)
	r.Handle(prefix+"/*", prof)
}
