package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	phttp "almgetl/internal/platform/net/http"
)

type fakeGuard struct{ err error }

func (f fakeGuard) Guard(context.Context) error { return f.err }

type routeMod struct{}

func (routeMod) MountRoutes(r phttp.Router) {
	phttp.GetJSON(r, "/status", func(*http.Request) (any, error) { return map[string]bool{"running": false}, nil })
}
func (routeMod) Ports() any   { return nil }
func (routeMod) Name() string { return "stub" }

func opsMux(t *testing.T, g fakeGuard) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "ops_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	r := phttp.AdaptChi(chi.NewRouter())
	mountOps(r, g, reg, false, routeMod{})
	return r.Mux()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOps_HealthAndReady(t *testing.T) {
	h := opsMux(t, fakeGuard{})
	if rec := get(h, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("/healthz = %d", rec.Code)
	}
	if rec := get(h, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("/readyz = %d", rec.Code)
	}

	down := opsMux(t, fakeGuard{err: errors.New("pg: connection refused")})
	rec := get(down, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz down = %d", rec.Code)
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Error != "store not ready" || env.Code != "unavailable" {
		t.Fatalf("env = %+v", env)
	}
}

func TestOps_MetricsVersionAndModules(t *testing.T) {
	h := opsMux(t, fakeGuard{})
	if rec := get(h, "/metrics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ops_test_total 1") {
		t.Fatalf("/metrics = %d %s", rec.Code, rec.Body.String())
	}
	if rec := get(h, "/version"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"service":"almgetl"`) {
		t.Fatalf("/version = %d %s", rec.Code, rec.Body.String())
	}
	if rec := get(h, "/status"); rec.Code != http.StatusOK {
		t.Fatalf("/status = %d", rec.Code)
	}
	if rec := get(h, "/debug/pprof/"); rec.Code != http.StatusNotFound {
		t.Fatalf("profiler should be off, got %d", rec.Code)
	}
}
