package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"almgetl/internal/platform/config"
	phttp "almgetl/internal/platform/net/http"
)

// statusModule mounts one ops route and exports its page size as its port
type statusModule struct{ pageSize int }

func (m *statusModule) Name() string { return "status" }
func (m *statusModule) Ports() any   { return m.pageSize }
func (m *statusModule) MountRoutes(r phttp.Router) {
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

var buildStatus Builder = func(d Deps) Module {
	return &statusModule{pageSize: d.Cfg.Prefix("ETL_").MayInt("PAGE_SIZE", 50)}
}

func TestBuilder_ReadsOwnConfigAndMounts(t *testing.T) {
	t.Setenv("ETL_PAGE_SIZE", "25")

	m := buildStatus(Deps{Cfg: config.New()})
	if m.Name() != "status" || m.Ports() != 25 {
		t.Fatalf("module = %s / %v", m.Name(), m.Ports())
	}

	srv := phttp.NewServer(config.New())
	m.MountRoutes(srv.Router())
	rec := httptest.NewRecorder()
	srv.Router().Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("GET /status = %d", rec.Code)
	}
}
