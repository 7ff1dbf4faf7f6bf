package module

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"almgetl/internal/modkit"
	"almgetl/internal/modkit/repokit"
	"almgetl/internal/platform/config"
	phttp "almgetl/internal/platform/net/http"
	"almgetl/internal/platform/store"
	"almgetl/internal/services/harvest/domain"
)

// nopTx satisfies repokit.TxRunner without a database
type nopTx struct{ txs int }

func (n *nopTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (n *nopTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (n *nopTx) QueryRow(context.Context, string, ...any) store.Row            { return nil }
func (n *nopTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error {
	n.txs++
	return fn(n)
}

// emptyFetcher reports every page as empty
type emptyFetcher struct{ calls int }

func (f *emptyFetcher) Fetch(context.Context, int) ([]domain.RawProposition, error) {
	f.calls++
	return nil, nil
}

func newTestModule(t *testing.T, reg prometheus.Registerer) (*Module, *emptyFetcher) {
	t.Helper()
	f := &emptyFetcher{}
	opts := FromConfig(config.New().Prefix("MODTEST_"))
	opts.Workers = 3
	return build(modkit.Deps{PG: &nopTx{}, Metrics: reg}, opts, f), f
}

func TestModule_NameAndPorts(t *testing.T) {
	m, _ := newTestModule(t, nil)
	if m.Name() != "harvest" {
		t.Fatalf("name = %q", m.Name())
	}
	p, ok := m.Ports().(Ports)
	if !ok || p.Runner == nil || p.Status == nil {
		t.Fatalf("ports = %#v", m.Ports())
	}
}

func TestModule_BuilderSignature(t *testing.T) {
	var b modkit.Builder = func(d modkit.Deps) modkit.Module { return New(d) }
	m := b(modkit.Deps{PG: &nopTx{}, Cfg: config.New().Prefix("MODTEST_")})
	if m.Name() != "harvest" {
		t.Fatalf("name = %q", m.Name())
	}
}

func TestModule_RunThroughPorts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, f := newTestModule(t, reg)
	p := m.Ports().(Ports)

	if _, ok := p.Status.LastRun(); ok {
		t.Fatal("no run yet")
	}
	sum, err := p.Runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Pages != 3 || sum.EmptyPages != 3 || f.calls != 3 {
		t.Fatalf("summary = %+v calls=%d", sum, f.calls)
	}
	if _, ok := p.Status.LastRun(); !ok {
		t.Fatal("expected last run after Run")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected harvest collectors on the registry")
	}
}

func TestModule_DuplicateRegistrationDisablesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	newTestModule(t, reg)
	m, _ := newTestModule(t, reg)
	if _, err := m.Ports().(Ports).Runner.Run(context.Background()); err != nil {
		t.Fatalf("Run without metrics: %v", err)
	}
}

func TestModule_StatusRoute(t *testing.T) {
	m, _ := newTestModule(t, nil)
	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)

	get := func() StatusView {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var env struct {
			Data StatusView `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return env.Data
	}

	before := get()
	if before.Running || before.LastRun != nil || before.Year != 2023 {
		t.Fatalf("before = %+v", before)
	}

	if _, err := m.Ports().(Ports).Runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	after := get()
	if after.LastRun == nil || after.LastRun.Pages != 3 {
		t.Fatalf("after = %+v", after)
	}
}
