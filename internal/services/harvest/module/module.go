// Package module implements the harvest service module
package module

import (
	"net/http"

	"almgetl/internal/core/normalize"
	"almgetl/internal/modkit"
	"almgetl/internal/platform/logger"
	phttp "almgetl/internal/platform/net/http"
	"almgetl/internal/services/harvest/domain"
	"almgetl/internal/services/harvest/guardrails"
	"almgetl/internal/services/harvest/ingest"
	"almgetl/internal/services/harvest/repo"
	"almgetl/internal/services/harvest/service"
)

// MetricsNamespace prefixes every collector the module registers
const MetricsNamespace = "almgetl"

// Ports exposed by the harvest module
type Ports struct {
	Runner domain.RunnerPort
	Status domain.StatusPort
}

// Module implements the harvest service module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the harvest module with settings read from deps.Cfg
func New(deps modkit.Deps) *Module {
	return NewWithOptions(deps, FromConfig(deps.Cfg))
}

// NewWithOptions constructs the harvest module with explicit settings
func NewWithOptions(deps modkit.Deps, opts Options) *Module {
	return build(deps, opts, ingest.NewFetcher(opts.ClientOptions()))
}

func build(deps modkit.Deps, opts Options, f domain.Fetcher) *Module {
	log := logger.Named("harvest")

	m, err := service.NewMetrics(deps.Registerer(), MetricsNamespace)
	if err != nil {
		log.Warn().Err(err).Msg("harvest metrics disabled")
		m = nil
	}

	xform := ingest.NewTransformer(ingest.NewNormalizer(normalize.New()))
	svc := service.New(deps.PG, repo.NewPG(), f, xform, service.Config{
		Workers: opts.Workers,
		Timeouts: guardrails.Timeouts{
			Batch: opts.BatchTimeout,
			Lock:  opts.LockTimeout,
		},
	}, m)

	return &Module{
		deps: deps,
		opts: opts,
		ports: Ports{
			Runner: svc,
			Status: svc,
		},
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "harvest" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Options returns the settings the module was built with
func (m *Module) Options() Options { return m.opts }

// StatusView is the /status payload
type StatusView struct {
	Running bool               `json:"running"`
	Year    int                `json:"year"`
	LastRun *domain.RunSummary `json:"last_run,omitempty"`
}

// Status snapshots the status port
func (m *Module) Status() StatusView {
	v := StatusView{Running: m.ports.Status.Running(), Year: m.opts.Year}
	if last, ok := m.ports.Status.LastRun(); ok {
		v.LastRun = &last
	}
	return v
}

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	phttp.GetJSON(r, "/status", func(*http.Request) (any, error) {
		return m.Status(), nil
	})
}

var _ modkit.Module = (*Module)(nil)
