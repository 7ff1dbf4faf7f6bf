// Package service provides the harvest service implementation
package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"almgetl/internal/modkit/repokit"
	"almgetl/internal/services/harvest/domain"
	"almgetl/internal/services/harvest/guardrails"
)

// Config holds configuration options for the harvest service
type Config struct {
	// Workers is the window size W: pages fetched concurrently per round; <=0 -> 1
	Workers int

	// Timeouts bound each page batch; zero values disable them
	Timeouts guardrails.Timeouts
}

// Service implements the harvest runner, loader and status ports
type Service struct {
	DB      repokit.TxRunner
	Binder  repokit.Binder[domain.StorageRepo] // binds q -> domain.StorageRepo
	Fetch   domain.Fetcher
	Xform   domain.Transformer
	Cfg     Config
	Metrics *Metrics

	now   func() time.Time
	newID func() string

	running atomic.Bool
	mu      sync.Mutex
	last    domain.RunSummary
	hasLast bool
}

// New constructs the harvest service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	f domain.Fetcher,
	x domain.Transformer,
	cfg Config,
	m *Metrics,
) *Service {
	if db == nil {
		panic("harvest.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("harvest.Service requires a non nil Repo binder")
	}
	if f == nil || x == nil {
		panic("harvest.Service requires a fetcher and a transformer")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{
		DB: db, Binder: binder,
		Fetch: f, Xform: x,
		Cfg:     cfg,
		Metrics: m,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// LastRun implements domain.StatusPort
func (s *Service) LastRun() (domain.RunSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// Running implements domain.StatusPort
func (s *Service) Running() bool { return s.running.Load() }

func (s *Service) record(sum domain.RunSummary) {
	s.mu.Lock()
	s.last, s.hasLast = sum, true
	s.mu.Unlock()
}
