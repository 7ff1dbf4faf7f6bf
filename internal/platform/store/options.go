package store

import (
	"almgetl/internal/platform/logger"
	"almgetl/internal/platform/store/pg"
)

// QueryTracer is re-exported so callers can pass tracers without importing pg
type QueryTracer = pg.QueryTracer

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithTracer adds a query tracer; tracers run in registration order after the SQL log tracer
func WithTracer(t QueryTracer) Option {
	return func(s *Store) error {
		if t != nil {
			s.tracers = append(s.tracers, t)
		}
		return nil
	}
}
