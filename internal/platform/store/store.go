// Package store owns the Postgres connection the harvest repository writes
// through. Repositories see only the small RowQuerier surface below, so unit
// tests can script it without a database
package store

import (
	"context"
	"io"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
)

type (
	Row interface {
		Scan(dest ...any) error
	}

	Rows interface {
		Row
		Next() bool
		Err() error
		Close()
		Columns() []string
	}

	// CommandTag reports what a write did
	CommandTag interface {
		String() string
		RowsAffected() int64
	}

	RowQuerier interface {
		Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
		Query(ctx context.Context, sql string, args ...any) (Rows, error)
		QueryRow(ctx context.Context, sql string, args ...any) Row
	}

	// TxRunner runs fn in one transaction: commit on nil, rollback otherwise
	TxRunner interface {
		RowQuerier
		Tx(ctx context.Context, fn func(q RowQuerier) error) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Store holds the open backends. PG is nil when Postgres is disabled, which
// is how dry runs and unit tests build one
type Store struct {
	Log logger.Logger
	PG  TxRunner

	tracers []QueryTracer
}

// Open applies opts then connects to Postgres when cfg enables it, waiting
// for the server to answer before returning
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := new(Store)
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if !cfg.PG.Enabled {
		return s, nil
	}
	runner, err := openPG(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.PG = runner
	return s, nil
}

// Guard reports whether Postgres answers; readiness calls it
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return perr.Unavailablef("store not opened")
	}
	p, ok := s.PG.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "postgres")
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	if s == nil {
		return nil
	}
	if c, ok := s.PG.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
