package store

import (
	"context"
	"errors"
	"time"

	"almgetl/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// tracing reports each statement to tracer. slow < 0 never flags a statement
type tracing struct {
	tracer pg.QueryTracer
	slow   time.Duration
}

func (t tracing) done(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	took := time.Since(start)
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: took.Microseconds(),
		Err:       err,
		Slow:      t.slow >= 0 && took >= t.slow,
	})
}

// pgxQuerier is what *pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is the RowQuerier handed to repositories, over the pool or a tx
type querier struct {
	q pgxQuerier
	tracing
}

func (x querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := x.q.Exec(ctx, sql, args...)
	x.done(ctx, sql, args, start, err)
	return ct, err
}

func (x querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := x.q.Query(ctx, sql, args...)
	x.done(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

// QueryRow traces once Scan returns; a missing row is not a failed query
func (x querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := x.q.QueryRow(ctx, sql, args...)
	return scanHook(func(dst ...any) error {
		err := r.Scan(dst...)
		traced := err
		if errors.Is(err, pgx.ErrNoRows) {
			traced = nil
		}
		x.done(ctx, sql, args, start, traced)
		return err
	})
}

type scanHook func(dst ...any) error

func (f scanHook) Scan(dst ...any) error { return f(dst...) }

type pgxRows struct{ pgx.Rows }

func (r pgxRows) Columns() []string {
	var cols []string
	for _, fd := range r.FieldDescriptions() {
		cols = append(cols, fd.Name)
	}
	return cols
}

// pgAdapter is the TxRunner Store.PG holds when Postgres is enabled
type pgAdapter struct {
	querier
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	slow := time.Duration(p.SlowMs) * time.Millisecond
	if p.SlowMs < 0 {
		slow = -1
	}
	return &pgAdapter{
		querier: querier{q: p.Pool, tracing: tracing{tracer: p.Tracer, slow: slow}},
		p:       p,
	}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error {
	a.p.Close()
	return nil
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	return runTx(ctx, tx, a.tracing, fn)
}

// runTx commits when fn returns nil. An error or a panic from fn rolls back,
// and the rollback survives a cancelled ctx
func runTx(ctx context.Context, tx pgx.Tx, tr tracing, fn func(q RowQuerier) error) error {
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()
	if err := fn(querier{q: tx, tracing: tr}); err != nil {
		return err
	}
	committed = true
	return tx.Commit(ctx)
}
