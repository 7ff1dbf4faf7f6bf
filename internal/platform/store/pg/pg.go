// Package pg opens the pgxpool the harvest store runs on
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	URL      string
	MaxConns int32 // pgxpool default when <= 0
	SlowMs   int   // statements at or over this are traced as slow; < 0 disables
	AppName  string
}

// PG bundles the pool with the tracer every statement reports to
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds the pool without waiting for the server.
// tune, when set, sees the pool config last
func Open(ctx context.Context, cfg Config, tracer QueryTracer, tune func(*pgxpool.Config)) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	// an application_name in the URL wins over ours
	params := pc.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok && cfg.AppName != "" {
		if params == nil {
			params = map[string]string{}
			pc.ConnConfig.RuntimeParams = params
		}
		params["application_name"] = cfg.AppName
	}
	if tune != nil {
		tune(pc)
	}

	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

func (p *PG) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}
