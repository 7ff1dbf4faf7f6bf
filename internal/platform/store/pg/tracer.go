package pg

import (
	"context"
	"strings"

	"almgetl/internal/platform/logger"

	"github.com/rs/zerolog"
)

type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer is told about every statement once it finishes
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs each statement at info, or warn when slow. It is only
// installed when ETL_PG_LOG_SQL is on, so it ignores the root level
func Tracer(root logger.Logger) QueryTracer {
	return sqlLog{root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type sqlLog struct{ log logger.Logger }

func (s sqlLog) OnQuery(ctx context.Context, ev QueryEvent) {
	lvl := zerolog.InfoLevel
	if ev.Slow {
		lvl = zerolog.WarnLevel
	}
	e := s.log.WithLevel(lvl)
	if id := logger.RunID(ctx); id != "" {
		e = e.Str("run_id", id)
	}
	e.Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Float64("elapsed_ms", float64(ev.ElapsedUS)/1e3).
		Bool("slow", ev.Slow).
		Err(ev.Err).
		Msg("pg query")
}

// Multi fans out to each non-nil tracer. It returns nil for none and the
// tracer itself for one
func Multi(ts ...QueryTracer) QueryTracer {
	var set fanout
	for _, t := range ts {
		if t != nil {
			set = append(set, t)
		}
	}
	switch len(set) {
	case 0:
		return nil
	case 1:
		return set[0]
	default:
		return set
	}
}

type fanout []QueryTracer

func (f fanout) OnQuery(ctx context.Context, ev QueryEvent) {
	for _, t := range f {
		t.OnQuery(ctx, ev)
	}
}

// compact puts a multi-line statement on one log line
func compact(sql string) string { return strings.Join(strings.Fields(sql), " ") }
