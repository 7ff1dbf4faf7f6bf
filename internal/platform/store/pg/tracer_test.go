package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"almgetl/internal/platform/logger"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"select 1", "select 1"},
		{"  select   1  ", "select 1"},
		{"SELECT\t*\nFROM\r\tproposicao WHERE  ano =  $1", "SELECT * FROM proposicao WHERE ano = $1"},
		{"", ""},
	}
	for i, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("case %d: compact(%q) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

func TestTracer_InfoAndWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	type logLine struct {
		Level     string  `json:"level"`
		ElapsedMS float64 `json:"elapsed_ms"`
		Slow      bool    `json:"slow"`
		SQL       string  `json:"sql"`
		Error     string  `json:"error"`
		Message   string  `json:"message"`
		Component string  `json:"component"`
		RunID     string  `json:"run_id"`
	}

	ev := QueryEvent{
		SQL:       "SELECT  id \n FROM  proposicao",
		Args:      []any{1},
		ElapsedUS: 12345,
		Err:       errors.New("boom"),
	}
	ctx := logger.WithRun(context.Background(), "run-1")
	tr.OnQuery(ctx, ev)

	var line logLine
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("unmarshal: %v\nraw=%s", err, buf.String())
	}
	if line.Level != "info" || line.Slow {
		t.Fatalf("level/slow mismatch: %+v", line)
	}
	if math.Abs(line.ElapsedMS-12.345) > 0.0005 {
		t.Fatalf("elapsed_ms = %v", line.ElapsedMS)
	}
	if line.SQL != "SELECT id FROM proposicao" || line.Error != "boom" || line.Message != "pg query" {
		t.Fatalf("fields mismatch: %+v", line)
	}
	if line.Component != "pg" || line.RunID != "run-1" {
		t.Fatalf("component/run_id mismatch: %+v", line)
	}

	buf.Reset()
	ev.Slow = true
	tr.OnQuery(context.Background(), ev)
	line = logLine{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("unmarshal warn: %v", err)
	}
	if line.Level != "warn" || !line.Slow || line.RunID != "" {
		t.Fatalf("warn path mismatch: %+v", line)
	}
}

type countTracer struct{ n int }

func (c *countTracer) OnQuery(context.Context, QueryEvent) { c.n++ }

func TestMulti(t *testing.T) {
	t.Parallel()

	if Multi() != nil || Multi(nil, nil) != nil {
		t.Fatalf("Multi of nothing should be nil")
	}
	one := &countTracer{}
	if Multi(nil, one) != QueryTracer(one) {
		t.Fatalf("single tracer should be returned as-is")
	}
	two := &countTracer{}
	Multi(one, two).OnQuery(context.Background(), QueryEvent{})
	if one.n != 1 || two.n != 1 {
		t.Fatalf("fan-out counts = %d/%d", one.n, two.n)
	}
}
