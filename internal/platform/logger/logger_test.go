package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"TRACE":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"panic":   zerolog.PanicLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	} {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// lines decodes every JSON log line written to buf
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		m := map[string]any{}
		if err := json.Unmarshal([]byte(l), &m); err != nil {
			t.Fatalf("log line %q: %v", l, err)
		}
		out = append(out, m)
	}
	return out
}

// Init is once-only, so this is the one test that configures the root logger
func TestRunScopedLogging(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "almgetl",
		Writer:       &buf,
		StaticFields: map[string]string{"city": "Belo Horizonte"},
	})

	ctx := WithPage(WithRun(context.Background(), "run-7"), 3)
	C(ctx).Info().Int("inserted", 2).Msg("page loaded")
	Named("cron").Debug().Msg("tick")
	C(context.Background()).Warn().Msg("no run")

	got := lines(t, &buf)
	if len(got) != 3 {
		t.Fatalf("lines = %d: %s", len(got), buf.String())
	}
	page := got[0]
	if page["run_id"] != "run-7" || page["page"] != float64(3) || page["inserted"] != float64(2) {
		t.Fatalf("page line = %v", page)
	}
	if page["service"] != "almgetl" || page["city"] != "Belo Horizonte" {
		t.Fatalf("static fields missing: %v", page)
	}
	if got[1]["component"] != "cron" || got[1]["level"] != "debug" {
		t.Fatalf("named line = %v", got[1])
	}
	if _, ok := got[2]["run_id"]; ok {
		t.Fatalf("background ctx must not carry a run id: %v", got[2])
	}
	if Named("") != Get() {
		t.Fatal("empty component should return the root logger")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_COMPONENT", "harvest")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "10")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "almgetl" || opt.Component != "harvest" {
		t.Fatalf("opts = %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 10 {
		t.Fatalf("opts = %+v", opt)
	}
}

func TestRunID(t *testing.T) {
	if got := RunID(WithRun(context.Background(), "3f2a")); got != "3f2a" {
		t.Fatalf("RunID = %q", got)
	}
	if got := RunID(WithRun(context.Background(), "")); got != "" {
		t.Fatalf("empty run id stored as %q", got)
	}
}
