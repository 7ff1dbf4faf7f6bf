package module

import (
	"testing"
	"time"

	"almgetl/internal/adapters/ingest/almg"
	"almgetl/internal/platform/config"
	perr "almgetl/internal/platform/errors"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New().Prefix("UNSET_"))
	if o.Workers != 5 || o.Retries != 3 || o.BackoffFactor != 0.3 || o.Year != 2023 {
		t.Fatalf("defaults = %+v", o)
	}
	if o.BaseURL != almg.DefaultBaseURL || o.Schedule != "@daily" || !o.RunOnStart || !o.EnsureSchema {
		t.Fatalf("defaults = %+v", o)
	}
	if o.HTTPTimeout != 30*time.Second || o.LockTimeout != 0 || o.BatchTimeout != 0 {
		t.Fatalf("timeouts = %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("OPT_ETL_MAX_WORKERS", "8")
	t.Setenv("OPT_ETL_RETRIES", "5")
	t.Setenv("OPT_ETL_BACKOFF_FACTOR", "0.1")
	t.Setenv("OPT_ETL_YEAR", "2024")
	t.Setenv("OPT_ETL_BASE_URL", "http://upstream.test/search")
	t.Setenv("OPT_ETL_LOCK_TIMEOUT", "2s")
	t.Setenv("OPT_ETL_BATCH_TIMEOUT", "1m")
	t.Setenv("OPT_ETL_SCHEDULE", "0 3 * * *")
	t.Setenv("OPT_ETL_RUN_ON_START", "false")

	o := FromConfig(config.New().Prefix("OPT_"))
	if o.Workers != 8 || o.Year != 2024 || o.LockTimeout != 2*time.Second || o.BatchTimeout != time.Minute {
		t.Fatalf("options = %+v", o)
	}
	if o.Schedule != "0 3 * * *" || o.RunOnStart {
		t.Fatalf("schedule = %+v", o)
	}

	c := o.ClientOptions()
	if c.Retries != 5 || c.BackoffFactor != 0.1 || c.Year != 2024 || c.BaseURL != "http://upstream.test/search" {
		t.Fatalf("client options = %+v", c)
	}
}

func TestOptions_Validate(t *testing.T) {
	base := FromConfig(config.New().Prefix("UNSET_"))

	cases := []struct {
		name  string
		mut   func(*Options)
		field string
	}{
		{"zero workers", func(o *Options) { o.Workers = 0 }, "max_workers"},
		{"bad year", func(o *Options) { o.Year = 99 }, "year"},
		{"no url", func(o *Options) { o.BaseURL = "" }, "base_url"},
		{"not a url", func(o *Options) { o.BaseURL = "dadosabertos" }, "base_url"},
		{"no schedule", func(o *Options) { o.Schedule = "" }, "schedule"},
		{"negative lock", func(o *Options) { o.LockTimeout = -time.Second }, "lock_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := base
			tc.mut(&o)
			err := o.Validate()
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("err = %v", err)
			}
			if got := perr.FieldOf(err); got != tc.field {
				t.Fatalf("field = %q, want %q", got, tc.field)
			}
		})
	}
}
