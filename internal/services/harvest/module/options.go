package module

import (
	"time"

	"almgetl/internal/adapters/ingest/almg"
	"almgetl/internal/platform/config"
	"almgetl/internal/platform/validate"
)

// Options holds configuration settings for the harvest module
type Options struct {
	Workers       int           `json:"max_workers" validate:"min=1,max=64"`
	Retries       int           `json:"retries" validate:"min=1,max=20"`
	BackoffFactor float64       `json:"backoff_factor" validate:"min=0,max=60"`
	HTTPTimeout   time.Duration `json:"http_timeout" validate:"min=0"`
	BaseURL       string        `json:"base_url" validate:"required,url"`
	Year          int           `json:"year" validate:"min=1000,max=9999"`

	LockTimeout  time.Duration `json:"lock_timeout" validate:"min=0"`
	BatchTimeout time.Duration `json:"batch_timeout" validate:"min=0"`

	Schedule     string `json:"schedule" validate:"required"`
	RunOnStart   bool   `json:"run_on_start"`
	EnsureSchema bool   `json:"ensure_schema"`
}

// FromConfig reads configuration settings from the config.Conf under ETL_*
func FromConfig(cfg config.Conf) Options {
	etl := cfg.Prefix("ETL_")
	return Options{
		Workers:       etl.MayInt("MAX_WORKERS", 5),
		Retries:       etl.MayInt("RETRIES", 3),
		BackoffFactor: etl.MayFloat64("BACKOFF_FACTOR", 0.3),
		HTTPTimeout:   etl.MayDuration("HTTP_TIMEOUT", 30*time.Second),
		BaseURL:       etl.MayString("BASE_URL", almg.DefaultBaseURL),
		Year:          etl.MayInt("YEAR", 2023),
		LockTimeout:   etl.MayDuration("LOCK_TIMEOUT", 0),
		BatchTimeout:  etl.MayDuration("BATCH_TIMEOUT", 0),
		Schedule:      etl.MayString("SCHEDULE", "@daily"),
		RunOnStart:    etl.MayBool("RUN_ON_START", true),
		EnsureSchema:  etl.MayBool("ENSURE_SCHEMA", true),
	}
}

// Validate checks the settings; the first failure is returned as a perr validation error
func (o Options) Validate() error {
	return validate.Struct(o)
}

// ClientOptions maps the settings onto the ALMG client
func (o Options) ClientOptions() almg.Options {
	return almg.Options{
		BaseURL:       o.BaseURL,
		Year:          o.Year,
		Retries:       o.Retries,
		BackoffFactor: o.BackoffFactor,
		Timeout:       o.HTTPTimeout,
	}
}
