package store

import "time"

// Config aggregates backend configuration
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	// LogSQL logs every statement through the zerolog tracer
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the startup ping loop; 0 means 20
	ConnectRetries int
	// PingTimeout bounds a single startup ping; 0 means 3s
	PingTimeout time.Duration
}
