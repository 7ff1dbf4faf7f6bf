// Package modkit provides module wiring and core deps
package modkit

import (
	"github.com/prometheus/client_golang/prometheus"

	"almgetl/internal/modkit/repokit"
	"almgetl/internal/platform/config"
	"almgetl/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner

	// Metrics is where modules register collectors; nil disables metrics
	Metrics prometheus.Registerer
}

// Registerer returns d.Metrics, or a throwaway registry when unset
func (d Deps) Registerer() prometheus.Registerer {
	if d.Metrics == nil {
		return prometheus.NewRegistry()
	}
	return d.Metrics
}
