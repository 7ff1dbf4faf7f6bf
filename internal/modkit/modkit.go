package modkit

import (
	phttp "almgetl/internal/platform/net/http"
)

// Module is the common surface for modules that can mount ops routes and expose ports
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set interface for cross wiring
	Ports() any

	// Name returns the module name
	Name() string
}

// Builder constructs a Module from shared deps
// modules read their own settings from deps.Cfg
type Builder func(Deps) Module
