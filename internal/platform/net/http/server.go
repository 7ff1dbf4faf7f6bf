package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"sync/atomic"
	"time"

	"almgetl/internal/platform/config"
	"almgetl/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server serves the ops endpoints (health, readiness, metrics, manual run)
// from a chi mux
type Server struct {
	addr  string
	mux   *chi.Mux
	srv   *stdhttp.Server
	bound atomic.Pointer[string]

	// ShutdownGrace is how long in-flight requests get once Run's ctx ends
	ShutdownGrace time.Duration
}

// NewServer reads OPS_ADDR from cfg, ":9090" when unset. setup runs against
// the mux before the server exists
func NewServer(cfg config.Conf, setup ...func(*chi.Mux)) *Server {
	s := &Server{
		addr:          cfg.MayString("OPS_ADDR", ":9090"),
		mux:           chi.NewRouter(),
		ShutdownGrace: 5 * time.Second,
	}
	for _, fn := range setup {
		fn(s.mux)
	}
	s.srv = &stdhttp.Server{Addr: s.addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

func (s *Server) Router() Router { return AdaptChi(s.mux) }

func (s *Server) Addr() string { return s.addr }

// BoundAddr is the listener's real address once Run is serving, "" before
func (s *Server) BoundAddr() string {
	if p := s.bound.Load(); p != nil {
		return *p
	}
	return ""
}

// Run serves until ctx ends, then drains within ShutdownGrace
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	addr := ln.Addr().String()
	s.bound.Store(&addr)

	log := logger.Named("http")
	log.Info().Str("addr", addr).Msg("ops server listening")

	served := make(chan error, 1)
	go func() { served <- s.srv.Serve(ln) }()

	select {
	case err := <-served:
		return ignoreClosed(err)
	case <-ctx.Done():
	}

	drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ShutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(drain); err != nil {
		return err
	}
	if err := ignoreClosed(<-served); err != nil {
		return err
	}
	log.Info().Msg("ops server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func ignoreClosed(err error) error {
	if errors.Is(err, stdhttp.ErrServerClosed) {
		return nil
	}
	return err
}
