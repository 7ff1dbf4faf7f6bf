// Package middleware holds adapters and in house middlewares
package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"almgetl/internal/platform/logger"
	pnet "almgetl/internal/platform/net"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow logs requests at warn once they take this long; 0 never does
	Slow time.Duration

	// Quiet paths log at debug: scrapers and health checks hit these every few seconds
	Quiet []string
}

// level picks the event level for one finished request
func (o AccessLogOptions) level(path string, status int, took time.Duration) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case o.Slow > 0 && took >= o.Slow:
		return zerolog.WarnLevel
	case slices.Contains(o.Quiet, path):
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// statusRecorder remembers the status and body size the handler wrote
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.written += n
	return n, err
}

// AccessLogZerolog writes one line per request through the ctx logger
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			took := time.Since(start)

			logger.C(r.Context()).WithLevel(opt.level(r.URL.Path, rec.status, took)).
				Str("request_id", pnet.RequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int("bytes", rec.written).
				Dur("took", took).
				Msg("request done")
		})
	}
}
