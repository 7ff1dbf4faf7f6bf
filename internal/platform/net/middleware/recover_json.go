package middleware

import (
	"net/http"
	"runtime/debug"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
	pnet "almgetl/internal/platform/net"
	phttp "almgetl/internal/platform/net/http"
)

// RecoverJSON turns a handler panic into a 500 envelope with code "panic"
// and logs the value and stack under the request id
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(r.Context()).Error().
				Str("request_id", reqID).
				Str("path", r.URL.Path).
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			phttp.RespondError(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
