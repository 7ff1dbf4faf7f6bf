// Package http serves the ops endpoints and writes their JSON envelope
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "almgetl/internal/platform/errors"
	pnet "almgetl/internal/platform/net"
)

// Envelope wraps every ops response; Data on success, Code and Error on failure
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func envelope(r *stdhttp.Request, status int) Envelope {
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  pnet.RequestID(r.Context()),
	}
}

// JSON writes v with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope around data
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	env := envelope(r, stdhttp.StatusOK)
	env.Data = data
	JSON(w, stdhttp.StatusOK, env)
}

// RespondError writes err with the status its code maps to. Only the top
// message of a coded error is shown; wrapped causes such as DSNs stay in the logs
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status := perr.HTTPStatus(err)
	env := envelope(r, status)
	env.Code = perr.CodeOf(err).String()
	env.Error = err.Error()
	if e, ok := perr.As(err); ok {
		env.Error = e.Message()
	}
	JSON(w, status, env)
}

// GetJSON mounts fn on GET path; its value or error becomes the envelope
func GetJSON(r Router, path string, fn func(*stdhttp.Request) (any, error)) {
	r.Get(path, func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		out, err := fn(req)
		if err != nil {
			RespondError(w, req, err)
			return
		}
		RespondOK(w, req, out)
	})
}
