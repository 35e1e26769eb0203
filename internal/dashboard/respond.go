package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/facility"
	"github.com/Sternrassler/onepa-availability/pkg/logging"
	"github.com/Sternrassler/onepa-availability/pkg/onepa"
)

var errUnknownOutlet = errors.New("unknown outlet")

type errorResponse struct {
	Error      string `json:"error"`
	ErrorClass string `json:"error_class,omitempty"`
}

// writeJSON serializes payload to JSON with status and logs on failure.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err to a status code: selection problems are 400, unknown
// facilities and outlets 404, an expired fetch budget 504, and anything else
// from the remote service 502.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if status >= http.StatusInternalServerError {
		resp.ErrorClass = string(client.ClassOf(err))
	}

	ev := logging.FromContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.FromContext(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Msg("Request failed")

	writeJSON(w, r, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, onepa.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, facility.ErrUnknownFacility), errors.Is(err, errUnknownOutlet):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
