package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackzampolin/pdfextract/internal/config"
	"github.com/jackzampolin/pdfextract/internal/instruction"
	"github.com/jackzampolin/pdfextract/internal/pipeline"
	"github.com/jackzampolin/pdfextract/internal/providers"
	"github.com/jackzampolin/pdfextract/internal/raster"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Page is the 1-based page that aborted the run, when known.
	Page int `json:"page,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps an extraction error to its HTTP status.
func statusFor(err error) int {
	var remote *providers.RemoteError
	switch {
	case errors.Is(err, instruction.ErrUnsupportedFormat),
		errors.Is(err, instruction.ErrUnknownMode),
		errors.Is(err, instruction.ErrNoFields):
		return http.StatusBadRequest
	case errors.Is(err, providers.ErrMissingAPIKey),
		errors.Is(err, config.ErrInvalid):
		return http.StatusServiceUnavailable
	case errors.Is(err, raster.ErrInvalidDocument):
		return http.StatusUnprocessableEntity
	case errors.As(err, &remote) && remote.IsRateLimited():
		return http.StatusTooManyRequests
	case errors.Is(err, providers.ErrRemote):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeExtractError writes err with its mapped status, the failing page and
// a Retry-After header when the provider supplied one.
func writeExtractError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if pe, ok := pipeline.AsPageError(err); ok {
		resp.Page = pe.Page
	}
	if remote, ok := providers.AsRemoteError(err); ok && remote.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(remote.RetryAfter.Seconds())))
	}
	writeJSON(w, statusFor(err), resp)
}
