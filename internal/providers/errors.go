package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrRemote matches every *RemoteError via errors.Is.
	ErrRemote = errors.New("remote service error")

	// ErrEmptyResponse is returned when the service answers without any choices.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrMissingAPIKey is returned when a provider that needs a credential has none.
	ErrMissingAPIKey = errors.New("missing API key: set OPENAI_API_KEY or provider.api_key")
)

// RemoteError is a failed call to the remote model service: network
// failure, non-success status, or a malformed response.
type RemoteError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: remote service error (status %d): %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: remote service error: %s", e.Provider, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrRemote.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// IsRateLimited reports whether the service answered 429.
func (e *RemoteError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// AsRemoteError extracts a *RemoteError from err.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
