package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptyQuery    = errors.New("enter at least one of character name, set name or card number")
	ErrEmptyCardID   = errors.New("card id is required")
	ErrMissingAPIKey = errors.New("POKEMON_PRICE_TRACKER_API_KEY is not configured")
	ErrUnsupported   = errors.New("not supported by the selected card source")
	ErrNotFound      = errors.New("card not found")
	ErrNoHistory     = errors.New("price history is disabled (set HISTORY_DB_PATH)")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptySession  = errors.New("session id is required")
)

// HTTPStatusError is returned when an upstream answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Blocked() {
		return fmt.Sprintf("request to %s was blocked (status %d)", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s returned status %d", e.URL, e.StatusCode)
}

// Blocked reports whether the upstream refused us outright (403).
func (e *HTTPStatusError) Blocked() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsBlocked reports whether err wraps a 403 HTTPStatusError.
func IsBlocked(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.Blocked()
}

// StatusCodeOf returns the upstream status code wrapped in err, or 0.
func StatusCodeOf(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
