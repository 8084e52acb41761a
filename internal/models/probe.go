package models

import (
	"github.com/codyseavey/cardscout/internal/jsonval"
)

type AttemptStatus string

const (
	AttemptStatusError   AttemptStatus = "error"
	AttemptStatusBlocked AttemptStatus = "blocked" // upstream answered 403
	AttemptStatusNoItems AttemptStatus = "no_items"
)

// AttemptError describes one failed endpoint attempt for the debug view.
type AttemptError struct {
	Attempt      int               `json:"attempt"`
	URL          string            `json:"url"`
	Params       map[string]string `json:"params"`
	Status       AttemptStatus     `json:"status"`
	Error        string            `json:"error,omitempty"`
	StatusCode   int               `json:"status_code,omitempty"`
	ResponseKeys []string          `json:"response_keys,omitempty"`
}

// ProbeResult is the outcome of running an ordered list of endpoint attempts.
type ProbeResult struct {
	Success       bool              `json:"success"`
	Endpoint      string            `json:"endpoint,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
	AttemptNumber int               `json:"attempt_number,omitempty"`
	ItemsCount    int               `json:"items_count"`
	Errors        []AttemptError    `json:"errors"`
	TotalAttempts int               `json:"total_attempts"`

	Data  jsonval.Value `json:"-"`
	Cards []CardSummary `json:"-"`
}
