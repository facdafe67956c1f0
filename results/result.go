package results

import (
	"errors"
	"time"

	"github.com/liamcoop/modelbench/model"
)

var (
	ErrNotFound      = errors.New("result not found")
	ErrAlreadyExists = errors.New("result already exists")
)

// Result is the stored outcome of one benchmark test
type Result struct {
	ID       string          `json:"id"`
	RunID    string          `json:"runId"`
	Category string          `json:"category"`
	TestName string          `json:"testName"`
	Failures []model.Failure `json:"failures"`
	Score    int             `json:"score"`
	Duration time.Duration   `json:"duration"`

	// Error is set when no model could be generated for the test
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Passed reports whether the test scored 1
func (r *Result) Passed() bool {
	return r.Score == 1
}

// clone copies r deeply enough that callers cannot mutate stored state
func (r *Result) clone() *Result {
	c := *r
	c.Failures = make([]model.Failure, len(r.Failures))
	copy(c.Failures, r.Failures)
	return &c
}
