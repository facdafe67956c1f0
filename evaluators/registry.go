package evaluators

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/liamcoop/modelbench/internal/logger"
	"github.com/liamcoop/modelbench/internal/metrics"
	"github.com/liamcoop/modelbench/model"
)

var (
	ErrUnknownCategory    = errors.New("unknown category")
	ErrAlreadyRegistered  = errors.New("category already registered")
	ErrInvalidExpectation = errors.New("invalid expectation")
)

// EvaluateFunc scores a generated model against its ground truth.
// It returns every failure found, never nil.
type EvaluateFunc func(m model.Model, exp model.Expectation) []model.Failure

// Evaluator binds a benchmark category to its scoring function
type Evaluator struct {
	Category    string
	Description string
	Evaluate    EvaluateFunc

	// Require reports whether exp carries the shape this category reads
	Require func(exp model.Expectation) error
}

// Registry maps category identifiers to evaluators
type Registry struct {
	evaluators map[string]*Evaluator
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		evaluators: make(map[string]*Evaluator),
	}
}

// DefaultRegistry returns a registry holding the five built-in categories
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range builtins() {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds an evaluator; a category can only be registered once
func (r *Registry) Register(e *Evaluator) error {
	if e == nil || e.Category == "" || e.Evaluate == nil {
		return fmt.Errorf("evaluator requires a category and an evaluate function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.evaluators[e.Category]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, e.Category)
	}
	r.evaluators[e.Category] = e
	return nil
}

// Get retrieves the evaluator for a category
func (r *Registry) Get(category string) (*Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.evaluators[category]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return e, nil
}

// Categories returns the registered category identifiers in sorted order
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]string, 0, len(r.evaluators))
	for c := range r.evaluators {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// Evaluate validates exp for category and scores m against it.
// Unknown categories and invalid expectations are errors; a model that
// fails every check is not.
func (r *Registry) Evaluate(category string, m model.Model, exp model.Expectation) ([]model.Failure, error) {
	e, err := r.Get(category)
	if err != nil {
		metrics.RecordEvaluationError(category)
		logger.WarnRejectedEvaluation(category, err)
		return nil, err
	}
	if err := validateFor(e, exp); err != nil {
		metrics.RecordEvaluationError(category)
		logger.WarnRejectedEvaluation(category, err)
		return nil, err
	}

	start := time.Now()
	failures := e.Evaluate(m, exp)
	if failures == nil {
		failures = []model.Failure{}
	}
	elapsed := time.Since(start)

	types := make([]string, len(failures))
	for i, f := range failures {
		types[i] = f.Type
	}
	metrics.RecordEvaluation(category, types, elapsed)
	logger.Debug("model evaluated",
		"category", category,
		"failures", len(failures),
		"duration", elapsed.String())

	return failures, nil
}

// Score is 1 for a model with no failures and 0 otherwise
func Score(failures []model.Failure) int {
	if len(failures) == 0 {
		return 1
	}
	return 0
}
