package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/liamcoop/modelbench/evaluators"
	"github.com/liamcoop/modelbench/internal/logger"
	"github.com/liamcoop/modelbench/internal/metrics"
	"github.com/liamcoop/modelbench/model"
	"github.com/liamcoop/modelbench/results"
)

// FailureGenerationFailed is recorded when the generator returns an error
const FailureGenerationFailed = "Generation failed"

// Options bounds how tests are scheduled
type Options struct {
	// Concurrency is the maximum number of tests in flight
	Concurrency int

	// RatePerSecond limits how often tests start; 0 disables the limit
	RatePerSecond float64
	Burst         int
}

// CategorySummary counts outcomes for one category
type CategorySummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summary counts outcomes for a run
type Summary struct {
	RunID      string                     `json:"runId"`
	Suite      string                     `json:"suite"`
	Total      int                        `json:"total"`
	Passed     int                        `json:"passed"`
	Failed     int                        `json:"failed"`
	ByCategory map[string]CategorySummary `json:"byCategory"`
	Duration   time.Duration              `json:"duration"`
}

// Report is the outcome of a run; Results follow suite order
type Report struct {
	Summary Summary           `json:"summary"`
	Results []*results.Result `json:"results"`
}

// Runner generates a model for every test, scores it and stores the result
type Runner struct {
	registry  *evaluators.Registry
	generator Generator
	store     results.Store
	opts      Options
	log       *slog.Logger
}

func New(registry *evaluators.Registry, generator Generator, store results.Store, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &Runner{
		registry:  registry,
		generator: generator,
		store:     store,
		opts:      opts,
		log:       logger.With("component", "runner"),
	}
}

// Run validates suite, then runs its tests with bounded parallelism.
// Each test yields a Result even when generation fails. Cancelling ctx
// stops scheduling and Run returns ctx's error without storing anything.
func (r *Runner) Run(ctx context.Context, suite *Suite) (*Report, error) {
	if err := suite.Validate(r.registry); err != nil {
		metrics.RecordRun("error")
		return nil, err
	}

	runID := uuid.New().String()
	start := time.Now()
	r.log.Info("run started",
		"runId", runID,
		"suite", suite.Name,
		"tests", len(suite.Tests),
		"concurrency", r.opts.Concurrency)

	var limiter *rate.Limiter
	if r.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.opts.RatePerSecond), r.opts.Burst)
	}

	out := make([]*results.Result, len(suite.Tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, tc := range suite.Tests {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.runTest(gctx, runID, tc)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		metrics.RecordRun("cancelled")
		r.log.Warn("run cancelled", "runId", runID, "error", err)
		return nil, fmt.Errorf("run %s cancelled: %w", runID, err)
	}

	for _, res := range out {
		if err := r.store.Add(res); err != nil {
			metrics.RecordRun("error")
			logger.ErrorStore("add", err)
			return nil, fmt.Errorf("failed to store result for %s: %w", res.TestName, err)
		}
	}

	summary := summarize(runID, suite.Name, out)
	summary.Duration = time.Since(start)
	metrics.RecordRun("completed")
	r.log.Info("run completed",
		"runId", runID,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"duration", summary.Duration.String())

	return &Report{Summary: summary, Results: out}, nil
}

func (r *Runner) runTest(ctx context.Context, runID string, tc TestCase) *results.Result {
	start := time.Now()
	res := &results.Result{
		ID:       uuid.New().String(),
		RunID:    runID,
		Category: tc.Category,
		TestName: tc.Name,
	}

	m, err := r.generator.Generate(ctx, tc)
	if err != nil {
		metrics.RecordGenerationError(tc.Category)
		logger.WarnGenerationFailed(runID, tc.Name, err)
		res.Error = err.Error()
		res.Failures = []model.Failure{{Type: FailureGenerationFailed, Details: err.Error()}}
		res.Duration = time.Since(start)
		return res
	}

	failures, err := r.registry.Evaluate(tc.Category, m, tc.Expectation)
	if err != nil {
		// Only reachable when the registry changes after validation.
		res.Error = err.Error()
		res.Failures = []model.Failure{}
		res.Duration = time.Since(start)
		return res
	}

	res.Failures = failures
	res.Score = evaluators.Score(failures)
	res.Duration = time.Since(start)
	return res
}

func summarize(runID, suite string, list []*results.Result) Summary {
	s := Summary{
		RunID:      runID,
		Suite:      suite,
		ByCategory: make(map[string]CategorySummary),
	}
	for _, res := range list {
		c := s.ByCategory[res.Category]
		s.Total++
		c.Total++
		if res.Passed() {
			s.Passed++
			c.Passed++
		} else {
			s.Failed++
			c.Failed++
		}
		s.ByCategory[res.Category] = c
	}
	return s
}
