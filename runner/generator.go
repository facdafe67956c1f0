package runner

import (
	"context"
	"errors"
	"strings"

	"github.com/liamcoop/modelbench/model"
)

var ErrNoResponse = errors.New("test has no recorded response")

// Generator produces a model for a test, usually by prompting an LLM
type Generator interface {
	Generate(ctx context.Context, tc TestCase) (model.Model, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, tc TestCase) (model.Model, error)

func (f GeneratorFunc) Generate(ctx context.Context, tc TestCase) (model.Model, error) {
	return f(ctx, tc)
}

// FixtureGenerator replays the response recorded in each test case
type FixtureGenerator struct{}

func (FixtureGenerator) Generate(ctx context.Context, tc TestCase) (model.Model, error) {
	if err := ctx.Err(); err != nil {
		return model.Model{}, err
	}
	if strings.TrimSpace(string(tc.Response)) == "" {
		return model.Model{}, ErrNoResponse
	}
	return model.Parse([]byte(tc.Response))
}
