package main

import (
	"encoding/json"

	"github.com/liamcoop/modelbench/model"
	"github.com/liamcoop/modelbench/results"
	"github.com/liamcoop/modelbench/runner"
)

// API request and response bodies

// EvaluateRequest scores one generated model against an expectation
type EvaluateRequest struct {
	Category    string            `json:"category" example:"translation"`
	Model       json.RawMessage   `json:"model"`
	Expectation model.Expectation `json:"expectation"`
} // @name EvaluateRequest

// EvaluateResponse carries the failures and binary score of one evaluation
type EvaluateResponse struct {
	Failures       []model.Failure `json:"failures"`
	Score          int             `json:"score" example:"0"`
	EvaluationTime string          `json:"evaluationTime" example:"412µs"`
} // @name EvaluateResponse

// CategoryResponse describes a registered benchmark category
type CategoryResponse struct {
	ID          string `json:"id" example:"quantitativeReasoning"`
	Description string `json:"description"`
} // @name CategoryResponse

// CategoriesListResponse lists categories in sorted order
type CategoriesListResponse struct {
	Categories []CategoryResponse `json:"categories"`
} // @name CategoriesListResponse

// RunResponse is returned when a suite run completes
type RunResponse struct {
	RunID   string            `json:"runId" example:"123e4567-e89b-12d3-a456-426614174000"`
	Summary runner.Summary    `json:"summary"`
	Results []*results.Result `json:"results"`
} // @name RunResponse

// ResultsListResponse lists the results of one run
type ResultsListResponse struct {
	RunID   string            `json:"runId"`
	Results []*results.Result `json:"results"`
} // @name ResultsListResponse

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"unknown category"`
	Details string `json:"details,omitempty"`
} // @name ErrorResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string           `json:"status" example:"healthy"`
	Storage    string           `json:"storage" example:"postgres"`
	Categories int              `json:"categories" example:"5"`
	Counters   map[string]int64 `json:"counters,omitempty"`
	Error      string           `json:"error,omitempty"`
} // @name HealthResponse
