package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/modelbench/results"
	"github.com/liamcoop/modelbench/runner"
)

func newTestServer() *Server {
	return NewServerWithStore(nil, results.NewInMemoryStore(), runner.Options{Concurrency: 2})
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// TestHealth verifies the in-memory server reports healthy
func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
	assert.Equal(t, 5, resp.Categories)
}

// TestListCategories verifies categories are listed in sorted order with descriptions
func TestListCategories(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[CategoriesListResponse](t, rec)
	require.Len(t, resp.Categories, 5)
	assert.Equal(t, "causalReasoning", resp.Categories[0].ID)
	assert.Equal(t, "translation", resp.Categories[4].ID)
	for _, c := range resp.Categories {
		assert.NotEmpty(t, c.Description, c.ID)
	}
}

// TestEvaluate verifies a scored evaluation and the routing error codes
func TestEvaluate(t *testing.T) {
	s := newTestServer()
	expectation := map[string]any{
		"relationships": []map[string]string{
			{"from": "births", "to": "population", "polarity": "+"},
		},
	}

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantScore  int
		wantTypes  []string
	}{
		{
			name: "pass",
			body: map[string]any{
				"category":    "translation",
				"model":       map[string]any{"relationships": []map[string]string{{"from": "Births", "to": "Population", "polarity": "+"}}},
				"expectation": expectation,
			},
			wantStatus: http.StatusOK,
			wantScore:  1,
			wantTypes:  []string{},
		},
		{
			name: "polarity failure",
			body: map[string]any{
				"category":    "translation",
				"model":       map[string]any{"relationships": []map[string]string{{"from": "births", "to": "population", "polarity": "-"}}, "reasoning": "ignored"},
				"expectation": expectation,
			},
			wantStatus: http.StatusOK,
			wantScore:  0,
			wantTypes:  []string{"Incorrect polarity discovered"},
		},
		{
			name:       "unknown category",
			body:       map[string]any{"category": "haiku", "model": map[string]any{}, "expectation": expectation},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid expectation",
			body:       map[string]any{"category": "conformance", "model": map[string]any{}, "expectation": map[string]any{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing category",
			body:       map[string]any{"model": map[string]any{}, "expectation": expectation},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "model not an object",
			body:       map[string]any{"category": "translation", "model": []int{1}, "expectation": expectation},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"category": `,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/v1/evaluate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				resp := decode[ErrorResponse](t, rec)
				assert.NotEmpty(t, resp.Error)
				return
			}

			resp := decode[EvaluateResponse](t, rec)
			assert.Equal(t, tt.wantScore, resp.Score)
			assert.NotEmpty(t, resp.EvaluationTime)
			types := make([]string, len(resp.Failures))
			for i, f := range resp.Failures {
				types[i] = f.Type
			}
			assert.Equal(t, tt.wantTypes, types)
		})
	}
}

const runBody = `{
	"name": "api",
	"tests": [
		{
			"name": "good",
			"category": "translation",
			"expectation": {"relationships": [{"from": "a", "to": "b", "polarity": "+"}]},
			"response": {"relationships": [{"from": "a", "to": "b", "polarity": "+"}]}
		},
		{
			"name": "unrecorded",
			"category": "translation",
			"expectation": {"relationships": [{"from": "a", "to": "b", "polarity": "+"}]}
		}
	]
}`

// TestRunLifecycle verifies creating a run, listing, fetching and deleting its results
func TestRunLifecycle(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/api/v1/runs", runBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decode[RunResponse](t, rec)
	assert.Equal(t, 2, run.Summary.Total)
	assert.Equal(t, 1, run.Summary.Passed)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "unrecorded", run.Results[1].TestName)
	assert.NotEmpty(t, run.Results[1].Error)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/runs/"+run.RunID+"/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ResultsListResponse](t, rec)
	require.Len(t, list.Results, 2)
	assert.Equal(t, "good", list.Results[0].TestName)

	resultID := list.Results[0].ID
	rec = doRequest(t, s, http.MethodGet, "/api/v1/results/"+resultID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[results.Result](t, rec)
	assert.Equal(t, 1, got.Score)

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/results/"+resultID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/results/"+resultID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/results/"+resultID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestCreateRun_InvalidSuite verifies suite validation errors are client errors
func TestCreateRun_InvalidSuite(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/api/v1/runs", `{"name": "bad", "tests": [{"name": "x", "category": "haiku"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/runs", `{"tests": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestListRunResults_UnknownRun verifies an unknown run is not found
func TestListRunResults_UnknownRun(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/v1/runs/nope/results", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestMetrics verifies Prometheus collectors are exposed after an evaluation
func TestMetrics(t *testing.T) {
	s := newTestServer()
	doRequest(t, s, http.MethodPost, "/api/v1/evaluate", map[string]any{
		"category":    "translation",
		"model":       map[string]any{},
		"expectation": map[string]any{"relationships": []map[string]string{{"from": "a", "to": "b"}}},
	})

	rec := doRequest(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "modelbench_evaluator_evaluations_total"))
}
