package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/modelbench/evaluators"
	"github.com/liamcoop/modelbench/model"
)

const yamlSuite = `
name: smoke
tests:
  - name: population
    category: translation
    prompt: Births increase population and population increases births.
    expectation:
      relationships:
        - {from: births, to: population, polarity: "+"}
        - {from: population, to: births, polarity: "+"}
    response: |
      {"variables": [], "relationships": [
        {"from": "births", "to": "population", "polarity": "+"},
        {"from": "population", "to": "births", "polarity": "+"}
      ]}
  - name: loops
    category: conformance
    expectation:
      requirements:
        variables: [births]
        minFeedback: 1
    response:
      relationships:
        - {from: births, to: population, polarity: "+"}
`

// TestParseSuite_YAML verifies string and inline-object responses both decode
func TestParseSuite_YAML(t *testing.T) {
	s, err := ParseSuite([]byte(yamlSuite), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "smoke", s.Name)
	require.Len(t, s.Tests, 2)
	assert.Len(t, s.Tests[0].Expectation.Relationships, 2)
	require.NotNil(t, s.Tests[1].Expectation.Requirements)
	assert.Equal(t, 1, *s.Tests[1].Expectation.Requirements.MinFeedback)

	for _, tc := range s.Tests {
		m, err := FixtureGenerator{}.Generate(t.Context(), tc)
		require.NoError(t, err, tc.Name)
		assert.NotEmpty(t, m.Relationships, tc.Name)
	}
}

// TestParseSuite_JSON verifies JSON suites with an object response
func TestParseSuite_JSON(t *testing.T) {
	data := `{
		"name": "json",
		"tests": [{
			"name": "t1",
			"category": "translation",
			"expectation": {"relationships": [{"from": "a", "to": "b", "polarity": "-"}]},
			"response": {"relationships": [{"from": "a", "to": "b", "polarity": "-"}]}
		}]
	}`

	s, err := ParseSuite([]byte(data), "json")
	require.NoError(t, err)
	require.Len(t, s.Tests, 1)

	m, err := FixtureGenerator{}.Generate(t.Context(), s.Tests[0])
	require.NoError(t, err)
	assert.Equal(t, []model.Relationship{{From: "a", To: "b", Polarity: "-"}}, m.Relationships)
}

// TestParseSuite_UnsupportedFormat verifies unknown formats are rejected
func TestParseSuite_UnsupportedFormat(t *testing.T) {
	_, err := ParseSuite([]byte("name: x"), "toml")
	assert.Error(t, err)
}

// TestLoadSuite verifies the file extension selects the decoder
func TestLoadSuite(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlSuite), 0o644))
	s, err := LoadSuite(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)

	jsonPath := filepath.Join(dir, "suite.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "j", "tests": []}`), 0o644))
	s, err = LoadSuite(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "j", s.Name)

	_, err = LoadSuite(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestSuite_Validate verifies structural, duplicate and per-category checks
func TestSuite_Validate(t *testing.T) {
	reg := evaluators.DefaultRegistry()
	valid := TestCase{
		Name:     "ok",
		Category: evaluators.Translation,
		Expectation: model.Expectation{
			Relationships: []model.Relationship{{From: "a", To: "b", Polarity: "+"}},
		},
	}

	tests := []struct {
		name     string
		suite    Suite
		wantErr  bool
		contains string
	}{
		{"valid", Suite{Name: "s", Tests: []TestCase{valid}}, false, ""},
		{"no name", Suite{Tests: []TestCase{valid}}, true, "Name"},
		{"no tests", Suite{Name: "s"}, true, "Tests"},
		{"test without category", Suite{Name: "s", Tests: []TestCase{{Name: "x"}}}, true, "Category"},
		{"duplicate names", Suite{Name: "s", Tests: []TestCase{valid, valid}}, true, "duplicate"},
		{"unknown category", Suite{Name: "s", Tests: []TestCase{{Name: "x", Category: "haiku"}}}, true, "unknown category"},
		{"bad expectation", Suite{Name: "s", Tests: []TestCase{{Name: "x", Category: evaluators.Conformance}}}, true, "requirements"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.suite.Validate(reg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSuite)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

// TestFixtureGenerator_NoResponse verifies a missing recording is an error
func TestFixtureGenerator_NoResponse(t *testing.T) {
	_, err := FixtureGenerator{}.Generate(t.Context(), TestCase{Name: "x", Response: "  "})
	assert.ErrorIs(t, err, ErrNoResponse)
}
