package runner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/liamcoop/modelbench/evaluators"
	"github.com/liamcoop/modelbench/model"
)

var ErrInvalidSuite = errors.New("invalid suite")

// Suite is a named list of benchmark tests
type Suite struct {
	Name  string     `json:"name" yaml:"name" validate:"required"`
	Tests []TestCase `json:"tests" yaml:"tests" validate:"required,min=1,dive"`
}

// TestCase is one prompt, its ground truth and optionally a recorded answer
type TestCase struct {
	Name        string            `json:"name" yaml:"name" validate:"required"`
	Category    string            `json:"category" yaml:"category" validate:"required"`
	Prompt      string            `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Expectation model.Expectation `json:"expectation" yaml:"expectation"`

	// Response is the raw model output replayed by FixtureGenerator
	Response Response `json:"response,omitempty" yaml:"response,omitempty"`
}

// Response holds raw generated text. In suite files it may be written as
// a string or as an inline JSON/YAML object.
type Response string

func (r *Response) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Response(s)
		return nil
	}
	*r = Response(bytes.TrimSpace(data))
	return nil
}

func (r *Response) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = Response(node.Value)
		return nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("response is not JSON-compatible: %w", err)
	}
	*r = Response(data)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadSuite reads a suite file. ".json" files are decoded as JSON,
// everything else as YAML.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseSuite(data, format)
}

// ParseSuite decodes a suite in the given format, "json" or "yaml"
func ParseSuite(data []byte, format string) (*Suite, error) {
	var s Suite
	switch format {
	case "json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse suite JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse suite YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported suite format %q", format)
	}
	return &s, nil
}

// Validate checks the suite structure, test name uniqueness and every
// expectation against its category in reg
func (s *Suite) Validate(reg *evaluators.Registry) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSuite, err)
	}

	seen := make(map[string]bool, len(s.Tests))
	var errs []error
	for _, tc := range s.Tests {
		if seen[tc.Name] {
			errs = append(errs, fmt.Errorf("test %q: duplicate name", tc.Name))
			continue
		}
		seen[tc.Name] = true

		if err := reg.ValidateExpectation(tc.Category, tc.Expectation); err != nil {
			errs = append(errs, fmt.Errorf("test %q: %w", tc.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidSuite, s.Name, errors.Join(errs...))
	}
	return nil
}
