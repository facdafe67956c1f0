package model

import "strings"

// VariableType classifies a model variable
type VariableType string

const (
	Stock     VariableType = "stock"
	Flow      VariableType = "flow"
	Auxiliary VariableType = "variable"
)

// ParseVariableType maps a generator-supplied type string onto a VariableType.
// Unknown or empty values are treated as auxiliaries.
func ParseVariableType(s string) VariableType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock":
		return Stock
	case "flow":
		return Flow
	default:
		return Auxiliary
	}
}

// UnmarshalText normalizes type strings while decoding JSON and YAML
func (t *VariableType) UnmarshalText(b []byte) error {
	*t = ParseVariableType(string(b))
	return nil
}

// Normalize maps the zero value and aliases onto the canonical constants
func (t VariableType) Normalize() VariableType {
	return ParseVariableType(string(t))
}

// Variable is a single named element of a generated model
type Variable struct {
	Name     string       `json:"name" yaml:"name"`
	Type     VariableType `json:"type" yaml:"type"`
	Equation string       `json:"equation,omitempty" yaml:"equation,omitempty"`
	Inflows  []string     `json:"inflows,omitempty" yaml:"inflows,omitempty"`
	Outflows []string     `json:"outflows,omitempty" yaml:"outflows,omitempty"`
}

// Relationship is a directed causal edge between two variables.
// Polarity is "+", "-" or empty when the generator did not state one.
type Relationship struct {
	From     string `json:"from" yaml:"from" validate:"required"`
	To       string `json:"to" yaml:"to" validate:"required"`
	Polarity string `json:"polarity,omitempty" yaml:"polarity,omitempty" validate:"omitempty,oneof=+ -"`
}

// Specs holds simulation metadata attached to a model
type Specs struct {
	TimeUnits string `json:"timeUnits,omitempty" yaml:"timeUnits,omitempty"`
}

// Model is the generated artifact under evaluation.
// Missing collections are nil and behave as empty.
type Model struct {
	Variables     []Variable     `json:"variables" yaml:"variables"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
	Specs         *Specs         `json:"specs,omitempty" yaml:"specs,omitempty"`
}

// TimeUnits returns the declared time unit, or "" when the model has no specs
func (m Model) TimeUnits() string {
	if m.Specs == nil {
		return ""
	}
	return m.Specs.TimeUnits
}

// VariablesOfType returns the variables whose type is t, in model order
func (m Model) VariablesOfType(t VariableType) []Variable {
	var out []Variable
	for _, v := range m.Variables {
		if v.Type.Normalize() == t.Normalize() {
			out = append(out, v)
		}
	}
	return out
}

// Failure is a single discrepancy found while evaluating a model.
// An evaluation that returns no failures is a pass.
type Failure struct {
	Type    string `json:"type" yaml:"type"`
	Details string `json:"details" yaml:"details"`
}
