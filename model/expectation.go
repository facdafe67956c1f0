package model

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Expectation is the ground truth a generated model is scored against.
// Each benchmark category reads exactly one of the shapes below.
type Expectation struct {
	// Relationships is the ground-truth causal edge list for translation tests
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty" validate:"dive"`

	// Requirements is the instruction bundle for conformance tests
	Requirements *Requirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`

	// Groups lists the variable groups or processes for reasoning tests
	Groups []Group `json:"groups,omitempty" yaml:"groups,omitempty" validate:"dive"`

	// Quantitative is the stock-and-flow ground truth for quantitative tests
	Quantitative *QuantitativeTruth `json:"quantitative,omitempty" yaml:"quantitative,omitempty"`
}

// Requirements constrains the shape of a generated causal model.
// Nil bounds are not checked.
type Requirements struct {
	Variables    []string `json:"variables,omitempty" yaml:"variables,omitempty" validate:"dive,required"`
	MinVariables *int     `json:"minVariables,omitempty" yaml:"minVariables,omitempty" validate:"omitnil,gte=0"`
	MaxVariables *int     `json:"maxVariables,omitempty" yaml:"maxVariables,omitempty" validate:"omitnil,gte=0"`
	MinFeedback  *int     `json:"minFeedback,omitempty" yaml:"minFeedback,omitempty" validate:"omitnil,gte=0"`
	MaxFeedback  *int     `json:"maxFeedback,omitempty" yaml:"maxFeedback,omitempty" validate:"omitnil,gte=0"`
}

// Group is a named process or variable group that a reasoning answer must contain
type Group struct {
	Name                  string                 `json:"name" yaml:"name" validate:"required"`
	RequiredVariables     []RequiredVariable     `json:"requiredVariables,omitempty" yaml:"requiredVariables,omitempty" validate:"dive"`
	RequiredStocks        []string               `json:"requiredStocks,omitempty" yaml:"requiredStocks,omitempty" validate:"dive,required"`
	RequiredFlows         []string               `json:"requiredFlows,omitempty" yaml:"requiredFlows,omitempty" validate:"dive,required"`
	RequiredRelationships []RequiredRelationship `json:"requiredRelationships,omitempty" yaml:"requiredRelationships,omitempty" validate:"dive"`
}

// IsEmpty reports whether the group declares no requirements at all
func (g Group) IsEmpty() bool {
	return len(g.RequiredVariables) == 0 && len(g.RequiredStocks) == 0 &&
		len(g.RequiredFlows) == 0 && len(g.RequiredRelationships) == 0
}

// RequiredVariable is a concept label, optionally restricted to one variable type.
// It decodes from either a bare string or a {name, type} object.
type RequiredVariable struct {
	Name string       `json:"name" yaml:"name" validate:"required"`
	Type VariableType `json:"type,omitempty" yaml:"type,omitempty"`
}

type requiredVariableFields struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

func (r *RequiredVariable) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = RequiredVariable{Name: name}
		return nil
	}

	var fields requiredVariableFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("required variable must be a string or {name, type}: %w", err)
	}
	*r = fromFields(fields)
	return nil
}

func (r *RequiredVariable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*r = RequiredVariable{Name: node.Value}
		return nil
	}

	var fields requiredVariableFields
	if err := node.Decode(&fields); err != nil {
		return fmt.Errorf("required variable must be a string or {name, type}: %w", err)
	}
	*r = fromFields(fields)
	return nil
}

func fromFields(f requiredVariableFields) RequiredVariable {
	rv := RequiredVariable{Name: f.Name}
	if f.Type != "" {
		rv.Type = ParseVariableType(f.Type)
	}
	return rv
}

// RequiredRelationship is an edge a reasoning answer must contain.
// An empty Polarity matches either sign.
type RequiredRelationship struct {
	From     string `json:"from" yaml:"from" validate:"required"`
	To       string `json:"to" yaml:"to" validate:"required"`
	Polarity string `json:"polarity,omitempty" yaml:"polarity,omitempty" validate:"omitempty,oneof=+ -"`
}

// QuantitativeTruth describes the expected stocks of a stock-and-flow model
type QuantitativeTruth struct {
	TimeUnit string       `json:"timeUnit,omitempty" yaml:"timeUnit,omitempty"`
	Stocks   []StockTruth `json:"stocks,omitempty" yaml:"stocks,omitempty" validate:"dive"`
}

// StockTruth is the expected initial value and flows of one stock
type StockTruth struct {
	Name         string     `json:"name" yaml:"name" validate:"required"`
	InitialValue float64    `json:"initialValue" yaml:"initialValue"`
	Inflows      []FlowSpec `json:"inflows,omitempty" yaml:"inflows,omitempty" validate:"dive"`
	Outflows     []FlowSpec `json:"outflows,omitempty" yaml:"outflows,omitempty" validate:"dive"`
}

// FlowSpec is either a constant flow ({fixed}) or a flow proportional to a stock ({rate, of})
type FlowSpec struct {
	Fixed *float64 `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Rate  *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Of    string   `json:"of,omitempty" yaml:"of,omitempty" validate:"required_with=Rate"`
}

// String renders the spec the way it appears in failure details
func (f FlowSpec) String() string {
	switch {
	case f.Fixed != nil:
		return fmt.Sprintf("fixed %g", *f.Fixed)
	case f.Rate != nil:
		return fmt.Sprintf("rate %g of %s", *f.Rate, f.Of)
	default:
		return "unspecified flow"
	}
}
