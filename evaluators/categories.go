package evaluators

import (
	"errors"

	"github.com/liamcoop/modelbench/model"
	"github.com/liamcoop/modelbench/scoring"
)

// Category identifiers
const (
	Translation             = "translation"
	Conformance             = "conformance"
	QuantitativeTranslation = "quantitativeTranslation"
	CausalReasoning         = "causalReasoning"
	QuantitativeReasoning   = "quantitativeReasoning"
)

func builtins() []*Evaluator {
	return []*Evaluator{
		{
			Category:    Translation,
			Description: "Compares causal relationships against a ground-truth edge list",
			Evaluate:    evaluateTranslation,
			Require:     requireRelationships,
		},
		{
			Category:    Conformance,
			Description: "Checks required variables, variable counts and feedback loop counts",
			Evaluate:    evaluateConformance,
			Require:     requireRequirements,
		},
		{
			Category:    QuantitativeTranslation,
			Description: "Checks stock initial values, flow counts, flow equations and time unit",
			Evaluate:    evaluateQuantitativeTranslation,
			Require:     requireStocks,
		},
		{
			Category:    CausalReasoning,
			Description: "Checks that every expected variable group appears in a causal model",
			Evaluate:    evaluateCausalReasoning,
			Require:     requireGroups,
		},
		{
			Category:    QuantitativeReasoning,
			Description: "Checks that every expected process appears in a stock-and-flow model",
			Evaluate:    evaluateQuantitativeReasoning,
			Require:     requireGroups,
		},
	}
}

func evaluateTranslation(m model.Model, exp model.Expectation) []model.Failure {
	return scoring.DiffRelationships(m.Relationships, exp.Relationships)
}

func evaluateConformance(m model.Model, exp model.Expectation) []model.Failure {
	if exp.Requirements == nil {
		return []model.Failure{}
	}
	return scoring.CheckRequirements(m, *exp.Requirements)
}

func evaluateQuantitativeTranslation(m model.Model, exp model.Expectation) []model.Failure {
	if exp.Quantitative == nil {
		return []model.Failure{}
	}
	return scoring.MatchQuantitative(m, *exp.Quantitative)
}

func evaluateCausalReasoning(m model.Model, exp model.Expectation) []model.Failure {
	return scoring.CheckGroups(m, exp.Groups, scoring.GroupOptions{
		FailureType: scoring.FailureMissingVariableGroup,
	})
}

// evaluateQuantitativeReasoning checks processes, then the time unit when
// the expectation names one
func evaluateQuantitativeReasoning(m model.Model, exp model.Expectation) []model.Failure {
	var agg scoring.Aggregator
	agg.Extend(scoring.CheckGroups(m, exp.Groups, scoring.GroupOptions{
		FailureType:  scoring.FailureMissingProcess,
		Quantitative: true,
	}))
	if exp.Quantitative != nil && exp.Quantitative.TimeUnit != "" {
		agg.Extend(scoring.CheckTimeUnit(m, exp.Quantitative.TimeUnit, scoring.TimeUnitContains))
	}
	return agg.Failures()
}

func requireRelationships(exp model.Expectation) error {
	if len(exp.Relationships) == 0 {
		return errors.New("relationships are required")
	}
	return nil
}

func requireRequirements(exp model.Expectation) error {
	if exp.Requirements == nil {
		return errors.New("requirements are required")
	}
	return nil
}

func requireStocks(exp model.Expectation) error {
	if exp.Quantitative == nil || len(exp.Quantitative.Stocks) == 0 {
		return errors.New("quantitative.stocks are required")
	}
	return nil
}

func requireGroups(exp model.Expectation) error {
	if len(exp.Groups) == 0 {
		return errors.New("at least one group is required")
	}
	return nil
}
