package scoring

import (
	"strings"

	"github.com/liamcoop/modelbench/model"
)

// TimeUnitMode selects how the model's time unit is compared
type TimeUnitMode int

const (
	// TimeUnitExact requires the declared unit to equal the expected one
	TimeUnitExact TimeUnitMode = iota
	// TimeUnitContains accepts any declared unit containing the expected one
	TimeUnitContains
)

// MatchQuantitative checks each expected stock's initial value, flow counts
// and flow equations, then the model's time unit.
//
// Flow specs are matched by existence only: a spec passes if any of the
// stock's actual flows classifies to it, and several specs may be satisfied
// by the same flow.
func MatchQuantitative(m model.Model, truth model.QuantitativeTruth) []model.Failure {
	var agg Aggregator
	for _, expected := range truth.Stocks {
		agg.Extend(matchStock(m, expected))
	}
	if truth.TimeUnit != "" {
		agg.Extend(CheckTimeUnit(m, truth.TimeUnit, TimeUnitExact))
	}
	return agg.Failures()
}

func matchStock(m model.Model, expected model.StockTruth) []model.Failure {
	var agg Aggregator

	stock, ok := findVariable(m.VariablesOfType(model.Stock), expected.Name)
	if !ok {
		agg.Addf(FailureMissingStock, "Failed to find a stock named %s", expected.Name)
		return agg.Failures()
	}

	if actual, ok := LiteralValue(stock.Equation); !ok || !sameNumber(actual, expected.InitialValue) {
		agg.Addf(FailureInitialValue,
			"Incorrect initial value discovered for %s. Expected %g and received %q",
			stock.Name, expected.InitialValue, stock.Equation)
	}

	if len(stock.Inflows) != len(expected.Inflows) {
		agg.Addf(FailureInflowCount,
			"Incorrect number of inflows discovered for %s. Expected %d and received %d",
			stock.Name, len(expected.Inflows), len(stock.Inflows))
	}
	if len(stock.Outflows) != len(expected.Outflows) {
		agg.Addf(FailureOutflowCount,
			"Incorrect number of outflows discovered for %s. Expected %d and received %d",
			stock.Name, len(expected.Outflows), len(stock.Outflows))
	}

	inflows := classifyFlows(m, stock.Inflows)
	for _, spec := range expected.Inflows {
		if !anyMatches(inflows, spec) {
			agg.Addf(FailureFlowSpecNotMatched,
				"Failed to find inflow of %s matching specification %s", stock.Name, spec)
		}
	}
	outflows := classifyFlows(m, stock.Outflows)
	for _, spec := range expected.Outflows {
		if !anyMatches(outflows, spec) {
			agg.Addf(FailureFlowSpecNotMatched,
				"Failed to find outflow of %s matching specification %s", stock.Name, spec)
		}
	}
	return agg.Failures()
}

// classifyFlows classifies the named flows that exist in m; names that do
// not resolve to a variable are skipped
func classifyFlows(m model.Model, names []string) []Classification {
	var out []Classification
	for _, name := range names {
		if flow, ok := findVariable(m.Variables, name); ok {
			out = append(out, ClassifyFlow(flow, m))
		}
	}
	return out
}

func anyMatches(classes []Classification, spec model.FlowSpec) bool {
	for _, c := range classes {
		if c.Matches(spec) {
			return true
		}
	}
	return false
}

func findVariable(vars []model.Variable, name string) (model.Variable, bool) {
	for _, v := range vars {
		if StrictMatch(v.Name, name) {
			return v, true
		}
	}
	return model.Variable{}, false
}

// CheckTimeUnit compares the model's declared time unit with expected.
// Comparison ignores case and surrounding whitespace.
func CheckTimeUnit(m model.Model, expected string, mode TimeUnitMode) []model.Failure {
	actual := strings.ToLower(strings.TrimSpace(m.TimeUnits()))
	want := strings.ToLower(strings.TrimSpace(expected))

	failureType := FailureTimeUnitDiscovered
	matched := actual == want
	if mode == TimeUnitContains {
		failureType = FailureTimeUnit
		matched = actual != "" && strings.Contains(actual, want)
	}
	if matched {
		return []model.Failure{}
	}

	var agg Aggregator
	if actual == "" {
		agg.Addf(failureType, "%s. Expected %s and the model declared none", failureType, expected)
	} else {
		agg.Addf(failureType, "%s. Expected %s and received %s", failureType, expected, m.TimeUnits())
	}
	return agg.Failures()
}
