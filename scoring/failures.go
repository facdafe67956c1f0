package scoring

import (
	"fmt"

	"github.com/liamcoop/modelbench/model"
)

// Failure types reported by the engine
const (
	FailureFakeRelationships   = "Fake relationships found"
	FailureMissingRelationship = "Real relationships not found"
	FailureIncorrectPolarity   = "Incorrect polarity discovered"

	FailureMissingVariable  = "Missing required variable"
	FailureTooFewVariables  = "Too few variables"
	FailureTooManyVariables = "Too many variables"
	FailureTooFewLoops      = "Too few feedback loops"
	FailureTooManyLoops     = "Too many feedback loops"

	FailureMissingProcess       = "Missing key process"
	FailureMissingVariableGroup = "Missing key variable group"
	FailureNoVariables          = "No variables found"
	FailureNoRelationships      = "No causal relationships found"
	FailureNoStocks             = "No stocks found"
	FailureNoFlows              = "No flows found"

	FailureMissingStock       = "Failed to find stock"
	FailureInitialValue       = "Incorrect initial value discovered"
	FailureInflowCount        = "Incorrect number of inflows discovered"
	FailureOutflowCount       = "Incorrect number of outflows discovered"
	FailureFlowSpecNotMatched = "Failed to find flow matching specification"
	FailureTimeUnitDiscovered = "Incorrect time unit discovered"
	FailureTimeUnit           = "Incorrect time unit"
)

// Aggregator collects failures in the order checks report them.
// The zero value is ready to use.
type Aggregator struct {
	failures []model.Failure
}

// Add records one failure
func (a *Aggregator) Add(failureType, details string) {
	a.failures = append(a.failures, model.Failure{Type: failureType, Details: details})
}

// Addf records one failure with formatted details
func (a *Aggregator) Addf(failureType, format string, args ...any) {
	a.Add(failureType, fmt.Sprintf(format, args...))
}

// Extend appends failures produced by another check
func (a *Aggregator) Extend(failures []model.Failure) {
	a.failures = append(a.failures, failures...)
}

// Len returns the number of failures collected so far
func (a *Aggregator) Len() int {
	return len(a.failures)
}

// Failures returns a copy of the collected failures, never nil
func (a *Aggregator) Failures() []model.Failure {
	out := make([]model.Failure, len(a.failures))
	copy(out, a.failures)
	return out
}
