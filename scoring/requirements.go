package scoring

import (
	"strings"

	"github.com/liamcoop/modelbench/model"
)

// CheckRequirements validates a generated causal model against instruction
// bounds. The variable set is the set of relationship endpoints and the loop
// count comes from CountFeedbackLoops. Each bound that is present produces at
// most one failure; required variables are checked first, one failure each.
func CheckRequirements(m model.Model, req model.Requirements) []model.Failure {
	variables := VariableSet(m.Relationships)
	loops := CountFeedbackLoops(NewGraphIndex(m.Relationships))

	var agg Aggregator
	for _, required := range req.Variables {
		if !containsName(variables, required, StrictMatch) {
			agg.Addf(FailureMissingVariable,
				"The model is missing the required variable %s. Found variables: %s",
				required, describeNames(variables))
		}
	}

	count := len(variables)
	if req.MinVariables != nil && count < *req.MinVariables {
		agg.Addf(FailureTooFewVariables,
			"Found %d variables, expected at least %d", count, *req.MinVariables)
	}
	if req.MaxVariables != nil && count > *req.MaxVariables {
		agg.Addf(FailureTooManyVariables,
			"Found %d variables, expected at most %d", count, *req.MaxVariables)
	}
	if req.MinFeedback != nil && loops < *req.MinFeedback {
		agg.Addf(FailureTooFewLoops,
			"Found %d feedback loops, expected at least %d", loops, *req.MinFeedback)
	}
	if req.MaxFeedback != nil && loops > *req.MaxFeedback {
		agg.Addf(FailureTooManyLoops,
			"Found %d feedback loops, expected at most %d", loops, *req.MaxFeedback)
	}
	return agg.Failures()
}

func describeNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
