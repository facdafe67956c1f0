package scoring

import (
	"fmt"
	"strings"

	"github.com/liamcoop/modelbench/model"
)

// GroupOptions selects the wording and baseline checks of a group evaluation
type GroupOptions struct {
	// FailureType is reported once per group with unmet requirements
	FailureType string

	// Quantitative switches the baseline checks from variables and
	// relationships to stocks and flows
	Quantitative bool
}

// CheckGroups verifies that every declared group is present in the model
// using FuzzyMatch throughout. Baseline structural failures come first,
// followed by one failure per group that has any unmet requirement.
func CheckGroups(m model.Model, groups []model.Group, opts GroupOptions) []model.Failure {
	var agg Aggregator

	if opts.Quantitative {
		if len(m.VariablesOfType(model.Stock)) == 0 {
			agg.Add(FailureNoStocks, "The model contains no stocks")
		}
		if len(m.VariablesOfType(model.Flow)) == 0 {
			agg.Add(FailureNoFlows, "The model contains no flows")
		}
	} else {
		if len(modelNames(m)) == 0 {
			agg.Add(FailureNoVariables, "The model contains no variables")
		}
		if len(m.Relationships) == 0 {
			agg.Add(FailureNoRelationships, "The model contains no causal relationships")
		}
	}

	for _, g := range groups {
		if unmet := unmetRequirements(m, g); len(unmet) > 0 {
			agg.Addf(opts.FailureType, "%s is missing %s", g.Name, strings.Join(unmet, "; "))
		}
	}
	return agg.Failures()
}

// modelNames lists declared variable names followed by relationship endpoints
// that were never declared. Causal diagrams often carry names only on edges.
func modelNames(m model.Model) []string {
	var names []string
	for _, v := range m.Variables {
		names = append(names, v.Name)
	}
	for _, n := range VariableSet(m.Relationships) {
		if !containsName(names, n, StrictMatch) {
			names = append(names, n)
		}
	}
	return names
}

// unmetRequirements returns one "category: item, item" entry per category
// with missing items, in the order variables, stocks, flows, relationships
func unmetRequirements(m model.Model, g model.Group) []string {
	var unmet []string

	var vars []string
	for _, rv := range g.RequiredVariables {
		if !hasVariable(m, rv.Name, rv.Type) {
			vars = append(vars, rv.Name)
		}
	}
	unmet = appendCategory(unmet, "variables", vars)

	var stocks []string
	for _, name := range g.RequiredStocks {
		if !hasVariable(m, name, model.Stock) {
			stocks = append(stocks, name)
		}
	}
	unmet = appendCategory(unmet, "stocks", stocks)

	var flows []string
	for _, name := range g.RequiredFlows {
		if !hasVariable(m, name, model.Flow) {
			flows = append(flows, name)
		}
	}
	unmet = appendCategory(unmet, "flows", flows)

	var rels []string
	for _, rr := range g.RequiredRelationships {
		if desc, ok := relationshipUnmet(m.Relationships, rr); ok {
			rels = append(rels, desc)
		}
	}
	unmet = appendCategory(unmet, "relationships", rels)

	return unmet
}

func appendCategory(unmet []string, category string, items []string) []string {
	if len(items) == 0 {
		return unmet
	}
	return append(unmet, fmt.Sprintf("%s: %s", category, strings.Join(items, ", ")))
}

// hasVariable reports whether a variable fuzzily named label exists. An
// empty typ accepts any variable, including undeclared relationship endpoints.
func hasVariable(m model.Model, label string, typ model.VariableType) bool {
	if typ == "" {
		return containsName(modelNames(m), label, FuzzyMatch)
	}
	for _, v := range m.VariablesOfType(typ) {
		if FuzzyMatch(v.Name, label) {
			return true
		}
	}
	return false
}

// relationshipUnmet describes rr when no relationship satisfies it. The
// polarity is only shown when matching edges exist but carry the wrong sign.
func relationshipUnmet(rels []model.Relationship, rr model.RequiredRelationship) (string, bool) {
	endpointsFound := false
	for _, r := range rels {
		if !FuzzyMatch(r.From, rr.From) || !FuzzyMatch(r.To, rr.To) {
			continue
		}
		if rr.Polarity == "" || strings.TrimSpace(r.Polarity) == rr.Polarity {
			return "", false
		}
		endpointsFound = true
	}

	desc := fmt.Sprintf("%s → %s", rr.From, rr.To)
	if endpointsFound {
		desc += fmt.Sprintf(" (%s)", rr.Polarity)
	}
	return desc, true
}
