package scoring

import (
	"strings"
	"testing"

	"github.com/liamcoop/modelbench/model"
)

func intPtr(i int) *int { return &i }

// TestCheckRequirements_TooFewVariables verifies the variable count message
func TestCheckRequirements_TooFewVariables(t *testing.T) {
	m := model.Model{Relationships: rels("A", "B", "B", "C")}

	got := CheckRequirements(m, model.Requirements{MinVariables: intPtr(5)})
	if len(got) != 1 {
		t.Fatalf("CheckRequirements() returned %d failures, want 1: %v", len(got), got)
	}
	if got[0].Type != FailureTooFewVariables {
		t.Errorf("Type = %q, want %q", got[0].Type, FailureTooFewVariables)
	}
	if !strings.Contains(got[0].Details, "Found 3 variables") {
		t.Errorf("Details should mention 'Found 3 variables', got: %s", got[0].Details)
	}
}

// TestCheckRequirements_Bounds verifies each bound independently
func TestCheckRequirements_Bounds(t *testing.T) {
	// 4 variables, 1 feedback loop
	m := model.Model{Relationships: rels("A", "B", "B", "A", "B", "C", "C", "D")}

	tests := []struct {
		name string
		req  model.Requirements
		want []string
	}{
		{"no bounds", model.Requirements{}, nil},
		{"within bounds", model.Requirements{
			MinVariables: intPtr(4), MaxVariables: intPtr(4),
			MinFeedback: intPtr(1), MaxFeedback: intPtr(1),
		}, nil},
		{"too many variables", model.Requirements{MaxVariables: intPtr(3)}, []string{FailureTooManyVariables}},
		{"too few loops", model.Requirements{MinFeedback: intPtr(2)}, []string{FailureTooFewLoops}},
		{"too many loops", model.Requirements{MaxFeedback: intPtr(0)}, []string{FailureTooManyLoops}},
		{"all violated in order", model.Requirements{
			Variables:    []string{"E"},
			MinVariables: intPtr(10),
			MaxFeedback:  intPtr(0),
		}, []string{FailureMissingVariable, FailureTooFewVariables, FailureTooManyLoops}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := failureTypes(CheckRequirements(m, tt.req))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("failure types = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCheckRequirements_RequiredVariables verifies presence checks ignore case
func TestCheckRequirements_RequiredVariables(t *testing.T) {
	m := model.Model{Relationships: rels("Population", "Births", "Births", "Population")}

	got := CheckRequirements(m, model.Requirements{Variables: []string{"population", "deaths"}})
	if len(got) != 1 {
		t.Fatalf("CheckRequirements() returned %d failures, want 1: %v", len(got), got)
	}
	if !strings.Contains(got[0].Details, "deaths") {
		t.Errorf("Details should name the missing variable, got: %s", got[0].Details)
	}
	if !strings.Contains(got[0].Details, "Population, Births") {
		t.Errorf("Details should list the variables found, got: %s", got[0].Details)
	}
}

// TestCheckRequirements_EmptyModel verifies an empty model reports failures instead of panicking
func TestCheckRequirements_EmptyModel(t *testing.T) {
	got := CheckRequirements(model.Model{}, model.Requirements{
		Variables:    []string{"A"},
		MinVariables: intPtr(1),
		MinFeedback:  intPtr(1),
	})

	want := []string{FailureMissingVariable, FailureTooFewVariables, FailureTooFewLoops}
	if strings.Join(failureTypes(got), "|") != strings.Join(want, "|") {
		t.Errorf("failure types = %v, want %v", failureTypes(got), want)
	}
}
