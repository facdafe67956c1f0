package scoring

import "testing"

// TestStrictMatch verifies names match regardless of case only
func TestStrictMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Population", "population", true},
		{"BIRTHS", "births", true},
		{"birth rate", "birth_rate", false},
		{"experienced", "experienced_staff", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := StrictMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("StrictMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := StrictMatch(tt.b, tt.a); got != tt.want {
				t.Errorf("StrictMatch(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

// TestFuzzyMatch verifies normalization and bidirectional containment
func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"experienced", "experienced_staff_burnout", true},
		{"taxation", "sentiment", false},
		{"Birth Rate", "birth_rate", true},
		{"birth-rate", "BirthRate", true},
		{"susceptible", "susceptible_population", true},
		{"exposed", "susceptible_population", false},
		{"policy interventions", "Government Policy Interventions", true},
		{"", "anything", false},
		{"-", "population", false},
		{"population", " _ ", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := FuzzyMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Argument order must not matter
			if got := FuzzyMatch(tt.b, tt.a); got != tt.want {
				t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
