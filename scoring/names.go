package scoring

import "strings"

// NameMatcher decides whether two variable names refer to the same thing.
// Implementations must be symmetric and free of side effects.
type NameMatcher func(a, b string) bool

// StrictMatch treats names as equal when they differ only in letter case
func StrictMatch(a, b string) bool {
	return strings.EqualFold(a, b)
}

// FuzzyMatch compares names as concepts: case, whitespace, hyphens and
// underscores are ignored and the shorter name only has to appear inside
// the longer one ("experienced" matches "experienced_staff_burnout").
func FuzzyMatch(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if len(na) > len(nb) {
		na, nb = nb, na
	}
	if na == "" {
		return nb == ""
	}
	return strings.Contains(nb, na)
}

var nameNoise = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "-", "", "_", "")

func normalizeName(s string) string {
	return nameNoise.Replace(strings.ToLower(s))
}

// containsName reports whether any of names matches name under match
func containsName(names []string, name string, match NameMatcher) bool {
	for _, n := range names {
		if match(n, name) {
			return true
		}
	}
	return false
}
