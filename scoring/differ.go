package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/liamcoop/modelbench/model"
)

// RelationshipKey renders a relationship as "{from} --> ({polarity}) {to}"
func RelationshipKey(r model.Relationship) string {
	return fmt.Sprintf("%s --> (%s) %s", r.From, r.Polarity, r.To)
}

// normalizeRelationships copies rels keeping only the compared fields,
// sorted by RelationshipKey
func normalizeRelationships(rels []model.Relationship) []model.Relationship {
	out := make([]model.Relationship, 0, len(rels))
	for _, r := range rels {
		out = append(out, model.Relationship{
			From:     strings.TrimSpace(r.From),
			To:       strings.TrimSpace(r.To),
			Polarity: strings.TrimSpace(r.Polarity),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return RelationshipKey(out[i]) < RelationshipKey(out[j])
	})
	return out
}

func sameEndpoints(a, b model.Relationship) bool {
	return StrictMatch(a.From, b.From) && StrictMatch(a.To, b.To)
}

func findEndpoints(rels []model.Relationship, target model.Relationship) (model.Relationship, bool) {
	for _, r := range rels {
		if sameEndpoints(r, target) {
			return r, true
		}
	}
	return model.Relationship{}, false
}

// DiffRelationships compares generated relationships against the ground truth.
//
// Endpoints are compared case-insensitively and polarity is ignored while
// deciding which edges are fake or missing. Ground-truth edges that were found
// then have their polarity checked. Failures come out as fake, missing, then
// one polarity failure per mismatched edge in ground-truth order.
func DiffRelationships(generated, truth []model.Relationship) []model.Failure {
	gen := normalizeRelationships(generated)
	gt := normalizeRelationships(truth)

	var added, missing []model.Relationship
	for _, g := range gen {
		if _, ok := findEndpoints(gt, g); !ok {
			added = append(added, g)
		}
	}
	for _, t := range gt {
		if _, ok := findEndpoints(gen, t); !ok {
			missing = append(missing, t)
		}
	}

	var agg Aggregator
	if len(added) > 0 {
		agg.Add(FailureFakeRelationships, diffDetails(FailureFakeRelationships, added, gt))
	}
	if len(missing) > 0 {
		agg.Add(FailureMissingRelationship, diffDetails(FailureMissingRelationship, missing, gt))
	}
	for _, t := range gt {
		g, ok := findEndpoints(gen, t)
		if !ok || g.Polarity == t.Polarity {
			continue
		}
		agg.Addf(FailureIncorrectPolarity,
			"Incorrect polarity discovered. Expected %s and received %s",
			RelationshipKey(t), RelationshipKey(g))
	}
	return agg.Failures()
}

func diffDetails(heading string, found, truth []model.Relationship) string {
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(joinKeys(found))
	b.WriteString("\nGround Truth\n")
	b.WriteString(joinKeys(truth))
	return b.String()
}

func joinKeys(rels []model.Relationship) string {
	keys := make([]string, len(rels))
	for i, r := range rels {
		keys[i] = RelationshipKey(r)
	}
	return strings.Join(keys, "\n")
}
