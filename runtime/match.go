package runtime

import (
	"cmp"

	"github.com/willibrandon/gores/common"
)

// MatchType classifies how a condition, condition set or candidate
// relates to a context.
type MatchType int

const (
	// NoMatch means the context rules the candidate out.
	NoMatch MatchType = iota
	// DefaultMatch means at least one condition only matched through its default score.
	DefaultMatch
	// Match means every condition matched the context.
	Match
)

// String implements fmt.Stringer.
func (t MatchType) String() string {
	switch t {
	case Match:
		return "match"
	case DefaultMatch:
		return "default"
	default:
		return "no_match"
	}
}

// ConditionMatch is the cached result of evaluating one condition.
type ConditionMatch struct {
	Type     MatchType
	Priority common.ConditionPriority
	Score    common.QualifierMatchScore
}

// ConditionSetMatch is the cached result of evaluating one condition set.
// Conditions holds one entry per condition in canonical order.
type ConditionSetMatch struct {
	Type       MatchType
	Conditions []ConditionMatch
}

// compareSetMatches orders matching condition sets best first: full
// matches before default matches, then condition by condition by
// priority and score, then the longer set.
func compareSetMatches(a, b *ConditionSetMatch) int {
	if a.Type != b.Type {
		return cmp.Compare(b.Type, a.Type)
	}
	n := min(len(a.Conditions), len(b.Conditions))
	for i := range n {
		ca, cb := a.Conditions[i], b.Conditions[i]
		if ca.Priority != cb.Priority {
			return cmp.Compare(cb.Priority, ca.Priority)
		}
		if ca.Score != cb.Score {
			return cmp.Compare(cb.Score, ca.Score)
		}
	}
	return cmp.Compare(len(b.Conditions), len(a.Conditions))
}
