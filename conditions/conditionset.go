package conditions

import (
	"strings"

	"github.com/willibrandon/gores/qualifiers"
)

// UnconditionalKey is the key of the empty condition set.
const UnconditionalKey = "(unconditional)"

// ConditionSet is an interned, canonically ordered set of conditions with at
// most one condition per qualifier.
type ConditionSet struct {
	conditions []*Condition
	key        string
	index      int
}

// Conditions returns the conditions in canonical order.
func (cs *ConditionSet) Conditions() []*Condition {
	out := make([]*Condition, len(cs.conditions))
	copy(out, cs.conditions)
	return out
}

// Len returns the number of conditions.
func (cs *ConditionSet) Len() int { return len(cs.conditions) }

// IsUnconditional reports whether the set is empty.
func (cs *ConditionSet) IsUnconditional() bool { return len(cs.conditions) == 0 }

// Key returns the condition keys joined by "+", or UnconditionalKey.
func (cs *ConditionSet) Key() string { return cs.key }

// Index returns the global index.
func (cs *ConditionSet) Index() int { return cs.index }

// Token returns the condition tokens joined by ",". The unconditional set
// has an empty token.
func (cs *ConditionSet) Token() string {
	tokens := make([]string, len(cs.conditions))
	for i, c := range cs.conditions {
		tokens[i] = c.Token()
	}
	return strings.Join(tokens, ",")
}

// String implements fmt.Stringer.
func (cs *ConditionSet) String() string { return cs.key }

// Decl returns the declaration that reproduces cs.
func (cs *ConditionSet) Decl() ConditionSetDecl {
	decl := make(ConditionSetDecl, len(cs.conditions))
	for i, c := range cs.conditions {
		decl[i] = c.Decl()
	}
	return decl
}

// Reduce returns the declaration of cs without the conditions on the named qualifiers.
func (cs *ConditionSet) Reduce(qualifierNames []string) ConditionSetDecl {
	drop := make(map[string]bool, len(qualifierNames))
	for _, name := range qualifierNames {
		drop[name] = true
	}
	decl := make(ConditionSetDecl, 0, len(cs.conditions))
	for _, c := range cs.conditions {
		if !drop[c.qualifier.Name()] {
			decl = append(decl, c.Decl())
		}
	}
	return decl
}

// CanMatchPartialContext reports whether every condition can match ctx.
func (cs *ConditionSet) CanMatchPartialContext(ctx qualifiers.ValidatedContext, opts MatchOptions) bool {
	for _, c := range cs.conditions {
		if !c.CanMatchPartialContext(ctx, opts) {
			return false
		}
	}
	return true
}

// CompareConditionSets orders condition sets from most to least specific.
// Conditions are compared pairwise with higher priority first, then the
// longer set wins, then keys break the tie.
func CompareConditionSets(a, b *ConditionSet) int {
	n := min(len(a.conditions), len(b.conditions))
	for i := range n {
		pa, pb := a.conditions[i].priority, b.conditions[i].priority
		if pa != pb {
			if pa > pb {
				return -1
			}
			return 1
		}
	}
	if len(a.conditions) != len(b.conditions) {
		if len(a.conditions) > len(b.conditions) {
			return -1
		}
		return 1
	}
	return strings.Compare(a.key, b.key)
}

func conditionSetKey(sorted []*Condition) string {
	if len(sorted) == 0 {
		return UnconditionalKey
	}
	keys := make([]string, len(sorted))
	for i, c := range sorted {
		keys[i] = c.key
	}
	return strings.Join(keys, "+")
}
