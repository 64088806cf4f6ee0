// Package conditions holds the constraints candidates are tagged with.
//
// A Condition is one (qualifier, operator, value, priority) constraint. A
// ConditionSet is the full, canonically ordered set of constraints under
// which a candidate applies. Both are interned by their collectors: equal
// declarations always yield the same instance and index.
package conditions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/qualifiers"
)

// MatchOptions control partial context matching.
type MatchOptions struct {
	// PartialContextMatch accepts conditions whose qualifier is absent from the context.
	PartialContextMatch bool
}

// Condition is an interned constraint on one qualifier.
type Condition struct {
	qualifier      *qualifiers.Qualifier
	operator       common.ConditionOperator
	value          string
	priority       common.ConditionPriority
	scoreAsDefault *common.QualifierMatchScore
	index          int
	key            string
}

// Qualifier returns the constrained qualifier.
func (c *Condition) Qualifier() *qualifiers.Qualifier { return c.qualifier }

// Operator returns the comparison operator.
func (c *Condition) Operator() common.ConditionOperator { return c.operator }

// Value returns the normalized condition value.
func (c *Condition) Value() string { return c.value }

// Priority returns the condition priority.
func (c *Condition) Priority() common.ConditionPriority { return c.priority }

// ScoreAsDefault returns the score used when the context does not match, if set.
func (c *Condition) ScoreAsDefault() (common.QualifierMatchScore, bool) {
	if c.scoreAsDefault == nil {
		return common.NoMatch, false
	}
	return *c.scoreAsDefault, true
}

// Index returns the global index.
func (c *Condition) Index() int { return c.index }

// Key returns the interning key: name-[value]@priority, plus (score) for
// conditions with a default score.
func (c *Condition) Key() string { return c.key }

// Token returns the short form name=value, with @priority appended when
// the priority differs from the qualifier default.
func (c *Condition) Token() string {
	token := c.qualifier.Name() + "=" + c.value
	if c.priority != c.qualifier.DefaultPriority() {
		token += "@" + strconv.Itoa(int(c.priority))
	}
	return token
}

// String implements fmt.Stringer.
func (c *Condition) String() string { return c.key }

// Evaluate scores the condition against ctx. A missing qualifier scores NoMatch.
func (c *Condition) Evaluate(ctx qualifiers.ValidatedContext) common.QualifierMatchScore {
	value, ok := ctx.Get(c.qualifier.Name())
	if !ok {
		return common.NoMatch
	}
	return c.qualifier.Type().Matches(c.value, value, c.operator)
}

// CanMatchPartialContext reports whether the condition could match ctx.
// A present qualifier must match or the condition must carry a default
// score; an absent qualifier is acceptable only with PartialContextMatch.
func (c *Condition) CanMatchPartialContext(ctx qualifiers.ValidatedContext, opts MatchOptions) bool {
	if _, ok := ctx.Get(c.qualifier.Name()); !ok {
		return opts.PartialContextMatch
	}
	return c.Evaluate(ctx).IsMatch() || c.scoreAsDefault != nil
}

// Decl returns the declaration that reproduces c. The priority is omitted
// when it equals the qualifier default.
func (c *Condition) Decl() ConditionDecl {
	decl := ConditionDecl{
		QualifierName: c.qualifier.Name(),
		Value:         c.value,
	}
	if c.priority != c.qualifier.DefaultPriority() {
		p := int(c.priority)
		decl.Priority = &p
	}
	if c.scoreAsDefault != nil {
		s := float64(*c.scoreAsDefault)
		decl.ScoreAsDefault = &s
	}
	return decl
}

// CompareConditions orders conditions canonically: priority descending,
// then qualifier name, value and default score.
func CompareConditions(a, b *Condition) int {
	if a.priority != b.priority {
		if a.priority > b.priority {
			return -1
		}
		return 1
	}
	if n := strings.Compare(a.qualifier.Name(), b.qualifier.Name()); n != 0 {
		return n
	}
	if n := strings.Compare(a.value, b.value); n != 0 {
		return n
	}
	switch {
	case a.scoreAsDefault == nil && b.scoreAsDefault == nil:
		return 0
	case a.scoreAsDefault == nil:
		return -1
	case b.scoreAsDefault == nil:
		return 1
	case *a.scoreAsDefault < *b.scoreAsDefault:
		return -1
	case *a.scoreAsDefault > *b.scoreAsDefault:
		return 1
	}
	return 0
}

func conditionKey(qualifier, value string, priority common.ConditionPriority, scoreAsDefault *common.QualifierMatchScore) string {
	key := fmt.Sprintf("%s-[%s]@%d", qualifier, value, priority)
	if scoreAsDefault != nil {
		key += "(" + strconv.FormatFloat(float64(*scoreAsDefault), 'f', -1, 64) + ")"
	}
	return key
}
