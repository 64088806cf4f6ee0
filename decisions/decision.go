// Package decisions shares condition-set groupings across resources.
//
// An AbstractDecision is the ordered list of condition sets a resource's
// candidates are tagged with. Resources whose candidates use the same
// condition sets in the same order share one decision, so a resolver
// evaluates it once per context for all of them.
package decisions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/willibrandon/gores/collections"
	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
)

// EmptyKey is the key of a decision with no condition sets.
const EmptyKey = "(empty)"

// ErrCandidateCount indicates a concrete decision whose candidates do not
// line up with its condition sets.
var ErrCandidateCount = errors.New("candidate count does not match decision")

// AbstractDecision is an ordered list of condition sets.
type AbstractDecision struct {
	conditionSets []*conditions.ConditionSet
	key           string
	index         int
}

// NewAbstractDecision creates a decision that belongs to no collector. Its
// Index is -1.
func NewAbstractDecision(sets []*conditions.ConditionSet) *AbstractDecision {
	return &AbstractDecision{conditionSets: sets, key: decisionKey(sets), index: -1}
}

// ConditionSets returns the condition sets in candidate order.
func (d *AbstractDecision) ConditionSets() []*conditions.ConditionSet {
	out := make([]*conditions.ConditionSet, len(d.conditionSets))
	copy(out, d.conditionSets)
	return out
}

// Len returns the number of condition sets.
func (d *AbstractDecision) Len() int { return len(d.conditionSets) }

// Key returns the condition set indices joined by "+", or EmptyKey.
func (d *AbstractDecision) Key() string { return d.key }

// Index returns the global index, or -1 for a decision outside any collector.
func (d *AbstractDecision) Index() int { return d.index }

// String implements fmt.Stringer.
func (d *AbstractDecision) String() string { return d.key }

func decisionKey(sets []*conditions.ConditionSet) string {
	if len(sets) == 0 {
		return EmptyKey
	}
	parts := make([]string, len(sets))
	for i, cs := range sets {
		parts[i] = strconv.Itoa(cs.Index())
	}
	return strings.Join(parts, "+")
}

// Candidate is the payload attached to one position of a concrete decision.
type Candidate struct {
	Value       map[string]any
	IsPartial   bool
	MergeMethod common.MergeMethod
}

// ConcreteDecision pairs an abstract decision with one candidate per condition set.
type ConcreteDecision struct {
	decision   *AbstractDecision
	candidates []Candidate
}

// NewConcreteDecision binds candidates to decision positionally.
func NewConcreteDecision(decision *AbstractDecision, candidates []Candidate) (*ConcreteDecision, error) {
	if len(candidates) != decision.Len() {
		return nil, fmt.Errorf("%w: %d candidates for %d condition sets", ErrCandidateCount, len(candidates), decision.Len())
	}
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	return &ConcreteDecision{decision: decision, candidates: out}, nil
}

// Decision returns the abstract decision.
func (cd *ConcreteDecision) Decision() *AbstractDecision { return cd.decision }

// Candidates returns the candidate payloads in decision order.
func (cd *ConcreteDecision) Candidates() []Candidate {
	out := make([]Candidate, len(cd.candidates))
	copy(out, cd.candidates)
	return out
}

// Collector interns abstract decisions.
type Collector struct {
	decisions *collections.Collector[*AbstractDecision]
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{decisions: collections.NewCollector[*AbstractDecision]("decisions")}
}

// GetOrAdd returns the interned decision for sets. Every set must already
// be interned in a condition set collector.
func (c *Collector) GetOrAdd(sets []*conditions.ConditionSet) (*AbstractDecision, error) {
	for _, cs := range sets {
		if cs.Index() < 0 {
			return nil, common.Detailf(common.DetailInvalid, "decision: condition set %s has no index", cs.Key())
		}
	}
	key := decisionKey(sets)
	d, _, err := c.decisions.GetOrAdd(key, func(index int) (*AbstractDecision, error) {
		owned := make([]*conditions.ConditionSet, len(sets))
		copy(owned, sets)
		return &AbstractDecision{conditionSets: owned, key: key, index: index}, nil
	})
	return d, err
}

// GetOrAddIndices returns the interned decision over the condition sets at
// the given indices of csc.
func (c *Collector) GetOrAddIndices(csc *conditions.ConditionSetCollector, indices []int) (*AbstractDecision, error) {
	sets := make([]*conditions.ConditionSet, 0, len(indices))
	for _, i := range indices {
		cs, err := csc.GetAt(i)
		if err != nil {
			return nil, fmt.Errorf("decision: %w", err)
		}
		sets = append(sets, cs)
	}
	return c.GetOrAdd(sets)
}

// Get returns the decision with the given key.
func (c *Collector) Get(key string) (*AbstractDecision, bool) {
	return c.decisions.Get(key)
}

// GetAt returns the decision at index.
func (c *Collector) GetAt(index int) (*AbstractDecision, error) {
	return c.decisions.GetAt(index)
}

// Len returns the number of decisions.
func (c *Collector) Len() int { return c.decisions.Len() }

// Values returns the decisions in index order.
func (c *Collector) Values() []*AbstractDecision { return c.decisions.Values() }
