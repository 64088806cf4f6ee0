package resources

import (
	"fmt"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/decisions"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/resourcetypes"
)

// Collectors groups the interning collectors one manager owns. Builders
// and candidates created through the same Collectors share indices.
type Collectors struct {
	Qualifiers    *qualifiers.Collector
	ResourceTypes *resourcetypes.Collector
	Conditions    *conditions.ConditionCollector
	ConditionSets *conditions.ConditionSetCollector
	Decisions     *decisions.Collector
}

// NewCollectors creates empty condition, condition set and decision
// collectors over the given qualifiers and resource types.
func NewCollectors(qs *qualifiers.Collector, rts *resourcetypes.Collector) *Collectors {
	cc := conditions.NewConditionCollector(qs)
	return &Collectors{
		Qualifiers:    qs,
		ResourceTypes: rts,
		Conditions:    cc,
		ConditionSets: conditions.NewConditionSetCollector(cc),
		Decisions:     decisions.NewCollector(),
	}
}

// ResourceType looks up a resource type by name. An empty name yields nil.
func (c *Collectors) ResourceType(name string) (*resourcetypes.ResourceType, error) {
	if name == "" {
		return nil, nil
	}
	rt, err := c.ResourceTypes.Get(name)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// NewCandidate interns decl's conditions and builds a candidate.
func (c *Collectors) NewCandidate(decl CandidateDecl) (*Candidate, error) {
	rt, err := c.ResourceType(decl.ResourceTypeName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", decl.ID, err)
	}
	cs, err := c.ConditionSets.GetOrAdd(decl.Conditions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", decl.ID, err)
	}
	if decl.JSON == nil {
		return nil, common.Detailf(common.DetailInvalid, "%s: candidate has no json value", decl.ID)
	}
	return NewCandidate(CandidateParams{
		ID:           decl.ID,
		Value:        decl.JSON,
		ConditionSet: cs,
		IsPartial:    decl.IsPartial,
		MergeMethod:  decl.MergeMethod,
		ResourceType: rt,
	})
}
