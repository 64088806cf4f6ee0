package resources

import (
	"fmt"
	"slices"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/decisions"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/resourcetypes"
)

// ResourceParams describe a new resource.
type ResourceParams struct {
	ID string
	// ResourceType is optional when a candidate declares one.
	ResourceType *resourcetypes.ResourceType
	Candidates   []*Candidate
	// Decisions interns the resource's decision. When nil the decision has no index.
	Decisions *decisions.Collector
}

// Resource is a validated, built set of candidates for one id, sorted from
// most to least specific.
type Resource struct {
	id           string
	resourceType *resourcetypes.ResourceType
	candidates   []*Candidate
	decision     *decisions.ConcreteDecision
}

// NewResource validates the candidates and computes the resource decision.
// Equal duplicates collapse into one candidate; differing candidates for
// the same condition set fail with DetailExists.
func NewResource(params ResourceParams) (*Resource, error) {
	if err := common.ValidateResourceID(params.ID); err != nil {
		return nil, common.WithDetail(common.DetailInvalid, err)
	}
	if len(params.Candidates) == 0 {
		return nil, common.Detailf(common.DetailInvalid, "%s: resource has no candidates", params.ID)
	}

	rt := params.ResourceType
	bySet := make(map[*conditions.ConditionSet]*Candidate, len(params.Candidates))
	candidates := make([]*Candidate, 0, len(params.Candidates))
	for _, c := range params.Candidates {
		if c.id != params.ID {
			return nil, common.Detailf(common.DetailIDMismatch, "%s: candidate belongs to %s", params.ID, c.id)
		}
		var err error
		if rt, err = mergeResourceType(params.ID, rt, c.resourceType); err != nil {
			return nil, err
		}
		if existing, ok := bySet[c.conditionSet]; ok {
			if !existing.Equal(c) {
				return nil, conflictError(params.ID, c)
			}
			continue
		}
		bySet[c.conditionSet] = c
		candidates = append(candidates, c)
	}
	if rt == nil {
		return nil, common.Detailf(common.DetailInvalid, "%s: no resource type could be resolved", params.ID)
	}

	slices.SortStableFunc(candidates, CompareCandidates)

	decision, err := newConcreteDecision(candidates, params.Decisions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", params.ID, err)
	}

	return &Resource{
		id:           params.ID,
		resourceType: rt,
		candidates:   candidates,
		decision:     decision,
	}, nil
}

func newConcreteDecision(candidates []*Candidate, collector *decisions.Collector) (*decisions.ConcreteDecision, error) {
	sets := make([]*conditions.ConditionSet, len(candidates))
	payload := make([]decisions.Candidate, len(candidates))
	for i, c := range candidates {
		sets[i] = c.conditionSet
		payload[i] = decisions.Candidate{
			Value:       c.value,
			IsPartial:   c.isPartial,
			MergeMethod: c.mergeMethod,
		}
	}

	var abstract *decisions.AbstractDecision
	if collector != nil {
		var err error
		if abstract, err = collector.GetOrAdd(sets); err != nil {
			return nil, err
		}
	} else {
		abstract = decisions.NewAbstractDecision(sets)
	}
	return decisions.NewConcreteDecision(abstract, payload)
}

func mergeResourceType(id string, current, next *resourcetypes.ResourceType) (*resourcetypes.ResourceType, error) {
	switch {
	case next == nil:
		return current, nil
	case current == nil:
		return next, nil
	case current != next:
		return current, common.Detailf(common.DetailTypeMismatch,
			"%s: resource type %s conflicts with %s", id, next.Name(), current.Name())
	}
	return current, nil
}

func conflictError(id string, c *Candidate) error {
	return common.Detailf(common.DetailExists,
		"%s: a different candidate already exists for conditions %q", id, c.conditionSet.Token())
}

// ID returns the resource id.
func (r *Resource) ID() string { return r.id }

// ResourceType returns the resolved resource type.
func (r *Resource) ResourceType() *resourcetypes.ResourceType { return r.resourceType }

// Candidates returns the candidates from most to least specific.
func (r *Resource) Candidates() []*Candidate {
	return slices.Clone(r.candidates)
}

// Decision returns the concrete decision computed at build time.
func (r *Resource) Decision() *decisions.ConcreteDecision { return r.decision }

// GetCandidatesForContext returns the candidates that can match ctx, in
// specificity order.
func (r *Resource) GetCandidatesForContext(ctx qualifiers.ValidatedContext, opts conditions.MatchOptions) []*Candidate {
	return filterCandidates(r.candidates, ctx, opts)
}

// Decl returns the declaration that reproduces r.
func (r *Resource) Decl() ResourceDecl {
	decl := ResourceDecl{
		ID:               r.id,
		ResourceTypeName: r.resourceType.Name(),
		Candidates:       make([]ChildCandidateDecl, len(r.candidates)),
	}
	for i, c := range r.candidates {
		decl.Candidates[i] = c.ChildDecl()
	}
	return decl
}

func filterCandidates(candidates []*Candidate, ctx qualifiers.ValidatedContext, opts conditions.MatchOptions) []*Candidate {
	out := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.CanMatchPartialContext(ctx, opts) {
			out = append(out, c)
		}
	}
	return out
}
