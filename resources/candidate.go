package resources

import (
	"bytes"
	"fmt"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/resourcetypes"
)

// CandidateParams describe a new candidate.
type CandidateParams struct {
	ID           string
	Value        any
	ConditionSet *conditions.ConditionSet
	IsPartial    bool
	// MergeMethod defaults to augment for partial candidates and replace otherwise.
	MergeMethod string
	// ResourceType is optional; a resource infers it from its other candidates.
	ResourceType *resourcetypes.ResourceType
}

// Candidate is one possible value of a resource under a condition set.
// Candidates are immutable.
type Candidate struct {
	id           string
	value        map[string]any
	conditionSet *conditions.ConditionSet
	isPartial    bool
	mergeMethod  common.MergeMethod
	resourceType *resourcetypes.ResourceType
	hash         uint32
}

// NewCandidate validates params and returns a candidate that owns a copy
// of the value.
func NewCandidate(params CandidateParams) (*Candidate, error) {
	if err := common.ValidateResourceID(params.ID); err != nil {
		return nil, common.WithDetail(common.DetailInvalid, err)
	}
	if params.ConditionSet == nil {
		return nil, common.Detailf(common.DetailInvalid, "%s: candidate has no condition set", params.ID)
	}
	method, err := common.ValidateMergeMethod(params.MergeMethod, params.IsPartial)
	if err != nil {
		return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("%s: %w", params.ID, err))
	}

	var value map[string]any
	if params.ResourceType != nil {
		value, err = params.ResourceType.ValidateValue(params.Value)
	} else {
		value, err = resourcetypes.ToJSONObject(params.Value)
	}
	if err != nil {
		return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("%s: %w", params.ID, err))
	}
	value = CloneObject(value)

	hash, err := ContentHash(value)
	if err != nil {
		return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("%s: %w", params.ID, err))
	}

	return &Candidate{
		id:           params.ID,
		value:        value,
		conditionSet: params.ConditionSet,
		isPartial:    params.IsPartial,
		mergeMethod:  method,
		resourceType: params.ResourceType,
		hash:         hash,
	}, nil
}

// ID returns the resource id.
func (c *Candidate) ID() string { return c.id }

// Value returns a copy of the candidate value.
func (c *Candidate) Value() map[string]any { return CloneObject(c.value) }

// ConditionSet returns the conditions under which the candidate applies.
func (c *Candidate) ConditionSet() *conditions.ConditionSet { return c.conditionSet }

// IsPartial reports whether the value only carries some properties.
func (c *Candidate) IsPartial() bool { return c.isPartial }

// MergeMethod returns how the value combines with lower-ranked candidates.
func (c *Candidate) MergeMethod() common.MergeMethod { return c.mergeMethod }

// ResourceType returns the declared resource type, or nil.
func (c *Candidate) ResourceType() *resourcetypes.ResourceType { return c.resourceType }

// Hash returns the CRC32 content hash of the value.
func (c *Candidate) Hash() uint32 { return c.hash }

// Equal reports whether two candidates have the same id, flags, condition
// set and value content. Values with equal hashes are compared by their
// canonical encoding.
func (c *Candidate) Equal(other *Candidate) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if c.id != other.id ||
		c.isPartial != other.isPartial ||
		c.mergeMethod != other.mergeMethod ||
		c.conditionSet != other.conditionSet ||
		c.hash != other.hash {
		return false
	}
	a, err := CanonicalJSON(c.value)
	if err != nil {
		return false
	}
	b, err := CanonicalJSON(other.value)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// CanMatchPartialContext reports whether the candidate's conditions can match ctx.
func (c *Candidate) CanMatchPartialContext(ctx qualifiers.ValidatedContext, opts conditions.MatchOptions) bool {
	return c.conditionSet.CanMatchPartialContext(ctx, opts)
}

// Decl returns the loose declaration that reproduces c.
func (c *Candidate) Decl() CandidateDecl {
	typeName := ""
	if c.resourceType != nil {
		typeName = c.resourceType.Name()
	}
	return c.ChildDecl().Loose(c.id, typeName)
}

// ChildDecl returns the declaration of c inside its resource.
func (c *Candidate) ChildDecl() ChildCandidateDecl {
	decl := ChildCandidateDecl{
		JSON:       c.Value(),
		Conditions: c.conditionSet.Decl(),
		IsPartial:  c.isPartial,
	}
	if c.mergeMethod != defaultMergeMethod(c.isPartial) {
		decl.MergeMethod = string(c.mergeMethod)
	}
	return decl
}

// String implements fmt.Stringer.
func (c *Candidate) String() string {
	return fmt.Sprintf("%s[%s]", c.id, c.conditionSet.Token())
}

// CompareCandidates orders candidates from most to least specific condition set.
func CompareCandidates(a, b *Candidate) int {
	return conditions.CompareConditionSets(a.conditionSet, b.conditionSet)
}

func defaultMergeMethod(isPartial bool) common.MergeMethod {
	if isPartial {
		return common.MergeAugment
	}
	return common.MergeReplace
}
