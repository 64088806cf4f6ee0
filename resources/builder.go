package resources

import (
	"fmt"
	"slices"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/resourcetypes"
)

// BuilderState is the lifecycle state of a Builder.
type BuilderState int

const (
	// StateEmpty means no candidate has been added.
	StateEmpty BuilderState = iota
	// StateAccumulating means candidates are present but not built.
	StateAccumulating
	// StateBuilt means the current candidates have been built into a Resource.
	StateBuilt
)

// String implements fmt.Stringer.
func (s BuilderState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateBuilt:
		return "built"
	default:
		return fmt.Sprintf("BuilderState(%d)", int(s))
	}
}

// Builder accumulates the candidates of one resource.
//
// The resource type locks on the first candidate that declares one. A
// candidate for a condition set already present is accepted only when it
// equals the existing candidate. Adding a candidate after Build discards
// the built resource and returns the builder to StateAccumulating.
type Builder struct {
	id           string
	resourceType *resourcetypes.ResourceType
	defaultType  *resourcetypes.ResourceType
	collectors   *Collectors
	candidates   []*Candidate
	bySet        map[*conditions.ConditionSet]*Candidate
	built        *Resource
	onChange     func()
}

// BuilderParams describe a new builder.
type BuilderParams struct {
	ID string
	// ResourceType locks the type up front. Optional.
	ResourceType *resourcetypes.ResourceType
	// DefaultResourceType applies at build time when no candidate declared a type.
	DefaultResourceType *resourcetypes.ResourceType
	Collectors          *Collectors
	// OnChange runs after every candidate that changes the builder. Optional.
	OnChange func()
}

// NewBuilder creates an empty builder.
func NewBuilder(params BuilderParams) (*Builder, error) {
	if err := common.ValidateResourceID(params.ID); err != nil {
		return nil, common.WithDetail(common.DetailInvalid, err)
	}
	if params.Collectors == nil {
		return nil, fmt.Errorf("%s: builder requires collectors", params.ID)
	}
	return &Builder{
		id:           params.ID,
		resourceType: params.ResourceType,
		defaultType:  params.DefaultResourceType,
		collectors:   params.Collectors,
		bySet:        make(map[*conditions.ConditionSet]*Candidate),
		onChange:     params.OnChange,
	}, nil
}

// ID returns the resource id.
func (b *Builder) ID() string { return b.id }

// State returns the lifecycle state.
func (b *Builder) State() BuilderState {
	switch {
	case b.built != nil:
		return StateBuilt
	case len(b.candidates) == 0:
		return StateEmpty
	default:
		return StateAccumulating
	}
}

// ResourceType returns the locked resource type, or nil.
func (b *Builder) ResourceType() *resourcetypes.ResourceType { return b.resourceType }

// Candidates returns the accumulated candidates sorted from most to least specific.
func (b *Builder) Candidates() []*Candidate {
	out := slices.Clone(b.candidates)
	slices.SortStableFunc(out, CompareCandidates)
	return out
}

// Len returns the number of distinct candidates.
func (b *Builder) Len() int { return len(b.candidates) }

// AddCandidate adds c. It returns added=false when an equal candidate is
// already present.
func (b *Builder) AddCandidate(c *Candidate) (added bool, err error) {
	if c.id != b.id {
		return false, common.Detailf(common.DetailIDMismatch, "%s: candidate belongs to %s", b.id, c.id)
	}
	rt, err := mergeResourceType(b.id, b.resourceType, c.resourceType)
	if err != nil {
		return false, err
	}
	if existing, ok := b.bySet[c.conditionSet]; ok {
		if existing.Equal(c) {
			return false, nil
		}
		return false, conflictError(b.id, c)
	}

	b.resourceType = rt
	b.bySet[c.conditionSet] = c
	b.candidates = append(b.candidates, c)
	b.built = nil
	if b.onChange != nil {
		b.onChange()
	}
	return true, nil
}

// SetResourceType locks the builder to rt. Locking a different type than
// the one already locked fails with a type-mismatch detail.
func (b *Builder) SetResourceType(rt *resourcetypes.ResourceType) error {
	merged, err := mergeResourceType(b.id, b.resourceType, rt)
	if err != nil {
		return err
	}
	if merged == b.resourceType {
		return nil
	}
	b.resourceType = merged
	b.built = nil
	if b.onChange != nil {
		b.onChange()
	}
	return nil
}

// AddLooseCandidate interns decl's conditions and adds the candidate.
func (b *Builder) AddLooseCandidate(decl ChildCandidateDecl) (bool, error) {
	typeName := ""
	if b.resourceType != nil {
		typeName = b.resourceType.Name()
	}
	c, err := b.collectors.NewCandidate(decl.Loose(b.id, typeName))
	if err != nil {
		return false, err
	}
	return b.AddCandidate(c)
}

// Build returns the resource for the current candidates. The result is
// cached until the next successful add.
func (b *Builder) Build() (*Resource, error) {
	if b.built != nil {
		return b.built, nil
	}
	if len(b.candidates) == 0 {
		return nil, common.Detailf(common.DetailInvalid, "%s: resource has no candidates", b.id)
	}
	rt := b.resourceType
	if rt == nil {
		rt = b.defaultType
	}
	r, err := NewResource(ResourceParams{
		ID:           b.id,
		ResourceType: rt,
		Candidates:   b.candidates,
		Decisions:    b.collectors.Decisions,
	})
	if err != nil {
		return nil, err
	}
	b.built = r
	return r, nil
}

// GetCandidatesForContext returns the accumulated candidates that can match ctx.
func (b *Builder) GetCandidatesForContext(ctx qualifiers.ValidatedContext, opts conditions.MatchOptions) []*Candidate {
	return filterCandidates(b.Candidates(), ctx, opts)
}
