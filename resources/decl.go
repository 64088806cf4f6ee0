package resources

import (
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/qualifiers"
)

// CandidateDecl declares a loose candidate that names its own resource.
type CandidateDecl struct {
	ID               string                      `json:"id"`
	JSON             map[string]any              `json:"json"`
	Conditions       conditions.ConditionSetDecl `json:"conditions,omitempty"`
	IsPartial        bool                        `json:"isPartial,omitempty"`
	MergeMethod      string                      `json:"mergeMethod,omitempty"`
	ResourceTypeName string                      `json:"resourceTypeName,omitempty"`
}

// Child returns the candidate without its id and type.
func (d CandidateDecl) Child() ChildCandidateDecl {
	return ChildCandidateDecl{
		JSON:        d.JSON,
		Conditions:  d.Conditions,
		IsPartial:   d.IsPartial,
		MergeMethod: d.MergeMethod,
	}
}

// ChildCandidateDecl declares a candidate inside a ResourceDecl.
type ChildCandidateDecl struct {
	JSON        map[string]any              `json:"json"`
	Conditions  conditions.ConditionSetDecl `json:"conditions,omitempty"`
	IsPartial   bool                        `json:"isPartial,omitempty"`
	MergeMethod string                      `json:"mergeMethod,omitempty"`
}

// Loose attaches an id and resource type name to a child candidate.
func (d ChildCandidateDecl) Loose(id, resourceTypeName string) CandidateDecl {
	return CandidateDecl{
		ID:               id,
		JSON:             d.JSON,
		Conditions:       d.Conditions,
		IsPartial:        d.IsPartial,
		MergeMethod:      d.MergeMethod,
		ResourceTypeName: resourceTypeName,
	}
}

// ResourceDecl declares a resource with its candidates.
type ResourceDecl struct {
	ID               string               `json:"id"`
	ResourceTypeName string               `json:"resourceTypeName,omitempty"`
	Candidates       []ChildCandidateDecl `json:"candidates,omitempty"`
}

// CollectionDecl declares resources and loose candidates.
type CollectionDecl struct {
	Resources  []ResourceDecl  `json:"resources,omitempty"`
	Candidates []CandidateDecl `json:"candidates,omitempty"`
}

// DeclOptions control how a manager exports declarations.
type DeclOptions struct {
	// FilterForContext keeps only candidates that can match the context.
	// Qualifiers absent from the context are not constrained.
	FilterForContext qualifiers.ValidatedContext

	// ReduceQualifiers drops conditions that the filter context matches perfectly.
	ReduceQualifiers bool
}
