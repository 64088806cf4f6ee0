package resources

import (
	"fmt"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/observability"
)

// CloneOptions control Manager.Clone.
type CloneOptions struct {
	// FilterForContext keeps only candidates that can match this context.
	// Qualifiers it does not name stay unconstrained.
	FilterForContext map[string]string

	// ReduceQualifiers drops conditions that FilterForContext matches
	// perfectly. When two candidates reduce to the same conditions the more
	// specific one is kept.
	ReduceQualifiers bool

	// Edits are merged into the clone. An edit whose conditions equal an
	// existing candidate's replaces or augments it; any other edit is added.
	Edits []CandidateDecl
}

// Clone returns an independent manager holding the candidates that pass
// the filter, with edits applied. The clone shares the qualifier and
// resource type collectors and interns conditions afresh.
//
// An edit for an unknown resource id must name its resource type; if one
// does not, Clone fails without building anything. Every other failure is
// aggregated and returned with the clone.
func (m *Manager) Clone(opts CloneOptions) (*Manager, error) {
	clone, err := m.clone(opts)
	observability.CloneTotal.WithLabelValues(observability.ResultLabel(err)).Inc()
	return clone, err
}

func (m *Manager) clone(opts CloneOptions) (*Manager, error) {
	declOpts := DeclOptions{ReduceQualifiers: opts.ReduceQualifiers}
	if len(opts.FilterForContext) > 0 {
		ctx, err := m.ValidateContext(opts.FilterForContext)
		if err != nil {
			return nil, fmt.Errorf("clone: %w", err)
		}
		declOpts.FilterForContext = ctx
	}

	editsByID := make(map[string][]CandidateDecl)
	var editOrder []string
	for _, e := range opts.Edits {
		if _, ok := editsByID[e.ID]; !ok {
			editOrder = append(editOrder, e.ID)
		}
		editsByID[e.ID] = append(editsByID[e.ID], e)
	}
	for _, id := range editOrder {
		if _, exists := m.builders[id]; exists {
			continue
		}
		if resourceTypeName(editsByID[id]) == "" {
			return nil, common.Detailf(common.DetailInvalid,
				"clone: edit for new resource %s must declare a resource type name", id)
		}
	}

	clone, err := NewManager(m.params())
	if err != nil {
		return nil, err
	}

	decl := m.GetResourceCollectionDecl(declOpts)
	var agg common.Aggregate
	for _, rd := range decl.Resources {
		edits := editsByID[rd.ID]
		delete(editsByID, rd.ID)
		merged, err := clone.applyEdits(rd, edits)
		if err != nil {
			agg.Add(err)
		}
		agg.Add(clone.AddResource(merged))
	}

	for _, id := range editOrder {
		edits, ok := editsByID[id]
		if !ok {
			continue
		}
		rd := ResourceDecl{ID: id, ResourceTypeName: resourceTypeName(edits)}
		if b, exists := m.builders[id]; exists && rd.ResourceTypeName == "" {
			// Filtered out of the clone, so its edits start a fresh resource.
			rd.ResourceTypeName = b.typeName()
		}
		merged, err := clone.applyEdits(rd, edits)
		if err != nil {
			agg.Add(err)
		}
		agg.Add(clone.AddResource(merged))
	}

	m.logger.Debug("Cloned {ResourceCount} resources into {CloneCount} with {EditCount} edits",
		m.Size(), clone.Size(), len(opts.Edits))
	return clone, agg.Err()
}

// applyEdits merges edits into rd by condition set token. Conditions are
// interned into m so tokens compare canonically. Edits sharing a token
// fold into one in order.
func (m *Manager) applyEdits(rd ResourceDecl, edits []CandidateDecl) (ResourceDecl, error) {
	if len(edits) == 0 {
		return rd, nil
	}

	var agg common.Aggregate
	byToken := make(map[string]ChildCandidateDecl, len(edits))
	var order []string
	for _, e := range edits {
		token, err := m.token(e.Conditions)
		if err != nil {
			agg.Add(fmt.Errorf("%s: edit: %w", rd.ID, err))
			continue
		}
		if prev, ok := byToken[token]; ok {
			byToken[token] = mergeEdit(prev, e.Child())
			continue
		}
		byToken[token] = e.Child()
		order = append(order, token)
	}

	out := ResourceDecl{ID: rd.ID, ResourceTypeName: rd.ResourceTypeName}
	used := make(map[string]bool, len(byToken))
	for _, child := range rd.Candidates {
		token, err := m.token(child.Conditions)
		if err != nil {
			agg.Add(fmt.Errorf("%s: %w", rd.ID, err))
			continue
		}
		edit, ok := byToken[token]
		if !ok {
			out.Candidates = append(out.Candidates, child)
			continue
		}
		used[token] = true
		out.Candidates = append(out.Candidates, mergeEdit(child, edit))
	}
	for _, token := range order {
		if !used[token] {
			out.Candidates = append(out.Candidates, byToken[token])
		}
	}
	return out, agg.Err()
}

func (m *Manager) token(decl conditions.ConditionSetDecl) (string, error) {
	cs, err := m.collectors.ConditionSets.GetOrAdd(decl)
	if err != nil {
		return "", err
	}
	return cs.Token(), nil
}

// mergeEdit combines an existing candidate with the edit that collides
// with it. Values deep-merge with the edit's fields overriding. A partial
// edit keeps the existing candidate's flags; a full edit brings its own.
func mergeEdit(existing, edit ChildCandidateDecl) ChildCandidateDecl {
	merged := edit
	if edit.IsPartial {
		merged = existing
	}
	merged.JSON = MergeObjects(existing.JSON, edit.JSON, merged.IsPartial)
	return merged
}

func resourceTypeName(decls []CandidateDecl) string {
	for _, d := range decls {
		if d.ResourceTypeName != "" {
			return d.ResourceTypeName
		}
	}
	return ""
}

func (b *Builder) typeName() string {
	if b.resourceType == nil {
		return ""
	}
	return b.resourceType.Name()
}
