// Package resources builds resources from declared candidates.
//
// A Manager owns the interning collectors and one Builder per resource id.
// Candidates are added incrementally; building a resource sorts its
// candidates by specificity and interns the resulting decision so that
// resources with the same condition set layout share it. Built views are
// cached per manager generation and recomputed after any mutation.
package resources

import (
	"fmt"
	"slices"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/decisions"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/resourcetypes"
)

// ManagerParams configure a new Manager.
type ManagerParams struct {
	Qualifiers    *qualifiers.Collector
	ResourceTypes *resourcetypes.Collector

	// DefaultResourceTypeName applies to resources whose candidates never
	// declare a type. Optional.
	DefaultResourceTypeName string

	// Logger receives debug output. Nil disables logging.
	Logger observability.Logger
}

// Manager aggregates resource builders over shared collectors. A Manager
// is not safe for concurrent mutation; use Clone for an isolated copy.
type Manager struct {
	collectors  *Collectors
	defaultType *resourcetypes.ResourceType
	builders    map[string]*Builder
	logger      observability.Logger

	generation uint64
	built      *builtView
	tree       *treeView
}

type builtView struct {
	generation uint64
	resources  []*Resource
	err        error
}

type treeView struct {
	generation uint64
	tree       *ResourceTree
}

// NewManager creates an empty manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Qualifiers == nil || params.ResourceTypes == nil {
		return nil, fmt.Errorf("resources: manager requires qualifiers and resource types")
	}
	collectors := NewCollectors(params.Qualifiers, params.ResourceTypes)
	defaultType, err := collectors.ResourceType(params.DefaultResourceTypeName)
	if err != nil {
		return nil, fmt.Errorf("resources: default resource type: %w", err)
	}
	return &Manager{
		collectors:  collectors,
		defaultType: defaultType,
		builders:    make(map[string]*Builder),
		logger:      observability.OrNull(params.Logger),
	}, nil
}

// Collectors returns the collectors the manager interns into.
func (m *Manager) Collectors() *Collectors { return m.collectors }

// Qualifiers returns the qualifier collector.
func (m *Manager) Qualifiers() *qualifiers.Collector { return m.collectors.Qualifiers }

// ResourceTypes returns the resource type collector.
func (m *Manager) ResourceTypes() *resourcetypes.Collector { return m.collectors.ResourceTypes }

// Conditions returns the condition collector.
func (m *Manager) Conditions() *conditions.ConditionCollector { return m.collectors.Conditions }

// ConditionSets returns the condition set collector.
func (m *Manager) ConditionSets() *conditions.ConditionSetCollector {
	return m.collectors.ConditionSets
}

// Decisions returns the decision collector.
func (m *Manager) Decisions() *decisions.Collector { return m.collectors.Decisions }

// Generation increases with every successful mutation.
func (m *Manager) Generation() uint64 { return m.generation }

func (m *Manager) params() ManagerParams {
	params := ManagerParams{
		Qualifiers:    m.collectors.Qualifiers,
		ResourceTypes: m.collectors.ResourceTypes,
		Logger:        m.logger,
	}
	if m.defaultType != nil {
		params.DefaultResourceTypeName = m.defaultType.Name()
	}
	return params
}

func (m *Manager) builder(id string, rt *resourcetypes.ResourceType) (b *Builder, created bool, err error) {
	if b, ok := m.builders[id]; ok {
		return b, false, nil
	}
	b, err = NewBuilder(BuilderParams{
		ID:                  id,
		ResourceType:        rt,
		DefaultResourceType: m.defaultType,
		Collectors:          m.collectors,
		OnChange:            m.invalidate,
	})
	if err != nil {
		return nil, false, err
	}
	m.builders[id] = b
	return b, true, nil
}

// invalidate starts a new generation so cached built views are recomputed.
func (m *Manager) invalidate() {
	m.generation++
}

// AddCandidate adds a candidate built over this manager's collectors.
func (m *Manager) AddCandidate(c *Candidate) error {
	b, created, err := m.builder(c.ID(), nil)
	if err != nil {
		observability.CandidatesAddedTotal.WithLabelValues(observability.ResultFailure).Inc()
		return err
	}
	added, err := b.AddCandidate(c)
	observability.CandidatesAddedTotal.WithLabelValues(observability.ResultLabel(err)).Inc()
	if err != nil {
		if created {
			delete(m.builders, c.ID())
		}
		return err
	}
	if added {
		m.logger.Verbose("Added candidate {ResourceID} for {Conditions}", c.ID(), c.ConditionSet().Token())
	}
	return nil
}

// AddLooseCandidate interns decl's conditions and adds it to its resource.
func (m *Manager) AddLooseCandidate(decl CandidateDecl) error {
	c, err := m.collectors.NewCandidate(decl)
	if err != nil {
		observability.CandidatesAddedTotal.WithLabelValues(observability.ResultFailure).Inc()
		return err
	}
	return m.AddCandidate(c)
}

// AddResource adds every candidate of decl. Failures are aggregated; the
// candidates that validate are kept. A declaration without candidates
// still registers the resource.
func (m *Manager) AddResource(decl ResourceDecl) error {
	rt, err := m.collectors.ResourceType(decl.ResourceTypeName)
	if err != nil {
		return fmt.Errorf("%s: %w", decl.ID, err)
	}
	b, created, err := m.builder(decl.ID, rt)
	if err != nil {
		return err
	}
	if rt != nil {
		if err := b.SetResourceType(rt); err != nil {
			return err
		}
	}
	if created {
		m.invalidate()
	}

	var agg common.Aggregate
	for _, child := range decl.Candidates {
		agg.Add(m.AddLooseCandidate(child.Loose(decl.ID, decl.ResourceTypeName)))
	}
	return agg.Err()
}

// AddCollection adds every resource and loose candidate of decl,
// aggregating failures.
func (m *Manager) AddCollection(decl CollectionDecl) error {
	var agg common.Aggregate
	for _, r := range decl.Resources {
		agg.Add(m.AddResource(r))
	}
	for _, c := range decl.Candidates {
		agg.Add(m.AddLooseCandidate(c))
	}
	return agg.Err()
}

// GetResourceBuilder returns the builder for id.
func (m *Manager) GetResourceBuilder(id string) (*Builder, error) {
	b, ok := m.builders[id]
	if !ok {
		return nil, common.WithDetail(common.DetailNotFound, fmt.Errorf("resource %q: %w", id, common.ErrNotFound))
	}
	return b, nil
}

// ValidateContext validates decl against the manager's qualifiers.
func (m *Manager) ValidateContext(decl map[string]string) (qualifiers.ValidatedContext, error) {
	return m.collectors.Qualifiers.ValidateContext(decl)
}

// ResourceIDs returns the ids of all resources, sorted.
func (m *Manager) ResourceIDs() []string {
	ids := make([]string, 0, len(m.builders))
	for id := range m.builders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Size returns the number of resources.
func (m *Manager) Size() int { return len(m.builders) }

// GetBuiltResource builds and returns the resource for id.
func (m *Manager) GetBuiltResource(id string) (*Resource, error) {
	b, err := m.GetResourceBuilder(id)
	if err != nil {
		return nil, err
	}
	wasBuilt := b.State() == StateBuilt
	r, err := b.Build()
	if !wasBuilt {
		observability.ResourcesBuiltTotal.WithLabelValues(observability.ResultLabel(err)).Inc()
	}
	return r, err
}

// GetAllBuiltResources builds every resource, sorted by id. Resources that
// fail to build are omitted and their errors aggregated.
func (m *Manager) GetAllBuiltResources() ([]*Resource, error) {
	if m.built != nil && m.built.generation == m.generation {
		return slices.Clone(m.built.resources), m.built.err
	}

	ids := m.ResourceIDs()
	out := make([]*Resource, 0, len(ids))
	var agg common.Aggregate
	for _, id := range ids {
		r, err := m.GetBuiltResource(id)
		if err != nil {
			agg.Add(err)
			continue
		}
		out = append(out, r)
	}
	m.built = &builtView{generation: m.generation, resources: out, err: agg.Err()}
	m.logger.Debug("Built {ResourceCount} resources with {ErrorCount} errors", len(out), agg.Len())
	return slices.Clone(out), m.built.err
}

// Build builds every resource and returns the aggregated errors.
func (m *Manager) Build() error {
	_, err := m.GetAllBuiltResources()
	return err
}

// GetBuiltResourceTree returns the id tree over all buildable resources.
// The tree is cached until the next mutation.
func (m *Manager) GetBuiltResourceTree() (*ResourceTree, error) {
	if m.tree != nil && m.tree.generation == m.generation {
		return m.tree.tree, nil
	}
	built, err := m.GetAllBuiltResources()
	if err != nil {
		return nil, err
	}
	m.tree = &treeView{generation: m.generation, tree: newResourceTree(built)}
	return m.tree.tree, nil
}

// GetBuiltCandidatesForContext returns the candidates of every built
// resource that can match ctx, grouped by resource id order.
func (m *Manager) GetBuiltCandidatesForContext(ctx qualifiers.ValidatedContext, opts conditions.MatchOptions) ([]*Candidate, error) {
	built, err := m.GetAllBuiltResources()
	if err != nil {
		return nil, err
	}
	var out []*Candidate
	for _, r := range built {
		out = append(out, r.GetCandidatesForContext(ctx, opts)...)
	}
	return out, nil
}

// GetBuiltResourcesForContext returns a view of every built resource
// restricted to the candidates that can match ctx. Resources left with no
// candidates are omitted. The views' decisions carry no index.
func (m *Manager) GetBuiltResourcesForContext(ctx qualifiers.ValidatedContext, opts conditions.MatchOptions) ([]*Resource, error) {
	built, err := m.GetAllBuiltResources()
	if err != nil {
		return nil, err
	}
	out := make([]*Resource, 0, len(built))
	for _, r := range built {
		candidates := r.GetCandidatesForContext(ctx, opts)
		if len(candidates) == 0 {
			continue
		}
		if len(candidates) == len(r.candidates) {
			out = append(out, r)
			continue
		}
		view, err := NewResource(ResourceParams{
			ID:           r.id,
			ResourceType: r.resourceType,
			Candidates:   candidates,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetResourceCollectionDecl exports every resource as a declaration,
// sorted by id, with candidates from most to least specific.
func (m *Manager) GetResourceCollectionDecl(opts DeclOptions) CollectionDecl {
	match := conditions.MatchOptions{PartialContextMatch: true}
	var decl CollectionDecl
	for _, id := range m.ResourceIDs() {
		b := m.builders[id]
		candidates := b.Candidates()
		if opts.FilterForContext != nil {
			candidates = filterCandidates(candidates, opts.FilterForContext, match)
		}
		if len(candidates) == 0 {
			continue
		}

		rd := ResourceDecl{ID: id}
		if rt := b.resourceType; rt != nil {
			rd.ResourceTypeName = rt.Name()
		}
		seen := make(map[string]bool, len(candidates))
		for _, c := range candidates {
			child := c.ChildDecl()
			if opts.ReduceQualifiers && opts.FilterForContext != nil {
				child.Conditions = c.conditionSet.Reduce(perfectlyMatched(c.conditionSet, opts.FilterForContext))
			}
			token := declToken(child.Conditions)
			if seen[token] {
				m.logger.Debug("Dropped reduced candidate {ResourceID} for {Conditions}", id, c.conditionSet.Token())
				continue
			}
			seen[token] = true
			rd.Candidates = append(rd.Candidates, child)
		}
		decl.Resources = append(decl.Resources, rd)
	}
	return decl
}

// perfectlyMatched returns the qualifiers of cs whose conditions ctx
// matches with PerfectMatch.
func perfectlyMatched(cs *conditions.ConditionSet, ctx qualifiers.ValidatedContext) []string {
	var names []string
	for _, c := range cs.Conditions() {
		if _, ok := ctx.Get(c.Qualifier().Name()); ok && c.Evaluate(ctx) == common.PerfectMatch {
			names = append(names, c.Qualifier().Name())
		}
	}
	return names
}

func declToken(decl conditions.ConditionSetDecl) string {
	token := ""
	for i, c := range decl {
		if i > 0 {
			token += ","
		}
		token += c.QualifierName + "=" + c.Value
		if c.Priority != nil {
			token += fmt.Sprintf("@%d", *c.Priority)
		}
		if c.ScoreAsDefault != nil {
			token += fmt.Sprintf("(%v)", *c.ScoreAsDefault)
		}
	}
	return token
}
