package resources

import (
	"errors"
	"fmt"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/qualifiertypes"
	"github.com/willibrandon/gores/resourcetypes"
)

// ErrIndexMismatch indicates a compiled collection whose replay did not
// reproduce the recorded indices.
var ErrIndexMismatch = errors.New("compiled index mismatch")

// CompiledCollection is the index-based form of a built manager. Entities
// reference each other by position, so the arrays must be replayed in
// field order to reproduce the same indices.
type CompiledCollection struct {
	QualifierTypes  []qualifiertypes.ConfigDecl `json:"qualifierTypes"`
	Qualifiers      []CompiledQualifier         `json:"qualifiers"`
	ResourceTypes   []resourcetypes.ConfigDecl  `json:"resourceTypes"`
	Conditions      []CompiledCondition         `json:"conditions"`
	ConditionSets   []CompiledConditionSet      `json:"conditionSets"`
	Decisions       []CompiledDecision          `json:"decisions"`
	CandidateValues []map[string]any            `json:"candidateValues"`
	Resources       []CompiledResource          `json:"resources"`
}

// CompiledQualifier references its qualifier type by index.
type CompiledQualifier struct {
	Name            string `json:"name"`
	Type            int    `json:"type"`
	DefaultPriority int    `json:"defaultPriority"`
}

// CompiledCondition references its qualifier by index.
type CompiledCondition struct {
	Qualifier      int      `json:"qualifierIndex"`
	Operator       string   `json:"operator"`
	Value          string   `json:"value"`
	Priority       int      `json:"priority"`
	ScoreAsDefault *float64 `json:"scoreAsDefault,omitempty"`
}

// CompiledConditionSet lists condition indices in canonical order.
type CompiledConditionSet struct {
	Conditions []int `json:"conditions"`
}

// CompiledDecision lists condition set indices in candidate order.
type CompiledDecision struct {
	ConditionSets []int `json:"conditionSets"`
}

// CompiledResource references its type, decision and candidate values by index.
type CompiledResource struct {
	ID         string              `json:"id"`
	Type       int                 `json:"type"`
	Decision   int                 `json:"decision"`
	Candidates []CompiledCandidate `json:"candidates"`
}

// CompiledCandidate is one decision position of a compiled resource.
type CompiledCandidate struct {
	ValueIndex  int    `json:"valueIndex"`
	IsPartial   bool   `json:"isPartial,omitempty"`
	MergeMethod string `json:"mergeMethod"`
}

// CompileOptions control GetCompiledResourceCollection.
type CompileOptions struct {
	// FilterForContext compiles a filtered clone instead of the manager itself.
	FilterForContext map[string]string
	// ReduceQualifiers applies with FilterForContext as in Clone.
	ReduceQualifiers bool
}

// GetCompiledResourceCollection builds every resource and exports the
// manager in index-based form. Any build failure fails the export.
func (m *Manager) GetCompiledResourceCollection(opts CompileOptions) (*CompiledCollection, error) {
	if len(opts.FilterForContext) > 0 {
		clone, err := m.Clone(CloneOptions{
			FilterForContext: opts.FilterForContext,
			ReduceQualifiers: opts.ReduceQualifiers,
		})
		if err != nil {
			return nil, err
		}
		return clone.GetCompiledResourceCollection(CompileOptions{})
	}

	built, err := m.GetAllBuiltResources()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	c := m.collectors
	compiled := &CompiledCollection{
		QualifierTypes: c.Qualifiers.Types().Configs(),
		ResourceTypes:  c.ResourceTypes.Configs(),
	}

	for _, q := range c.Qualifiers.Values() {
		typeIndex, _ := q.Type().Index()
		compiled.Qualifiers = append(compiled.Qualifiers, CompiledQualifier{
			Name:            q.Name(),
			Type:            typeIndex,
			DefaultPriority: int(q.DefaultPriority()),
		})
	}

	for _, cond := range c.Conditions.Values() {
		cc := CompiledCondition{
			Qualifier: cond.Qualifier().Index(),
			Operator:  string(cond.Operator()),
			Value:     cond.Value(),
			Priority:  int(cond.Priority()),
		}
		if score, ok := cond.ScoreAsDefault(); ok {
			s := float64(score)
			cc.ScoreAsDefault = &s
		}
		compiled.Conditions = append(compiled.Conditions, cc)
	}

	for _, cs := range c.ConditionSets.Values() {
		indices := make([]int, 0, cs.Len())
		for _, cond := range cs.Conditions() {
			indices = append(indices, cond.Index())
		}
		compiled.ConditionSets = append(compiled.ConditionSets, CompiledConditionSet{Conditions: indices})
	}

	for _, d := range c.Decisions.Values() {
		indices := make([]int, 0, d.Len())
		for _, cs := range d.ConditionSets() {
			indices = append(indices, cs.Index())
		}
		compiled.Decisions = append(compiled.Decisions, CompiledDecision{ConditionSets: indices})
	}

	valueIndex := make(map[string]int)
	for _, r := range built {
		cr := CompiledResource{
			ID:       r.ID(),
			Type:     r.ResourceType().Index(),
			Decision: r.Decision().Decision().Index(),
		}
		for _, cand := range r.candidates {
			data, err := CanonicalJSON(cand.value)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", r.ID(), err)
			}
			vi, ok := valueIndex[string(data)]
			if !ok {
				vi = len(compiled.CandidateValues)
				valueIndex[string(data)] = vi
				compiled.CandidateValues = append(compiled.CandidateValues, CloneObject(cand.value))
			}
			cr.Candidates = append(cr.Candidates, CompiledCandidate{
				ValueIndex:  vi,
				IsPartial:   cand.isPartial,
				MergeMethod: string(cand.mergeMethod),
			})
		}
		compiled.Resources = append(compiled.Resources, cr)
	}

	m.logger.Debug("Compiled {ResourceCount} resources, {DecisionCount} decisions, {ValueCount} values",
		len(compiled.Resources), len(compiled.Decisions), len(compiled.CandidateValues))
	return compiled, nil
}

// NewManagerFromCompiled rebuilds a manager from a compiled collection,
// replaying every entity in order and verifying that each receives its
// recorded index. Qualifier and resource type collectors in params are
// ignored; the collection carries its own.
func NewManagerFromCompiled(compiled *CompiledCollection, params ManagerParams) (*Manager, error) {
	types, err := qualifiertypes.NewCollectorFromConfig(compiled.QualifierTypes)
	if err != nil {
		return nil, fmt.Errorf("compiled qualifier types: %w", err)
	}

	decls := make([]qualifiers.Decl, 0, len(compiled.Qualifiers))
	for i, cq := range compiled.Qualifiers {
		qt, err := types.GetAt(cq.Type)
		if err != nil {
			return nil, fmt.Errorf("compiled qualifier %d: %w", i, err)
		}
		decls = append(decls, qualifiers.Decl{Name: cq.Name, TypeName: qt.Name(), DefaultPriority: cq.DefaultPriority})
	}
	qs, err := qualifiers.NewCollector(types, decls...)
	if err != nil {
		return nil, fmt.Errorf("compiled qualifiers: %w", err)
	}

	rts, err := resourcetypes.NewCollector(compiled.ResourceTypes...)
	if err != nil {
		return nil, fmt.Errorf("compiled resource types: %w", err)
	}

	params.Qualifiers = qs
	params.ResourceTypes = rts
	m, err := NewManager(params)
	if err != nil {
		return nil, err
	}
	if err := m.replay(compiled); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) replay(compiled *CompiledCollection) error {
	c := m.collectors

	for i, cc := range compiled.Conditions {
		q, err := c.Qualifiers.GetAt(cc.Qualifier)
		if err != nil {
			return fmt.Errorf("compiled condition %d: %w", i, err)
		}
		priority := cc.Priority
		cond, err := c.Conditions.GetOrAdd(conditions.ConditionDecl{
			QualifierName:  q.Name(),
			Operator:       cc.Operator,
			Value:          cc.Value,
			Priority:       &priority,
			ScoreAsDefault: cc.ScoreAsDefault,
		})
		if err != nil {
			return fmt.Errorf("compiled condition %d: %w", i, err)
		}
		if err := checkIndex("condition", i, cond.Index()); err != nil {
			return err
		}
	}

	for i, ccs := range compiled.ConditionSets {
		cs, err := c.ConditionSets.GetOrAddIndices(ccs.Conditions)
		if err != nil {
			return fmt.Errorf("compiled condition set %d: %w", i, err)
		}
		if err := checkIndex("condition set", i, cs.Index()); err != nil {
			return err
		}
	}

	for i, cd := range compiled.Decisions {
		d, err := c.Decisions.GetOrAddIndices(c.ConditionSets, cd.ConditionSets)
		if err != nil {
			return fmt.Errorf("compiled decision %d: %w", i, err)
		}
		if err := checkIndex("decision", i, d.Index()); err != nil {
			return err
		}
	}

	var agg common.Aggregate
	for _, cr := range compiled.Resources {
		agg.Add(m.replayResource(compiled, cr))
	}
	if err := agg.Err(); err != nil {
		return err
	}
	return m.Build()
}

func (m *Manager) replayResource(compiled *CompiledCollection, cr CompiledResource) error {
	c := m.collectors
	rt, err := c.ResourceTypes.GetAt(cr.Type)
	if err != nil {
		return fmt.Errorf("compiled resource %s: %w", cr.ID, err)
	}
	d, err := c.Decisions.GetAt(cr.Decision)
	if err != nil {
		return fmt.Errorf("compiled resource %s: %w", cr.ID, err)
	}
	sets := d.ConditionSets()
	if len(sets) != len(cr.Candidates) {
		return fmt.Errorf("compiled resource %s: %d candidates for decision %s", cr.ID, len(cr.Candidates), d.Key())
	}

	b, _, err := m.builder(cr.ID, rt)
	if err != nil {
		return err
	}
	for i, cc := range cr.Candidates {
		if cc.ValueIndex < 0 || cc.ValueIndex >= len(compiled.CandidateValues) {
			return fmt.Errorf("compiled resource %s: value index %d: %w", cr.ID, cc.ValueIndex, common.ErrNotFound)
		}
		cand, err := NewCandidate(CandidateParams{
			ID:           cr.ID,
			Value:        compiled.CandidateValues[cc.ValueIndex],
			ConditionSet: sets[i],
			IsPartial:    cc.IsPartial,
			MergeMethod:  cc.MergeMethod,
			ResourceType: rt,
		})
		if err != nil {
			return err
		}
		if _, err := b.AddCandidate(cand); err != nil {
			return err
		}
	}

	r, err := b.Build()
	if err != nil {
		return err
	}
	return checkIndex("decision of "+cr.ID, cr.Decision, r.Decision().Decision().Index())
}

func checkIndex(kind string, want, got int) error {
	if want != got {
		return fmt.Errorf("%w: %s %d replayed at %d", ErrIndexMismatch, kind, want, got)
	}
	return nil
}
