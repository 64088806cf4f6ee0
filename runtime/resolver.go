// Package runtime resolves built resources against a concrete context.
//
// A ResourceResolver evaluates each condition, condition set and decision
// at most once per context and caches the results by index, so resources
// that share a decision share its ranking.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/decisions"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/resources"
)

// ErrNoMatch indicates that no candidate of a resource matches the context.
var ErrNoMatch = errors.New("no matching candidate")

const outcomeError = "error"

// ResourceSource is the read side of a resource manager.
type ResourceSource interface {
	GetBuiltResource(id string) (*resources.Resource, error)
	ResourceIDs() []string
	ValidateContext(decl map[string]string) (qualifiers.ValidatedContext, error)
}

// ResolverParams configure a ResourceResolver.
type ResolverParams struct {
	Source  ResourceSource
	Context map[string]string
	Logger  observability.Logger
}

// ResourceResolver resolves resources for one validated context. It is not
// safe for concurrent use.
type ResourceResolver struct {
	source  ResourceSource
	context qualifiers.ValidatedContext
	logger  observability.Logger

	conditionCache map[int]ConditionMatch
	setCache       map[int]*ConditionSetMatch
	decisionCache  map[int][]int
}

// NewResourceResolver validates params.Context against the source's qualifiers.
func NewResourceResolver(params ResolverParams) (*ResourceResolver, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("resolver: source is required")
	}
	ctx, err := params.Source.ValidateContext(params.Context)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	return &ResourceResolver{
		source:         params.Source,
		context:        ctx,
		logger:         observability.OrNull(params.Logger),
		conditionCache: make(map[int]ConditionMatch),
		setCache:       make(map[int]*ConditionSetMatch),
		decisionCache:  make(map[int][]int),
	}, nil
}

// WithContext returns a resolver over the same source for another context,
// with empty caches.
func (r *ResourceResolver) WithContext(decl map[string]string) (*ResourceResolver, error) {
	return NewResourceResolver(ResolverParams{Source: r.source, Context: decl, Logger: r.logger})
}

// Context returns the validated context.
func (r *ResourceResolver) Context() qualifiers.ValidatedContext { return r.context }

// ResourceIDs returns the ids the source knows.
func (r *ResourceResolver) ResourceIDs() []string { return r.source.ResourceIDs() }

// GetResource returns the built resource for id from the source.
func (r *ResourceResolver) GetResource(id string) (*resources.Resource, error) {
	return r.source.GetBuiltResource(id)
}

// ResolveResource returns the best candidate for id.
func (r *ResourceResolver) ResolveResource(ctx context.Context, id string) (*resources.Candidate, error) {
	ranked, err := r.ResolveAllResourceCandidates(ctx, id)
	if err != nil {
		return nil, err
	}
	return ranked[0], nil
}

// ResolveAllResourceCandidates returns every candidate of id that matches
// the context, best first. It fails with ErrNoMatch when none does.
func (r *ResourceResolver) ResolveAllResourceCandidates(ctx context.Context, id string) ([]*resources.Candidate, error) {
	ctx, span := observability.StartResolveSpan(ctx, id, r.context.String())
	ranked, outcome, err := r.rank(ctx, id)
	observability.ResolutionsTotal.WithLabelValues(outcome).Inc()
	observability.EndSpanWithError(span, err)
	return ranked, err
}

// ResolveComposedResourceValue merges the matching candidates of id into
// one value. Candidates are walked best first until the first replace
// candidate, which becomes the base; the augment candidates above it merge
// over the base from lowest to highest rank. A null property in an
// augment candidate removes the property.
func (r *ResourceResolver) ResolveComposedResourceValue(ctx context.Context, id string) (map[string]any, error) {
	ranked, err := r.ResolveAllResourceCandidates(ctx, id)
	if err != nil {
		return nil, err
	}

	var base map[string]any
	stop := len(ranked)
	for i, c := range ranked {
		if c.MergeMethod() == common.MergeReplace {
			base = c.Value()
			stop = i
			break
		}
	}
	if base == nil {
		base = map[string]any{}
	}
	for i := stop - 1; i >= 0; i-- {
		base = resources.MergeObjects(base, ranked[i].Value(), false)
	}
	r.logger.Verbose("Composed {ResourceID} from {CandidateCount} candidates", id, min(stop+1, len(ranked)))
	return base, nil
}

func (r *ResourceResolver) rank(ctx context.Context, id string) ([]*resources.Candidate, string, error) {
	res, err := r.source.GetBuiltResource(id)
	if err != nil {
		return nil, outcomeError, err
	}
	decision := res.Decision().Decision()
	order := r.resolveDecision(ctx, decision)
	if len(order) == 0 {
		return nil, NoMatch.String(), fmt.Errorf("%s: %w for %s", id, ErrNoMatch, r.context)
	}

	candidates := res.Candidates()
	ranked := make([]*resources.Candidate, len(order))
	for i, pos := range order {
		ranked[i] = candidates[pos]
	}
	best := r.resolveConditionSet(ctx, ranked[0].ConditionSet())
	return ranked, best.Type.String(), nil
}

// resolveDecision returns the positions of the decision's matching
// condition sets, best first.
func (r *ResourceResolver) resolveDecision(ctx context.Context, d *decisions.AbstractDecision) []int {
	index := d.Index()
	if index >= 0 {
		if order, ok := r.decisionCache[index]; ok {
			r.recordCache(ctx, "decision", true)
			return order
		}
		r.recordCache(ctx, "decision", false)
	}

	sets := d.ConditionSets()
	matches := make([]*ConditionSetMatch, len(sets))
	var order []int
	for i, cs := range sets {
		matches[i] = r.resolveConditionSet(ctx, cs)
		if matches[i].Type != NoMatch {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return compareSetMatches(matches[a], matches[b])
	})

	if index >= 0 {
		r.decisionCache[index] = order
	}
	return order
}

func (r *ResourceResolver) resolveConditionSet(ctx context.Context, cs *conditions.ConditionSet) *ConditionSetMatch {
	if m, ok := r.setCache[cs.Index()]; ok {
		r.recordCache(ctx, "condition_set", true)
		return m
	}
	r.recordCache(ctx, "condition_set", false)

	conds := cs.Conditions()
	m := &ConditionSetMatch{Type: Match, Conditions: make([]ConditionMatch, len(conds))}
	for i, c := range conds {
		cm := r.resolveCondition(ctx, c)
		m.Conditions[i] = cm
		switch cm.Type {
		case NoMatch:
			m.Type = NoMatch
		case DefaultMatch:
			if m.Type == Match {
				m.Type = DefaultMatch
			}
		}
		if m.Type == NoMatch {
			break
		}
	}
	r.setCache[cs.Index()] = m
	return m
}

func (r *ResourceResolver) resolveCondition(ctx context.Context, c *conditions.Condition) ConditionMatch {
	if m, ok := r.conditionCache[c.Index()]; ok {
		r.recordCache(ctx, "condition", true)
		return m
	}
	r.recordCache(ctx, "condition", false)

	m := ConditionMatch{Type: NoMatch, Priority: c.Priority()}
	if _, present := r.context.Get(c.Qualifier().Name()); present {
		if score := c.Evaluate(r.context); score.IsMatch() {
			m.Type, m.Score = Match, score
		}
	}
	if m.Type == NoMatch {
		if score, ok := c.ScoreAsDefault(); ok {
			m.Type, m.Score = DefaultMatch, score
		}
	}
	r.conditionCache[c.Index()] = m
	return m
}

func (r *ResourceResolver) recordCache(ctx context.Context, kind string, hit bool) {
	result := observability.ResultMiss
	if hit {
		result = observability.ResultHit
	}
	observability.ResolverCacheTotal.WithLabelValues(kind, result).Inc()
	observability.RecordCacheHit(ctx, kind, hit)
}
