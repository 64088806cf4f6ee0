// Package delta derives the candidate edits that turn one resource set into
// another for a single context.
//
// A Generator resolves every resource in a baseline and a delta resolver,
// compares the composed values and expresses the differences as candidates
// conditioned on the context. The edits are applied to a clone of the
// target manager, so the result resolves like the delta for that context
// and like the baseline everywhere else.
package delta

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/resources"
	"github.com/willibrandon/gores/runtime"
)

// Actions recorded per resource.
const (
	ActionAdded     = "added"
	ActionChanged   = "changed"
	ActionUnchanged = "unchanged"
	ActionSkipped   = "skipped"
	ActionFailed    = "failed"
)

// GeneratorParams configure a Generator.
type GeneratorParams struct {
	// Baseline resolves the values the edits are computed against.
	Baseline *runtime.ResourceResolver
	// Delta resolves the desired values.
	Delta *runtime.ResourceResolver
	// Target is cloned to receive the edits. Normally the baseline's manager.
	Target *resources.Manager
	Logger observability.Logger
}

// Generator computes delta edits.
type Generator struct {
	baseline *runtime.ResourceResolver
	delta    *runtime.ResourceResolver
	target   *resources.Manager
	logger   observability.Logger
}

// GenerateOptions control one generation.
type GenerateOptions struct {
	// Context is resolved on both sides and conditions every edit.
	Context map[string]string
	// IncludeUnchanged emits a replace candidate for resources whose values
	// are equal on both sides.
	IncludeUnchanged bool
}

// Result describes what a generation did per resource.
type Result struct {
	Edits   []resources.CandidateDecl
	Actions map[string]string
}

// NewGenerator validates params.
func NewGenerator(params GeneratorParams) (*Generator, error) {
	if params.Baseline == nil || params.Delta == nil {
		return nil, fmt.Errorf("delta: baseline and delta resolvers are required")
	}
	if params.Target == nil {
		return nil, fmt.Errorf("delta: target manager is required")
	}
	return &Generator{
		baseline: params.Baseline,
		delta:    params.Delta,
		target:   params.Target,
		logger:   observability.OrNull(params.Logger),
	}, nil
}

// Generate computes the edits for opts.Context and applies them to a clone
// of the target. Per-resource failures are aggregated; the clone carrying
// every edit that could be computed is returned together with the error.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*resources.Manager, error) {
	result, err := g.Diff(ctx, opts)
	if result == nil {
		return nil, err
	}

	var agg common.Aggregate
	agg.Add(err)
	clone, cloneErr := g.target.Clone(resources.CloneOptions{Edits: result.Edits})
	agg.Add(cloneErr)
	if clone == nil {
		return nil, agg.Err()
	}
	g.logger.Debug("Applied {EditCount} delta edits", len(result.Edits))
	return clone, agg.Err()
}

// Diff computes the edits for opts.Context without applying them.
func (g *Generator) Diff(ctx context.Context, opts GenerateOptions) (*Result, error) {
	baseline, err := g.baseline.WithContext(opts.Context)
	if err != nil {
		return nil, fmt.Errorf("delta baseline: %w", err)
	}
	delta, err := g.delta.WithContext(opts.Context)
	if err != nil {
		return nil, fmt.Errorf("delta: %w", err)
	}

	ids := union(baseline.ResourceIDs(), delta.ResourceIDs())
	ctx, span := observability.StartDeltaSpan(ctx, delta.Context().String(), len(ids))

	conds := conditions.FromMap(delta.Context())
	result := &Result{Actions: make(map[string]string, len(ids))}
	var agg common.Aggregate
	for _, id := range ids {
		edit, action, err := g.diffResource(ctx, baseline, delta, id, opts.IncludeUnchanged)
		result.Actions[id] = action
		observability.DeltaResourcesTotal.WithLabelValues(action).Inc()
		if err != nil {
			agg.Add(fmt.Errorf("%s: %w", id, err))
			continue
		}
		if edit != nil {
			edit.Conditions = conds
			result.Edits = append(result.Edits, *edit)
		}
	}

	err = agg.Err()
	observability.EndSpanWithError(span, err)
	return result, err
}

func (g *Generator) diffResource(ctx context.Context, baseline, delta *runtime.ResourceResolver, id string, includeUnchanged bool) (*resources.CandidateDecl, string, error) {
	dv, err := delta.ResolveComposedResourceValue(ctx, id)
	switch {
	case errors.Is(err, common.ErrNotFound), errors.Is(err, runtime.ErrNoMatch):
		g.logger.Warn("Skipping {ResourceID}: no delta value for {Context}", id, delta.Context())
		return nil, ActionSkipped, nil
	case err != nil:
		return nil, ActionFailed, err
	}

	bv, err := baseline.ResolveComposedResourceValue(ctx, id)
	switch {
	case errors.Is(err, common.ErrNotFound), errors.Is(err, runtime.ErrNoMatch):
		res, err := delta.GetResource(id)
		if err != nil {
			return nil, ActionFailed, err
		}
		g.logger.Verbose("Adding {ResourceID}", id)
		return &resources.CandidateDecl{
			ID:               id,
			JSON:             dv,
			ResourceTypeName: res.ResourceType().Name(),
		}, ActionAdded, nil
	case err != nil:
		return nil, ActionFailed, err
	}

	if Equal(bv, dv) {
		if !includeUnchanged {
			return nil, ActionUnchanged, nil
		}
		return &resources.CandidateDecl{ID: id, JSON: dv}, ActionUnchanged, nil
	}

	g.logger.Verbose("Updating {ResourceID}", id)
	return &resources.CandidateDecl{
		ID:          id,
		JSON:        Diff(bv, dv),
		IsPartial:   true,
		MergeMethod: string(common.MergeAugment),
	}, ActionChanged, nil
}

func union(a, b []string) []string {
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}
