package delta

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/config"
	"github.com/willibrandon/gores/resources"
	"github.com/willibrandon/gores/resourcetypes"
	"github.com/willibrandon/gores/runtime"
)

func newManager(t *testing.T, sc *config.SystemConfiguration, decls ...resources.CandidateDecl) *resources.Manager {
	t.Helper()
	if sc == nil {
		sc = config.Default()
	}
	m, err := resources.NewManager(resources.ManagerParams{
		Qualifiers:              sc.Qualifiers(),
		ResourceTypes:           sc.ResourceTypes(),
		DefaultResourceTypeName: "json",
	})
	require.NoError(t, err)
	for _, d := range decls {
		require.NoError(t, m.AddLooseCandidate(d))
	}
	return m
}

func loose(id string, conds map[string]string, value map[string]any) resources.CandidateDecl {
	return resources.CandidateDecl{ID: id, JSON: value, Conditions: conditions.FromMap(conds)}
}

func newGenerator(t *testing.T, baseline, delta *resources.Manager) *Generator {
	t.Helper()
	br, err := runtime.NewResourceResolver(runtime.ResolverParams{Source: baseline})
	require.NoError(t, err)
	dr, err := runtime.NewResourceResolver(runtime.ResolverParams{Source: delta})
	require.NoError(t, err)
	g, err := NewGenerator(GeneratorParams{Baseline: br, Delta: dr, Target: baseline})
	require.NoError(t, err)
	return g
}

func resolve(t *testing.T, m *resources.Manager, ctx map[string]string, id string) (map[string]any, error) {
	t.Helper()
	r, err := runtime.NewResourceResolver(runtime.ResolverParams{Source: m, Context: ctx})
	require.NoError(t, err)
	return r.ResolveComposedResourceValue(context.Background(), id)
}

func fixtures(t *testing.T) (*resources.Manager, *resources.Manager) {
	baseline := newManager(t, nil,
		loose("app.greeting", nil, map[string]any{"text": "Hello", "tone": "warm"}),
		loose("app.greeting", map[string]string{"language": "fr"}, map[string]any{"text": "Bonjour"}),
		loose("app.legacy", nil, map[string]any{"v": 1.0}),
		loose("app.same", nil, map[string]any{"v": 1.0}),
	)
	delta := newManager(t, nil,
		loose("app.greeting", nil, map[string]any{"text": "Hi", "emoji": "wave"}),
		loose("app.new", nil, map[string]any{"v": 2.0}),
		loose("app.same", nil, map[string]any{"v": 1.0}),
	)
	return baseline, delta
}

func TestGeneratorDiff(t *testing.T) {
	baseline, delta := fixtures(t)
	g := newGenerator(t, baseline, delta)

	result, err := g.Diff(context.Background(), GenerateOptions{Context: map[string]string{"env": "prod"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"app.greeting": ActionChanged,
		"app.legacy":   ActionSkipped,
		"app.new":      ActionAdded,
		"app.same":     ActionUnchanged,
	}, result.Actions)

	require.Len(t, result.Edits, 2)
	greeting := result.Edits[0]
	assert.Equal(t, "app.greeting", greeting.ID)
	assert.True(t, greeting.IsPartial)
	assert.Equal(t, string(common.MergeAugment), greeting.MergeMethod)
	assert.Equal(t, map[string]any{"text": "Hi", "emoji": "wave", "tone": nil}, greeting.JSON)
	assert.Equal(t, conditions.FromMap(map[string]string{"env": "prod"}), greeting.Conditions)

	added := result.Edits[1]
	assert.Equal(t, "app.new", added.ID)
	assert.False(t, added.IsPartial)
	assert.Equal(t, "json", added.ResourceTypeName)
}

func TestGeneratorIncludeUnchanged(t *testing.T) {
	baseline, delta := fixtures(t)
	g := newGenerator(t, baseline, delta)

	result, err := g.Diff(context.Background(), GenerateOptions{
		Context:          map[string]string{"env": "prod"},
		IncludeUnchanged: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Edits, 3)
	assert.Equal(t, "app.same", result.Edits[2].ID)
	assert.Equal(t, map[string]any{"v": 1.0}, result.Edits[2].JSON)
}

func TestGenerate(t *testing.T) {
	baseline, delta := fixtures(t)
	g := newGenerator(t, baseline, delta)

	clone, err := g.Generate(context.Background(), GenerateOptions{Context: map[string]string{"env": "prod"}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		context map[string]string
		id      string
		want    map[string]any
		wantErr error
	}{
		{"changed resource resolves to delta", map[string]string{"env": "prod"}, "app.greeting",
			map[string]any{"text": "Hi", "emoji": "wave"}, nil},
		{"other contexts keep baseline", map[string]string{"env": "dev"}, "app.greeting",
			map[string]any{"text": "Hello", "tone": "warm"}, nil},
		{"more specific baseline candidates still win", map[string]string{"env": "prod", "language": "fr"}, "app.greeting",
			map[string]any{"text": "Bonjour"}, nil},
		{"added resource", map[string]string{"env": "prod"}, "app.new", map[string]any{"v": 2.0}, nil},
		{"added resource is conditioned", map[string]string{"env": "dev"}, "app.new", nil, runtime.ErrNoMatch},
		{"baseline only resource kept", map[string]string{"env": "prod"}, "app.legacy", map[string]any{"v": 1.0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(t, clone, tt.context, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// the target is untouched
	got, err := resolve(t, baseline, map[string]string{"env": "prod"}, "app.greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got["text"])
}

func TestGenerateAggregatesErrors(t *testing.T) {
	baseline, _ := fixtures(t)

	sc := config.Default()
	_, err := sc.ResourceTypes().GetOrAdd(resourcetypes.ConfigDecl{Name: "settings"})
	require.NoError(t, err)
	delta := newManager(t, sc,
		loose("app.greeting", nil, map[string]any{"text": "Hi"}),
		resources.CandidateDecl{ID: "app.flags", ResourceTypeName: "settings", JSON: map[string]any{"beta": true}},
	)
	g := newGenerator(t, baseline, delta)

	clone, err := g.Generate(context.Background(), GenerateOptions{Context: map[string]string{"env": "prod"}})
	require.Error(t, err)
	require.NotNil(t, clone, "edits that apply are kept")

	got, rerr := resolve(t, clone, map[string]string{"env": "prod"}, "app.greeting")
	require.NoError(t, rerr)
	assert.Equal(t, map[string]any{"text": "Hi"}, got)
	assert.NotContains(t, clone.ResourceIDs(), "app.flags")
}

func TestGenerateInvalidContext(t *testing.T) {
	baseline, delta := fixtures(t)
	g := newGenerator(t, baseline, delta)

	clone, err := g.Generate(context.Background(), GenerateOptions{Context: map[string]string{"device": "x"}})
	assert.Nil(t, clone)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = NewGenerator(GeneratorParams{})
	assert.Error(t, err)
}
