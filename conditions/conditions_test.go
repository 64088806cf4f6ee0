package conditions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/config"
	"github.com/willibrandon/gores/qualifiers"
)

func newCollectors(t *testing.T) (*ConditionCollector, *ConditionSetCollector) {
	t.Helper()
	cc := NewConditionCollector(config.Default().Qualifiers())
	return cc, NewConditionSetCollector(cc)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestConditionInterning(t *testing.T) {
	cc, _ := newCollectors(t)

	a, err := cc.GetOrAdd(ConditionDecl{QualifierName: "language", Value: "en-us"})
	require.NoError(t, err)
	b, err := cc.GetOrAdd(ConditionDecl{QualifierName: "language", Value: "en-US", Operator: "matches"})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 0, a.Index())
	assert.Equal(t, "language-[en-US]@850", a.Key())
	assert.Equal(t, "language=en-US", a.Token())
	assert.Equal(t, 1, cc.Len())

	c, err := cc.GetOrAdd(ConditionDecl{QualifierName: "language", Value: "en-US", Priority: intPtr(100)})
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, "language=en-US@100", c.Token())

	d, err := cc.GetOrAdd(ConditionDecl{QualifierName: "env", Value: "prod", ScoreAsDefault: floatPtr(0.25)})
	require.NoError(t, err)
	assert.Equal(t, "env-[prod]@500(0.25)", d.Key())
	score, ok := d.ScoreAsDefault()
	assert.True(t, ok)
	assert.Equal(t, common.QualifierMatchScore(0.25), score)
}

func TestConditionValidation(t *testing.T) {
	cc, _ := newCollectors(t)

	tests := []struct {
		name   string
		decl   ConditionDecl
		target error
	}{
		{"unknown qualifier", ConditionDecl{QualifierName: "device", Value: "x"}, common.ErrNotFound},
		{"bad operator", ConditionDecl{QualifierName: "env", Value: "prod", Operator: "contains"}, common.ErrInvalidOperator},
		{"bad priority", ConditionDecl{QualifierName: "env", Value: "prod", Priority: intPtr(1001)}, common.ErrInvalidPriority},
		{"bad score", ConditionDecl{QualifierName: "env", Value: "prod", ScoreAsDefault: floatPtr(1.5)}, common.ErrInvalidScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cc.GetOrAdd(tt.decl)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := cc.GetOrAdd(ConditionDecl{QualifierName: "territory", Value: "usa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usa")
	assert.Equal(t, common.DetailInvalid, common.DetailOf(err))
	assert.Equal(t, 0, cc.Len())
}

func TestConditionSetInterning(t *testing.T) {
	_, csc := newCollectors(t)

	assert.Equal(t, 1, csc.Len())
	assert.True(t, csc.Unconditional().IsUnconditional())
	assert.Equal(t, UnconditionalKey, csc.Unconditional().Key())
	assert.Equal(t, 0, csc.Unconditional().Index())

	empty, err := csc.GetOrAdd(nil)
	require.NoError(t, err)
	assert.Same(t, csc.Unconditional(), empty)

	a, err := csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "env", Value: "prod"},
		{QualifierName: "language", Value: "en"},
	})
	require.NoError(t, err)
	b, err := csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "language", Value: "en"},
		{QualifierName: "env", Value: "prod"},
		{QualifierName: "env", Value: "prod"},
	})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, a.Index())
	assert.Equal(t, "language-[en]@850+env-[prod]@500", a.Key())
	assert.Equal(t, "language=en,env=prod", a.Token())
	assert.Equal(t, "", csc.Unconditional().Token())
}

func TestConditionSetConflicts(t *testing.T) {
	_, csc := newCollectors(t)

	_, err := csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "env", Value: "prod"},
		{QualifierName: "env", Value: "dev"},
	})
	assert.Equal(t, common.DetailInvalid, common.DetailOf(err))

	_, err = csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "device", Value: "x"},
		{QualifierName: "territory", Value: "usa"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "usa")
}

func TestCompareConditionSets(t *testing.T) {
	_, csc := newCollectors(t)

	mustSet := func(decl ConditionSetDecl) *ConditionSet {
		cs, err := csc.GetOrAdd(decl)
		require.NoError(t, err)
		return cs
	}

	language := mustSet(ConditionSetDecl{{QualifierName: "language", Value: "en"}})
	env := mustSet(ConditionSetDecl{{QualifierName: "env", Value: "prod"}})
	both := mustSet(ConditionSetDecl{{QualifierName: "language", Value: "en"}, {QualifierName: "env", Value: "prod"}})
	unconditional := csc.Unconditional()

	assert.Negative(t, CompareConditionSets(language, env), "higher priority first")
	assert.Negative(t, CompareConditionSets(both, language), "longer set first")
	assert.Negative(t, CompareConditionSets(env, unconditional))
	assert.Zero(t, CompareConditionSets(both, both))
	assert.Positive(t, CompareConditionSets(unconditional, both))
}

func TestCanMatchPartialContext(t *testing.T) {
	_, csc := newCollectors(t)

	cs, err := csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "language", Value: "en"},
		{QualifierName: "env", Value: "prod"},
	})
	require.NoError(t, err)

	defaulted, err := csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "env", Value: "prod", ScoreAsDefault: floatPtr(0.5)},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		set     *ConditionSet
		ctx     qualifiers.ValidatedContext
		partial bool
		want    bool
	}{
		{"full match", cs, qualifiers.ValidatedContext{"language": "en-US", "env": "prod"}, false, true},
		{"mismatch", cs, qualifiers.ValidatedContext{"language": "fr", "env": "prod"}, false, false},
		{"missing without partial", cs, qualifiers.ValidatedContext{"env": "prod"}, false, false},
		{"missing with partial", cs, qualifiers.ValidatedContext{"env": "prod"}, true, true},
		{"mismatch with partial", cs, qualifiers.ValidatedContext{"env": "dev"}, true, false},
		{"default score accepts mismatch", defaulted, qualifiers.ValidatedContext{"env": "dev"}, false, true},
		{"unconditional", csc.Unconditional(), qualifiers.ValidatedContext{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.CanMatchPartialContext(tt.ctx, MatchOptions{PartialContextMatch: tt.partial})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduce(t *testing.T) {
	_, csc := newCollectors(t)
	cs, err := csc.GetOrAdd(ConditionSetDecl{
		{QualifierName: "language", Value: "en"},
		{QualifierName: "env", Value: "prod", Priority: intPtr(10)},
	})
	require.NoError(t, err)

	reduced := cs.Reduce([]string{"language"})
	require.Len(t, reduced, 1)
	assert.Equal(t, "env", reduced[0].QualifierName)
	require.NotNil(t, reduced[0].Priority)
	assert.Equal(t, 10, *reduced[0].Priority)

	again, err := csc.GetOrAdd(cs.Decl())
	require.NoError(t, err)
	assert.Same(t, cs, again)
}

func TestConditionSetDeclJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ConditionSetDecl
	}{
		{"object form", `{"language": "en", "env": "prod"}`, ConditionSetDecl{
			{QualifierName: "env", Value: "prod"},
			{QualifierName: "language", Value: "en"},
		}},
		{"array form", `[{"qualifierName": "language", "value": "en", "priority": 10}]`, ConditionSetDecl{
			{QualifierName: "language", Value: "en", Priority: intPtr(10)},
		}},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ConditionSetDecl
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad ConditionSetDecl
	assert.Error(t, json.Unmarshal([]byte(`{"language": 1}`), &bad))
}

func TestGetOrAddIndices(t *testing.T) {
	cc, csc := newCollectors(t)
	c, err := cc.GetOrAdd(ConditionDecl{QualifierName: "platform", Value: "ios"})
	require.NoError(t, err)

	cs, err := csc.GetOrAddIndices([]int{c.Index()})
	require.NoError(t, err)
	assert.Equal(t, []*Condition{c}, cs.Conditions())

	_, err = csc.GetOrAddIndices([]int{42})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
