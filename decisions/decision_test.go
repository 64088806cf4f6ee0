package decisions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/conditions"
	"github.com/willibrandon/gores/config"
)

func newConditionSets(t *testing.T) *conditions.ConditionSetCollector {
	t.Helper()
	return conditions.NewConditionSetCollector(conditions.NewConditionCollector(config.Default().Qualifiers()))
}

func TestCollector(t *testing.T) {
	csc := newConditionSets(t)
	en, err := csc.GetOrAdd(conditions.ConditionSetDecl{{QualifierName: "language", Value: "en"}})
	require.NoError(t, err)
	unconditional := csc.Unconditional()

	c := NewCollector()
	assert.Equal(t, 0, c.Len())

	d, err := c.GetOrAdd([]*conditions.ConditionSet{en, unconditional})
	require.NoError(t, err)
	assert.Equal(t, "1+0", d.Key())
	assert.Equal(t, 0, d.Index())

	shared, err := c.GetOrAddIndices(csc, []int{1, 0})
	require.NoError(t, err)
	assert.Same(t, d, shared)

	reversed, err := c.GetOrAdd([]*conditions.ConditionSet{unconditional, en})
	require.NoError(t, err)
	assert.NotSame(t, d, reversed)
	assert.Equal(t, 1, reversed.Index())

	empty, err := c.GetOrAdd(nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyKey, empty.Key())

	_, err = c.GetOrAddIndices(csc, []int{9})
	assert.ErrorIs(t, err, common.ErrNotFound)

	at, err := c.GetAt(1)
	require.NoError(t, err)
	assert.Same(t, reversed, at)
}

func TestConcreteDecision(t *testing.T) {
	csc := newConditionSets(t)
	d := NewAbstractDecision([]*conditions.ConditionSet{csc.Unconditional()})
	assert.Equal(t, -1, d.Index())

	cd, err := NewConcreteDecision(d, []Candidate{{Value: map[string]any{"a": 1.0}, MergeMethod: common.MergeReplace}})
	require.NoError(t, err)
	assert.Same(t, d, cd.Decision())
	assert.Len(t, cd.Candidates(), 1)

	_, err = NewConcreteDecision(d, nil)
	assert.ErrorIs(t, err, ErrCandidateCount)
}
