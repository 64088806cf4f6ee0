package collections

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willibrandon/gores/common"
)

type item struct {
	index int
	name  string
}

func newItem(name string) func(int) (*item, error) {
	return func(index int) (*item, error) {
		return &item{index: index, name: name}, nil
	}
}

func TestCollector_GetOrAdd(t *testing.T) {
	c := NewCollector[*item]("items")

	a, added, err := c.GetOrAdd("a", newItem("a"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 0, a.index)

	b, added, err := c.GetOrAdd("b", newItem("b"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, b.index)

	again, added, err := c.GetOrAdd("a", newItem("other"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Same(t, a, again)
	assert.Equal(t, 2, c.Len())
}

func TestCollector_FactoryError(t *testing.T) {
	c := NewCollector[*item]("items")
	boom := errors.New("boom")

	_, _, err := c.GetOrAdd("a", func(int) (*item, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	// A failed factory must not consume an index.
	a, _, err := c.GetOrAdd("a", newItem("a"))
	require.NoError(t, err)
	assert.Equal(t, 0, a.index)
}

func TestCollector_Lookups(t *testing.T) {
	c := NewCollector[*item]("items")
	for _, name := range []string{"x", "y", "z"} {
		_, _, err := c.GetOrAdd(name, newItem(name))
		require.NoError(t, err)
	}

	got, err := c.GetAt(2)
	require.NoError(t, err)
	assert.Equal(t, "z", got.name)

	_, err = c.GetAt(3)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, common.DetailNotFound, common.DetailOf(err))

	idx, ok := c.IndexOf("y")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	key, ok := c.KeyAt(1)
	assert.True(t, ok)
	assert.Equal(t, "y", key)

	values := c.Values()
	require.Len(t, values, 3)
	assert.Equal(t, "x", values[0].name)
	assert.True(t, c.Has("x"))
	assert.False(t, c.Has("w"))
}
