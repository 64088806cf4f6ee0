package resourcetypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gores/common"
)

func TestCollector(t *testing.T) {
	c, err := NewCollector(ConfigDecl{Name: "json", TypeName: TypeJSON}, ConfigDecl{Name: "strings"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	rt, err := c.Get("strings")
	require.NoError(t, err)
	assert.Equal(t, 1, rt.Index())
	assert.Equal(t, TypeJSON, rt.Key())

	again, err := c.GetOrAdd(ConfigDecl{Name: "strings", TypeName: TypeJSON})
	require.NoError(t, err)
	assert.Same(t, rt, again)

	_, err = c.GetOrAdd(ConfigDecl{Name: "binary", TypeName: "blob"})
	assert.Equal(t, common.DetailInvalid, common.DetailOf(err))

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Equal(t, []ConfigDecl{{Name: "json", TypeName: "json"}, {Name: "strings", TypeName: "json"}}, c.Configs())
}

func TestValidateValue(t *testing.T) {
	c, err := NewCollector(ConfigDecl{Name: "json"})
	require.NoError(t, err)
	rt, err := c.Get("json")
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   any
		want    map[string]any
		wantErr bool
	}{
		{"object", map[string]any{"text": "Hi"}, map[string]any{"text": "Hi"}, false},
		{"struct", struct {
			Count int `json:"count"`
		}{Count: 2}, map[string]any{"count": float64(2)}, false},
		{"nested int normalized", map[string]any{"n": map[string]any{"v": 1}}, map[string]any{"n": map[string]any{"v": float64(1)}}, false},
		{"string", "hello", nil, true},
		{"array", []any{1, 2}, nil, true},
		{"null", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rt.ValidateValue(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
