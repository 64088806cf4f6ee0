package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "language", true},
		{"underscore start", "_hidden", true},
		{"dash and digits", "home-territory2", true},
		{"empty", "", false},
		{"leading digit", "1abc", false},
		{"dot", "a.b", false},
		{"space", "a b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
			}
		})
	}
}

func TestValidateResourceID(t *testing.T) {
	assert.NoError(t, ValidateResourceID("app"))
	assert.NoError(t, ValidateResourceID("app.greeting"))
	assert.ErrorIs(t, ValidateResourceID(""), ErrInvalidResourceID)
	assert.ErrorIs(t, ValidateResourceID("app..greeting"), ErrInvalidResourceID)
	assert.ErrorIs(t, ValidateResourceID(".app"), ErrInvalidResourceID)

	segments, err := SplitResourceID("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, segments)
	assert.Equal(t, "a.b.c", JoinResourceID(segments...))
}

func TestValidateConditionPriority(t *testing.T) {
	p, err := ValidateConditionPriority(500)
	require.NoError(t, err)
	assert.Equal(t, ConditionPriority(500), p)

	_, err = ValidateConditionPriority(-1)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = ValidateConditionPriority(1001)
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestValidateQualifierMatchScore(t *testing.T) {
	s, err := ValidateQualifierMatchScore(0.5)
	require.NoError(t, err)
	assert.True(t, s.IsMatch())

	_, err = ValidateQualifierMatchScore(1.5)
	assert.ErrorIs(t, err, ErrInvalidScore)
	assert.False(t, NoMatch.IsMatch())
}

func TestValidateConditionOperator(t *testing.T) {
	op, err := ValidateConditionOperator("")
	require.NoError(t, err)
	assert.Equal(t, OperatorMatches, op)

	_, err = ValidateConditionOperator("equals")
	assert.ErrorIs(t, err, ErrInvalidOperator)
}

func TestValidateMergeMethod(t *testing.T) {
	m, err := ValidateMergeMethod("", true)
	require.NoError(t, err)
	assert.Equal(t, MergeAugment, m)

	m, err = ValidateMergeMethod("", false)
	require.NoError(t, err)
	assert.Equal(t, MergeReplace, m)

	_, err = ValidateMergeMethod("delete", false)
	assert.ErrorIs(t, err, ErrInvalidMergeMethod)
}

func TestDetailOf(t *testing.T) {
	err := Detailf(DetailExists, "candidate %s already exists", "x")
	wrapped := fmt.Errorf("add candidate: %w", err)

	assert.Equal(t, DetailExists, DetailOf(wrapped))
	assert.Equal(t, DetailNone, DetailOf(errors.New("plain")))
	assert.Nil(t, WithDetail(DetailInvalid, nil))
}

func TestAggregate(t *testing.T) {
	var agg Aggregate
	assert.NoError(t, agg.Err())

	agg.Add(nil)
	agg.Add(ErrNotFound)
	agg.Addf("second %d", 2)

	require.Equal(t, 2, agg.Len())
	err := agg.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "second 2")
}
