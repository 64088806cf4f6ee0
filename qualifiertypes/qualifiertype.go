// Package qualifiertypes defines how condition values are validated and scored
// against runtime context values.
//
// There are exactly three kinds of qualifier type:
//   - Literal: exact (optionally case-insensitive) comparison, optional
//     enumerated values and an optional value hierarchy
//   - Territory: ISO-3166 alpha-2 region codes, optional allow-list and hierarchy
//   - Language: BCP-47 tags scored by similarity
//
// Example:
//
//	qt, err := qualifiertypes.NewLanguage(qualifiertypes.LanguageParams{Name: "language"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	score := qt.Matches("en", "en-US", common.OperatorMatches) // 0.5
package qualifiertypes

import (
	"fmt"
	"strings"

	"github.com/willibrandon/gores/common"
)

// SystemType discriminates qualifier type configurations.
type SystemType string

const (
	// SystemTypeLiteral selects LiteralQualifierType.
	SystemTypeLiteral SystemType = "literal"
	// SystemTypeTerritory selects TerritoryQualifierType.
	SystemTypeTerritory SystemType = "territory"
	// SystemTypeLanguage selects LanguageQualifierType.
	SystemTypeLanguage SystemType = "language"
)

// QualifierType validates and scores the values of one class of qualifier.
// The set of implementations is closed: Literal, Territory and Language.
type QualifierType interface {
	// Name returns the unique name of the type.
	Name() string

	// SystemType returns the variant discriminator.
	SystemType() SystemType

	// Index returns the global index and whether it has been assigned.
	Index() (int, bool)

	// SetIndex assigns the global index. It can be assigned exactly once;
	// re-assigning the same value is a no-op.
	SetIndex(index int) error

	// AllowContextList reports whether context values may be comma-separated lists.
	AllowContextList() bool

	// IsValidConditionValue reports whether value may appear in a condition.
	IsValidConditionValue(value string) bool

	// IsValidContextValue reports whether value may appear in a context.
	IsValidContextValue(value string) bool

	// ValidateCondition validates a condition value and operator and
	// returns the normalized value.
	ValidateCondition(value string, op common.ConditionOperator) (string, error)

	// ValidateContextValue validates a context value and returns the normalized value.
	ValidateContextValue(value string) (string, error)

	// Matches scores a condition value against a context value.
	Matches(condition, context string, op common.ConditionOperator) common.QualifierMatchScore

	// Config returns the declarative configuration for the type.
	Config() ConfigDecl

	sealed()
}

// baseType holds the state shared by every variant.
type baseType struct {
	name             string
	index            int
	hasIndex         bool
	allowContextList bool
}

func newBaseType(name string, index *int, allowContextList bool) (baseType, error) {
	if err := common.ValidateIdentifier(name); err != nil {
		return baseType{}, fmt.Errorf("qualifier type name: %w", err)
	}
	b := baseType{name: name, allowContextList: allowContextList}
	if index != nil {
		if *index < 0 {
			return baseType{}, fmt.Errorf("%s: %w: %d", name, ErrInvalidIndex, *index)
		}
		b.index = *index
		b.hasIndex = true
	}
	return b, nil
}

func (b *baseType) Name() string { return b.name }

func (b *baseType) Index() (int, bool) { return b.index, b.hasIndex }

func (b *baseType) SetIndex(index int) error {
	if index < 0 {
		return fmt.Errorf("%s: %w: %d", b.name, ErrInvalidIndex, index)
	}
	if b.hasIndex {
		if b.index == index {
			return nil
		}
		return fmt.Errorf("%s: %w: already %d, cannot change to %d", b.name, ErrIndexAlreadySet, b.index, index)
	}
	b.index = index
	b.hasIndex = true
	return nil
}

func (b *baseType) AllowContextList() bool { return b.allowContextList }

func (b *baseType) sealed() {}

// splitContextList splits a comma-separated context value into trimmed elements.
func splitContextList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// validateContext validates a possibly-list context value element by element.
func (b *baseType) validateContext(value string, validateOne func(string) (string, error)) (string, error) {
	if !b.allowContextList || !strings.Contains(value, ",") {
		return validateOne(value)
	}
	parts := splitContextList(value)
	normalized := make([]string, 0, len(parts))
	for _, p := range parts {
		n, err := validateOne(p)
		if err != nil {
			return "", err
		}
		normalized = append(normalized, n)
	}
	return strings.Join(normalized, ","), nil
}

// matches applies matchOne to a single context value, or walks a context
// list and scores the first matching element. The first element scores as
// supplied; an element at position p of n with score s scores
// PerfectMatch - p/n + s/n, so position sets the step and similarity fills
// the remainder. A strong match at position 1 can outrank a weak match at
// position 0.
func (b *baseType) matches(condition, context string, op common.ConditionOperator,
	matchOne func(condition, context string) common.QualifierMatchScore) common.QualifierMatchScore {
	if op != common.OperatorMatches && op != "" {
		return common.NoMatch
	}

	if !b.allowContextList || !strings.Contains(context, ",") {
		return matchOne(condition, context)
	}

	values := splitContextList(context)
	n := common.QualifierMatchScore(len(values))
	for position, value := range values {
		score := matchOne(condition, value)
		if !score.IsMatch() {
			continue
		}
		if position == 0 {
			return score
		}
		p := common.QualifierMatchScore(position)
		return common.PerfectMatch - p/n + score/n
	}
	return common.NoMatch
}

func validateOperator(typeName string, op common.ConditionOperator) error {
	if _, err := common.ValidateConditionOperator(string(op)); err != nil {
		return fmt.Errorf("%s: %w", typeName, err)
	}
	return nil
}
