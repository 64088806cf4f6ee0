package qualifiertypes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/willibrandon/gores/common"
)

var literalValueRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// LiteralParams configures a LiteralQualifierType.
type LiteralParams struct {
	Name             string
	Index            *int
	AllowContextList bool
	CaseSensitive    bool

	// EnumeratedValues restricts the valid values. Empty means any value
	// matching the literal pattern is valid.
	EnumeratedValues []string

	// Hierarchy maps values to their parents.
	Hierarchy map[string]string
}

// LiteralQualifierType compares values exactly, or through a value hierarchy.
type LiteralQualifierType struct {
	baseType
	caseSensitive bool
	enumerated    map[string]bool
	enumOrder     []string
	hierarchy     *LiteralValueHierarchy[string]
}

// NewLiteral creates a literal qualifier type.
func NewLiteral(params LiteralParams) (*LiteralQualifierType, error) {
	base, err := newBaseType(params.Name, params.Index, params.AllowContextList)
	if err != nil {
		return nil, err
	}

	lt := &LiteralQualifierType{
		baseType:      base,
		caseSensitive: params.CaseSensitive,
	}

	var agg common.Aggregate
	if len(params.EnumeratedValues) > 0 {
		lt.enumerated = make(map[string]bool, len(params.EnumeratedValues))
		for _, v := range params.EnumeratedValues {
			if !literalValueRegex.MatchString(v) {
				agg.Addf("%s: %w: enumerated value %q", params.Name, ErrInvalidValue, v)
				continue
			}
			key := lt.normalize(v)
			if !lt.enumerated[key] {
				lt.enumerated[key] = true
				lt.enumOrder = append(lt.enumOrder, v)
			}
		}
	}

	if len(params.Hierarchy) > 0 {
		parents := make(map[string]string, len(params.Hierarchy))
		for child, parent := range params.Hierarchy {
			for _, v := range []string{child, parent} {
				if !lt.isValidLiteral(v) {
					agg.Addf("%s: %w: hierarchy value %q", params.Name, ErrInvalidValue, v)
				}
			}
			parents[lt.normalize(child)] = lt.normalize(parent)
		}
		if agg.Len() == 0 {
			var values []string
			for _, v := range lt.enumOrder {
				values = append(values, lt.normalize(v))
			}
			lt.hierarchy, err = NewLiteralValueHierarchy(HierarchyParams[string]{Values: values, Parents: parents})
			if err != nil {
				agg.Add(fmt.Errorf("%s: %w", params.Name, err))
			}
		}
	}

	if err := agg.Err(); err != nil {
		return nil, err
	}
	return lt, nil
}

// SystemType implements QualifierType.
func (lt *LiteralQualifierType) SystemType() SystemType { return SystemTypeLiteral }

// CaseSensitive reports whether comparisons are case sensitive.
func (lt *LiteralQualifierType) CaseSensitive() bool { return lt.caseSensitive }

// EnumeratedValues returns the allowed values in declaration order, if any.
func (lt *LiteralQualifierType) EnumeratedValues() []string {
	out := make([]string, len(lt.enumOrder))
	copy(out, lt.enumOrder)
	return out
}

// Hierarchy returns the value hierarchy, or nil.
func (lt *LiteralQualifierType) Hierarchy() *LiteralValueHierarchy[string] { return lt.hierarchy }

func (lt *LiteralQualifierType) normalize(v string) string {
	if lt.caseSensitive {
		return v
	}
	return strings.ToLower(v)
}

func (lt *LiteralQualifierType) isValidLiteral(v string) bool {
	if !literalValueRegex.MatchString(v) {
		return false
	}
	if lt.enumerated != nil {
		return lt.enumerated[lt.normalize(v)]
	}
	return true
}

// IsValidConditionValue implements QualifierType.
func (lt *LiteralQualifierType) IsValidConditionValue(value string) bool {
	return lt.isValidLiteral(value)
}

// IsValidContextValue implements QualifierType.
func (lt *LiteralQualifierType) IsValidContextValue(value string) bool {
	_, err := lt.ValidateContextValue(value)
	return err == nil
}

// ValidateCondition implements QualifierType.
func (lt *LiteralQualifierType) ValidateCondition(value string, op common.ConditionOperator) (string, error) {
	if err := validateOperator(lt.name, op); err != nil {
		return "", err
	}
	if !lt.isValidLiteral(value) {
		return "", fmt.Errorf("%s: %w: %q is not a valid condition value", lt.name, ErrInvalidValue, value)
	}
	return value, nil
}

// ValidateContextValue implements QualifierType.
func (lt *LiteralQualifierType) ValidateContextValue(value string) (string, error) {
	return lt.validateContext(value, func(v string) (string, error) {
		if !lt.isValidLiteral(v) {
			return "", fmt.Errorf("%s: %w: %q is not a valid context value", lt.name, ErrInvalidValue, v)
		}
		return v, nil
	})
}

// Matches implements QualifierType.
func (lt *LiteralQualifierType) Matches(condition, context string, op common.ConditionOperator) common.QualifierMatchScore {
	return lt.matches(condition, context, op, lt.matchOne)
}

func (lt *LiteralQualifierType) matchOne(condition, context string) common.QualifierMatchScore {
	c, x := lt.normalize(condition), lt.normalize(context)
	if lt.hierarchy != nil {
		return lt.hierarchy.Match(c, x)
	}
	if c == x {
		return common.PerfectMatch
	}
	return common.NoMatch
}

// Config implements QualifierType.
func (lt *LiteralQualifierType) Config() ConfigDecl {
	cfg := LiteralConfig{
		AllowContextList: boolPtr(lt.allowContextList),
		CaseSensitive:    boolPtr(lt.caseSensitive),
		EnumeratedValues: lt.EnumeratedValues(),
	}
	if lt.hierarchy != nil {
		cfg.Hierarchy = lt.hierarchy.Parents()
	}
	return newConfigDecl(lt.name, SystemTypeLiteral, cfg)
}

func boolPtr(b bool) *bool { return &b }

func sortedStrings(values map[string]bool) []string {
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
