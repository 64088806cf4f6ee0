package qualifiertypes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/willibrandon/gores/common"
)

var territoryRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// TerritoryParams configures a TerritoryQualifierType.
type TerritoryParams struct {
	Name             string
	Index            *int
	AllowContextList bool

	// AcceptLowercase accepts lowercase input and normalizes it to uppercase.
	AcceptLowercase bool

	// AllowedTerritories restricts the valid territories.
	AllowedTerritories []string

	// Hierarchy maps territories to their parents.
	Hierarchy map[string]string
}

// TerritoryQualifierType matches ISO-3166 alpha-2 territory codes.
type TerritoryQualifierType struct {
	baseType
	acceptLowercase bool
	allowed         map[string]bool
	hierarchy       *LiteralValueHierarchy[string]
}

// NewTerritory creates a territory qualifier type.
func NewTerritory(params TerritoryParams) (*TerritoryQualifierType, error) {
	base, err := newBaseType(params.Name, params.Index, params.AllowContextList)
	if err != nil {
		return nil, err
	}

	tt := &TerritoryQualifierType{
		baseType:        base,
		acceptLowercase: params.AcceptLowercase,
	}

	// Declared territories are always normalized, whatever AcceptLowercase says.
	var agg common.Aggregate
	if len(params.AllowedTerritories) > 0 {
		tt.allowed = make(map[string]bool, len(params.AllowedTerritories))
		for _, t := range params.AllowedTerritories {
			code := strings.ToUpper(t)
			if !territoryRegex.MatchString(code) {
				agg.Addf("%s: %w: allowed territory %q", params.Name, ErrInvalidValue, t)
				continue
			}
			tt.allowed[code] = true
		}
	}

	if len(params.Hierarchy) > 0 {
		parents := make(map[string]string, len(params.Hierarchy))
		for child, parent := range params.Hierarchy {
			c, p := strings.ToUpper(child), strings.ToUpper(parent)
			for _, v := range []string{c, p} {
				if !tt.isAllowed(v) {
					agg.Addf("%s: %w: hierarchy territory %q", params.Name, ErrInvalidValue, v)
				}
			}
			parents[c] = p
		}
		if agg.Len() == 0 {
			var values []string
			if tt.allowed != nil {
				values = sortedStrings(tt.allowed)
			}
			tt.hierarchy, err = NewLiteralValueHierarchy(HierarchyParams[string]{Values: values, Parents: parents})
			if err != nil {
				agg.Add(fmt.Errorf("%s: %w", params.Name, err))
			}
		}
	}

	if err := agg.Err(); err != nil {
		return nil, err
	}
	return tt, nil
}

// SystemType implements QualifierType.
func (tt *TerritoryQualifierType) SystemType() SystemType { return SystemTypeTerritory }

// AcceptLowercase reports whether lowercase input is accepted.
func (tt *TerritoryQualifierType) AcceptLowercase() bool { return tt.acceptLowercase }

// AllowedTerritories returns the allow-list, sorted, or nil.
func (tt *TerritoryQualifierType) AllowedTerritories() []string {
	if tt.allowed == nil {
		return nil
	}
	return sortedStrings(tt.allowed)
}

// Hierarchy returns the territory hierarchy, or nil.
func (tt *TerritoryQualifierType) Hierarchy() *LiteralValueHierarchy[string] { return tt.hierarchy }

// isAllowed checks an already-normalized code.
func (tt *TerritoryQualifierType) isAllowed(code string) bool {
	if !territoryRegex.MatchString(code) {
		return false
	}
	return tt.allowed == nil || tt.allowed[code]
}

// Normalize returns the uppercase territory code for value, or an error if
// the value is not a valid territory for this type.
func (tt *TerritoryQualifierType) Normalize(value string) (string, error) {
	code := value
	if tt.acceptLowercase {
		code = strings.ToUpper(value)
	}
	if !tt.isAllowed(code) {
		return "", fmt.Errorf("%s: %w: %q is not a valid territory", tt.name, ErrInvalidValue, value)
	}
	return code, nil
}

// IsValidConditionValue implements QualifierType.
func (tt *TerritoryQualifierType) IsValidConditionValue(value string) bool {
	_, err := tt.Normalize(value)
	return err == nil
}

// IsValidContextValue implements QualifierType.
func (tt *TerritoryQualifierType) IsValidContextValue(value string) bool {
	_, err := tt.ValidateContextValue(value)
	return err == nil
}

// ValidateCondition implements QualifierType.
func (tt *TerritoryQualifierType) ValidateCondition(value string, op common.ConditionOperator) (string, error) {
	if err := validateOperator(tt.name, op); err != nil {
		return "", err
	}
	return tt.Normalize(value)
}

// ValidateContextValue implements QualifierType.
func (tt *TerritoryQualifierType) ValidateContextValue(value string) (string, error) {
	return tt.validateContext(value, tt.Normalize)
}

// Matches implements QualifierType.
func (tt *TerritoryQualifierType) Matches(condition, context string, op common.ConditionOperator) common.QualifierMatchScore {
	return tt.matches(condition, context, op, tt.matchOne)
}

func (tt *TerritoryQualifierType) matchOne(condition, context string) common.QualifierMatchScore {
	c, x := strings.ToUpper(condition), strings.ToUpper(context)
	if tt.hierarchy != nil {
		return tt.hierarchy.Match(c, x)
	}
	if c == x {
		return common.PerfectMatch
	}
	return common.NoMatch
}

// Config implements QualifierType.
func (tt *TerritoryQualifierType) Config() ConfigDecl {
	cfg := TerritoryConfig{
		AllowContextList:   boolPtr(tt.allowContextList),
		AcceptLowercase:    boolPtr(tt.acceptLowercase),
		AllowedTerritories: tt.AllowedTerritories(),
	}
	if tt.hierarchy != nil {
		cfg.Hierarchy = tt.hierarchy.Parents()
	}
	return newConfigDecl(tt.name, SystemTypeTerritory, cfg)
}
