package qualifiertypes

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/willibrandon/gores/common"
)

// Similarity scores for BCP-47 tag comparison, strongest first.
const (
	SimilarityExact         common.QualifierMatchScore = 1.0
	SimilarityVariant       common.QualifierMatchScore = 0.9
	SimilarityMacroRegion   common.QualifierMatchScore = 0.65
	SimilarityNeutralRegion common.QualifierMatchScore = 0.5
	SimilaritySibling       common.QualifierMatchScore = 0.3
	SimilarityUndetermined  common.QualifierMatchScore = 0.1
	SimilarityNone          common.QualifierMatchScore = 0.0
)

const undeterminedLanguageCode = "und"

// LanguageParams configures a LanguageQualifierType.
type LanguageParams struct {
	Name             string
	Index            *int
	AllowContextList bool
}

// LanguageQualifierType matches BCP-47 language tags by similarity.
type LanguageQualifierType struct {
	baseType
}

// NewLanguage creates a language qualifier type.
func NewLanguage(params LanguageParams) (*LanguageQualifierType, error) {
	base, err := newBaseType(params.Name, params.Index, params.AllowContextList)
	if err != nil {
		return nil, err
	}
	return &LanguageQualifierType{baseType: base}, nil
}

// SystemType implements QualifierType.
func (lq *LanguageQualifierType) SystemType() SystemType { return SystemTypeLanguage }

func (lq *LanguageQualifierType) parse(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s: %w: empty language tag", lq.name, ErrInvalidValue)
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %q is not a valid BCP-47 tag: %v", lq.name, ErrInvalidValue, value, err)
	}
	return tag.String(), nil
}

// IsValidConditionValue implements QualifierType.
func (lq *LanguageQualifierType) IsValidConditionValue(value string) bool {
	_, err := lq.parse(value)
	return err == nil
}

// IsValidContextValue implements QualifierType.
func (lq *LanguageQualifierType) IsValidContextValue(value string) bool {
	_, err := lq.ValidateContextValue(value)
	return err == nil
}

// ValidateCondition implements QualifierType.
func (lq *LanguageQualifierType) ValidateCondition(value string, op common.ConditionOperator) (string, error) {
	if err := validateOperator(lq.name, op); err != nil {
		return "", err
	}
	return lq.parse(value)
}

// ValidateContextValue implements QualifierType.
func (lq *LanguageQualifierType) ValidateContextValue(value string) (string, error) {
	return lq.validateContext(value, lq.parse)
}

// Matches implements QualifierType.
func (lq *LanguageQualifierType) Matches(condition, context string, op common.ConditionOperator) common.QualifierMatchScore {
	return lq.matches(condition, context, op, Similarity)
}

// Config implements QualifierType.
func (lq *LanguageQualifierType) Config() ConfigDecl {
	return newConfigDecl(lq.name, SystemTypeLanguage, LanguageConfig{
		AllowContextList: boolPtr(lq.allowContextList),
	})
}

// Similarity scores how well a context tag satisfies a condition tag.
//
//   - identical tags score SimilarityExact
//   - same language, script and region with other differences (variants,
//     extensions) score SimilarityVariant
//   - a condition region that contains the context region (es-419 vs es-MX)
//     scores SimilarityMacroRegion
//   - one side without a region (en vs en-US) scores SimilarityNeutralRegion
//   - different regions of the same language score SimilaritySibling
//   - an "und" condition scores SimilarityUndetermined against anything
//   - different languages or scripts score SimilarityNone
func Similarity(condition, context string) common.QualifierMatchScore {
	ct, err := language.Parse(condition)
	if err != nil {
		return SimilarityNone
	}
	xt, err := language.Parse(context)
	if err != nil {
		return SimilarityNone
	}

	if strings.EqualFold(ct.String(), xt.String()) {
		return SimilarityExact
	}
	if ct.String() == undeterminedLanguageCode {
		return SimilarityUndetermined
	}

	cBase, _, cRegion := ct.Raw()
	xBase, _, xRegion := xt.Raw()
	if cBase != xBase {
		return SimilarityNone
	}

	cScript, _ := ct.Script()
	xScript, _ := xt.Script()
	if cScript != xScript {
		return SimilarityNone
	}

	var noRegion language.Region
	switch {
	case cRegion == xRegion:
		return SimilarityVariant
	case cRegion == noRegion || xRegion == noRegion:
		return SimilarityNeutralRegion
	case cRegion.Contains(xRegion):
		return SimilarityMacroRegion
	default:
		return SimilaritySibling
	}
}
