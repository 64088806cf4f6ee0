package common

import "fmt"

// QualifierMatchScore is the strength of a match between a condition value
// and a context value, from NoMatch (0.0) to PerfectMatch (1.0).
type QualifierMatchScore float64

const (
	// NoMatch indicates the context does not satisfy the condition.
	NoMatch QualifierMatchScore = 0.0

	// PerfectMatch indicates an exact match.
	PerfectMatch QualifierMatchScore = 1.0
)

// IsMatch returns true for any score strictly above NoMatch.
func (s QualifierMatchScore) IsMatch() bool {
	return s > NoMatch
}

// ValidateQualifierMatchScore checks that a score lies in [NoMatch, PerfectMatch].
func ValidateQualifierMatchScore(score float64) (QualifierMatchScore, error) {
	if score < float64(NoMatch) || score > float64(PerfectMatch) {
		return NoMatch, fmt.Errorf("%w: %v is not a valid match score", ErrInvalidScore, score)
	}
	return QualifierMatchScore(score), nil
}

// ConditionPriority orders conditions. Higher priorities are evaluated first
// and make a condition set more specific.
type ConditionPriority int

const (
	// MinConditionPriority is the lowest valid priority.
	MinConditionPriority ConditionPriority = 0

	// MaxConditionPriority is the highest valid priority.
	MaxConditionPriority ConditionPriority = 1000
)

// ValidateConditionPriority checks that a priority is in range.
func ValidateConditionPriority(priority int) (ConditionPriority, error) {
	if priority < int(MinConditionPriority) || priority > int(MaxConditionPriority) {
		return MinConditionPriority, fmt.Errorf("%w: %d is not in [%d, %d]",
			ErrInvalidPriority, priority, MinConditionPriority, MaxConditionPriority)
	}
	return ConditionPriority(priority), nil
}

// ConditionOperator is the comparison a condition applies.
type ConditionOperator string

const (
	// OperatorMatches applies the qualifier type's match rules.
	OperatorMatches ConditionOperator = "matches"
)

// ValidateConditionOperator accepts "matches" and treats an empty operator as "matches".
func ValidateConditionOperator(op string) (ConditionOperator, error) {
	switch ConditionOperator(op) {
	case "", OperatorMatches:
		return OperatorMatches, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, op)
	}
}

// MergeMethod controls how a candidate value combines with lower-ranked candidates.
type MergeMethod string

const (
	// MergeReplace means the candidate value stands alone.
	MergeReplace MergeMethod = "replace"

	// MergeAugment means the candidate value is merged over lower-ranked values.
	MergeAugment MergeMethod = "augment"
)

// ValidateMergeMethod validates a merge method. An empty method defaults to
// augment for partial candidates and replace otherwise.
func ValidateMergeMethod(method string, isPartial bool) (MergeMethod, error) {
	switch MergeMethod(method) {
	case "":
		if isPartial {
			return MergeAugment, nil
		}
		return MergeReplace, nil
	case MergeReplace, MergeAugment:
		return MergeMethod(method), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMergeMethod, method)
	}
}
