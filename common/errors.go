package common

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier indicates a malformed name.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidResourceID indicates a malformed resource id.
	ErrInvalidResourceID = errors.New("invalid resource id")

	// ErrInvalidScore indicates a match score outside [0, 1].
	ErrInvalidScore = errors.New("invalid match score")

	// ErrInvalidPriority indicates a condition priority out of range.
	ErrInvalidPriority = errors.New("invalid condition priority")

	// ErrInvalidOperator indicates an unsupported condition operator.
	ErrInvalidOperator = errors.New("invalid condition operator")

	// ErrInvalidMergeMethod indicates an unsupported merge method.
	ErrInvalidMergeMethod = errors.New("invalid merge method")

	// ErrNotFound indicates a lookup by name or index failed.
	ErrNotFound = errors.New("not found")
)

// Detail tags a failure so callers can tell benign conditions from real conflicts.
type Detail string

const (
	// DetailNone is returned by DetailOf for untagged errors.
	DetailNone Detail = ""
	// DetailTypeMismatch reports a resource type conflict.
	DetailTypeMismatch Detail = "type-mismatch"
	// DetailExists reports a conflicting entity that already exists.
	DetailExists Detail = "exists"
	// DetailIDMismatch reports a candidate added to the wrong resource.
	DetailIDMismatch Detail = "id-mismatch"
	// DetailNotFound reports a missing entity.
	DetailNotFound Detail = "not-found"
	// DetailInvalid reports a validation failure.
	DetailInvalid Detail = "invalid"
)

// DetailError is an error carrying a Detail tag.
type DetailError struct {
	Detail Detail
	Err    error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Err
}

// WithDetail tags err. A nil err yields nil.
func WithDetail(detail Detail, err error) error {
	if err == nil {
		return nil
	}
	return &DetailError{Detail: detail, Err: err}
}

// Detailf formats a new tagged error.
func Detailf(detail Detail, format string, args ...any) error {
	return &DetailError{Detail: detail, Err: fmt.Errorf(format, args...)}
}

// DetailOf returns the first Detail found in err's chain.
func DetailOf(err error) Detail {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Detail
	}
	return DetailNone
}

// Aggregate collects independent failures so that one bad entry does not
// hide errors in the others.
type Aggregate struct {
	errs []error
}

// Add records err if it is non-nil.
func (a *Aggregate) Add(err error) {
	if err != nil {
		a.errs = append(a.errs, err)
	}
}

// Addf records a formatted error.
func (a *Aggregate) Addf(format string, args ...any) {
	a.errs = append(a.errs, fmt.Errorf(format, args...))
}

// Len returns the number of recorded errors.
func (a *Aggregate) Len() int {
	return len(a.errs)
}

// Errors returns the recorded errors.
func (a *Aggregate) Errors() []error {
	return a.errs
}

// Err joins the recorded errors, or returns nil when there are none.
func (a *Aggregate) Err() error {
	if len(a.errs) == 0 {
		return nil
	}
	if len(a.errs) == 1 {
		return a.errs[0]
	}
	return errors.Join(a.errs...)
}
