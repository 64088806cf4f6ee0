package qualifiertypes

import "errors"

var (
	// ErrInvalidValue indicates a condition or context value the type rejects.
	ErrInvalidValue = errors.New("invalid qualifier value")

	// ErrInvalidIndex indicates a negative index.
	ErrInvalidIndex = errors.New("invalid qualifier type index")

	// ErrIndexAlreadySet indicates an attempt to change an assigned index.
	ErrIndexAlreadySet = errors.New("qualifier type index already set")

	// ErrInvalidHierarchy indicates a hierarchy with bad parents or cycles.
	ErrInvalidHierarchy = errors.New("invalid value hierarchy")

	// ErrInvalidConfig indicates a malformed qualifier type configuration.
	ErrInvalidConfig = errors.New("invalid qualifier type configuration")
)
