package common

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-]*$`)

// IsValidIdentifier reports whether name is a valid qualifier, qualifier type
// or resource type name.
func IsValidIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// ValidateIdentifier returns an error naming the offending value.
func ValidateIdentifier(name string) error {
	if !IsValidIdentifier(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateResourceID checks a dot-separated resource id such as "app.greeting".
func ValidateResourceID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidResourceID)
	}
	for _, segment := range strings.Split(id, ".") {
		if !IsValidIdentifier(segment) {
			return fmt.Errorf("%w: %q", ErrInvalidResourceID, id)
		}
	}
	return nil
}

// SplitResourceID returns the segments of a validated resource id.
func SplitResourceID(id string) ([]string, error) {
	if err := ValidateResourceID(id); err != nil {
		return nil, err
	}
	return strings.Split(id, "."), nil
}

// JoinResourceID joins segments into a resource id.
func JoinResourceID(segments ...string) string {
	return strings.Join(segments, ".")
}
