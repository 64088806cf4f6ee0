package conditions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ConditionDecl declares one condition.
type ConditionDecl struct {
	QualifierName  string   `json:"qualifierName"`
	Operator       string   `json:"operator,omitempty"`
	Value          string   `json:"value"`
	Priority       *int     `json:"priority,omitempty"`
	ScoreAsDefault *float64 `json:"scoreAsDefault,omitempty"`
}

// ConditionSetDecl declares a condition set. In JSON it is either an array
// of ConditionDecl or an object mapping qualifier names to values.
type ConditionSetDecl []ConditionDecl

// UnmarshalJSON accepts both the array and the object form.
func (d *ConditionSetDecl) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}

	if trimmed[0] == '{' {
		var values map[string]string
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("conditions: %w", err)
		}
		*d = FromMap(values)
		return nil
	}

	var decls []ConditionDecl
	if err := json.Unmarshal(trimmed, &decls); err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	*d = decls
	return nil
}

// FromMap converts the object form into a declaration ordered by qualifier name.
func FromMap(values map[string]string) ConditionSetDecl {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	decl := make(ConditionSetDecl, 0, len(names))
	for _, name := range names {
		decl = append(decl, ConditionDecl{QualifierName: name, Value: values[name]})
	}
	return decl
}
