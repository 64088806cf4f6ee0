// Package qualifiers binds names to qualifier types with a default priority
// and validates runtime contexts against them.
package qualifiers

import (
	"fmt"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/qualifiertypes"
)

// Decl declares a qualifier.
type Decl struct {
	Name            string `json:"name" yaml:"name" toml:"name"`
	TypeName        string `json:"typeName" yaml:"typeName" toml:"typeName"`
	DefaultPriority int    `json:"defaultPriority" yaml:"defaultPriority" toml:"defaultPriority"`
}

// Qualifier is a named use of a qualifier type. Conditions on a qualifier
// take its default priority unless they declare their own.
type Qualifier struct {
	name            string
	qtype           qualifiertypes.QualifierType
	defaultPriority common.ConditionPriority
	index           int
}

func newQualifier(decl Decl, qtype qualifiertypes.QualifierType, index int) (*Qualifier, error) {
	if err := common.ValidateIdentifier(decl.Name); err != nil {
		return nil, fmt.Errorf("qualifier name: %w", err)
	}
	priority, err := common.ValidateConditionPriority(decl.DefaultPriority)
	if err != nil {
		return nil, fmt.Errorf("qualifier %s: %w", decl.Name, err)
	}
	return &Qualifier{
		name:            decl.Name,
		qtype:           qtype,
		defaultPriority: priority,
		index:           index,
	}, nil
}

// Name returns the qualifier name.
func (q *Qualifier) Name() string { return q.name }

// Type returns the qualifier type.
func (q *Qualifier) Type() qualifiertypes.QualifierType { return q.qtype }

// DefaultPriority returns the priority used by conditions that do not set one.
func (q *Qualifier) DefaultPriority() common.ConditionPriority { return q.defaultPriority }

// Index returns the global index of the qualifier.
func (q *Qualifier) Index() int { return q.index }

// Decl returns the declaration that reproduces q.
func (q *Qualifier) Decl() Decl {
	return Decl{Name: q.name, TypeName: q.qtype.Name(), DefaultPriority: int(q.defaultPriority)}
}

// String implements fmt.Stringer.
func (q *Qualifier) String() string {
	return fmt.Sprintf("%s(%s)@%d", q.name, q.qtype.Name(), q.defaultPriority)
}
