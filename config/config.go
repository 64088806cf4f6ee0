// Package config assembles the qualifier types, qualifiers and resource
// types a resource manager works with.
package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/loader"
	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/qualifiertypes"
	"github.com/willibrandon/gores/resourcetypes"
)

// ErrUnknownConfiguration indicates a predefined configuration name that does not exist.
var ErrUnknownConfiguration = errors.New("unknown predefined configuration")

// Decl is the declarative form of a system configuration.
type Decl struct {
	Name           string                      `json:"name,omitempty"`
	Description    string                      `json:"description,omitempty"`
	QualifierTypes []qualifiertypes.ConfigDecl `json:"qualifierTypes"`
	Qualifiers     []qualifiers.Decl           `json:"qualifiers"`
	ResourceTypes  []resourcetypes.ConfigDecl  `json:"resourceTypes"`
}

// SystemConfiguration holds the collectors built from a Decl.
type SystemConfiguration struct {
	name           string
	description    string
	qualifierTypes *qualifiertypes.Collector
	qualifiers     *qualifiers.Collector
	resourceTypes  *resourcetypes.Collector
}

// New validates decl and builds its collectors. Errors in each section are
// aggregated.
func New(decl Decl) (*SystemConfiguration, error) {
	var agg common.Aggregate

	types, err := qualifiertypes.NewCollectorFromConfig(decl.QualifierTypes)
	if err != nil {
		return nil, fmt.Errorf("qualifier types: %w", err)
	}

	qs, err := qualifiers.NewCollector(types, decl.Qualifiers...)
	if err != nil {
		agg.Add(fmt.Errorf("qualifiers: %w", err))
	}

	rts, err := resourcetypes.NewCollector(decl.ResourceTypes...)
	if err != nil {
		agg.Add(fmt.Errorf("resource types: %w", err))
	}

	if err := agg.Err(); err != nil {
		return nil, err
	}

	return &SystemConfiguration{
		name:           decl.Name,
		description:    decl.Description,
		qualifierTypes: types,
		qualifiers:     qs,
		resourceTypes:  rts,
	}, nil
}

// LoadFile reads a configuration declaration from a JSON, JSONC, YAML or
// TOML file, or a predefined configuration when path names one
// ("predefined:default").
func LoadFile(path string) (*SystemConfiguration, error) {
	if name, ok := predefinedName(path); ok {
		return NewPredefined(name)
	}
	var decl Decl
	if err := loader.DecodeFile(path, &decl); err != nil {
		return nil, err
	}
	return New(decl)
}

// Name returns the configuration name.
func (sc *SystemConfiguration) Name() string { return sc.name }

// QualifierTypes returns the qualifier type collector.
func (sc *SystemConfiguration) QualifierTypes() *qualifiertypes.Collector { return sc.qualifierTypes }

// Qualifiers returns the qualifier collector.
func (sc *SystemConfiguration) Qualifiers() *qualifiers.Collector { return sc.qualifiers }

// ResourceTypes returns the resource type collector.
func (sc *SystemConfiguration) ResourceTypes() *resourcetypes.Collector { return sc.resourceTypes }

// Decl returns the declaration that reproduces sc.
func (sc *SystemConfiguration) Decl() Decl {
	return Decl{
		Name:           sc.name,
		Description:    sc.description,
		QualifierTypes: sc.qualifierTypes.Configs(),
		Qualifiers:     sc.qualifiers.Decls(),
		ResourceTypes:  sc.resourceTypes.Configs(),
	}
}

// PredefinedNames returns the names of the built-in configurations, sorted.
func PredefinedNames() []string {
	names := make([]string, 0, len(predefined))
	for name := range predefined {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
