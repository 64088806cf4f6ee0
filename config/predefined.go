package config

import (
	"fmt"
	"strings"

	"github.com/willibrandon/gores/qualifiers"
	"github.com/willibrandon/gores/qualifiertypes"
	"github.com/willibrandon/gores/resourcetypes"
)

const predefinedPrefix = "predefined:"

func standardTypes() []qualifiertypes.ConfigDecl {
	return []qualifiertypes.ConfigDecl{
		{Name: "language", SystemType: qualifiertypes.SystemTypeLanguage},
		{Name: "territory", SystemType: qualifiertypes.SystemTypeTerritory, Configuration: map[string]any{"acceptLowercase": true}},
		{Name: "platform", SystemType: qualifiertypes.SystemTypeLiteral},
		{Name: "env", SystemType: qualifiertypes.SystemTypeLiteral},
	}
}

func standardResourceTypes() []resourcetypes.ConfigDecl {
	return []resourcetypes.ConfigDecl{{Name: "json", TypeName: resourcetypes.TypeJSON}}
}

var predefined = map[string]func() Decl{
	"default": func() Decl {
		return Decl{
			Name:           "default",
			Description:    "language, territory, platform and env qualifiers",
			QualifierTypes: standardTypes(),
			Qualifiers: []qualifiers.Decl{
				{Name: "language", TypeName: "language", DefaultPriority: 850},
				{Name: "territory", TypeName: "territory", DefaultPriority: 800},
				{Name: "platform", TypeName: "platform", DefaultPriority: 600},
				{Name: "env", TypeName: "env", DefaultPriority: 500},
			},
			ResourceTypes: standardResourceTypes(),
		}
	},
	"language-priority": func() Decl {
		return Decl{
			Name:           "language-priority",
			Description:    "language first, territory a distant second",
			QualifierTypes: standardTypes(),
			Qualifiers: []qualifiers.Decl{
				{Name: "language", TypeName: "language", DefaultPriority: 900},
				{Name: "territory", TypeName: "territory", DefaultPriority: 300},
				{Name: "platform", TypeName: "platform", DefaultPriority: 200},
				{Name: "env", TypeName: "env", DefaultPriority: 100},
			},
			ResourceTypes: standardResourceTypes(),
		}
	},
}

// Predefined returns the declaration of a built-in configuration.
func Predefined(name string) (Decl, error) {
	build, ok := predefined[name]
	if !ok {
		return Decl{}, fmt.Errorf("%w: %q", ErrUnknownConfiguration, name)
	}
	return build(), nil
}

// NewPredefined builds a built-in configuration.
func NewPredefined(name string) (*SystemConfiguration, error) {
	decl, err := Predefined(name)
	if err != nil {
		return nil, err
	}
	return New(decl)
}

// MustPredefined is like NewPredefined but panics on error. Built-in
// configurations are always valid.
func MustPredefined(name string) *SystemConfiguration {
	sc, err := NewPredefined(name)
	if err != nil {
		panic(err)
	}
	return sc
}

// Default returns a fresh instance of the "default" configuration.
func Default() *SystemConfiguration {
	return MustPredefined("default")
}

func predefinedName(path string) (string, bool) {
	if strings.HasPrefix(path, predefinedPrefix) {
		return strings.TrimPrefix(path, predefinedPrefix), true
	}
	return "", false
}
