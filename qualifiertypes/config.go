package qualifiertypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ConfigDecl is the discriminated declarative form of a qualifier type.
type ConfigDecl struct {
	Name          string         `json:"name" yaml:"name" toml:"name"`
	SystemType    SystemType     `json:"systemType" yaml:"systemType" toml:"systemType"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty" toml:"configuration,omitempty"`
}

// LiteralConfig is the configuration of a literal qualifier type.
type LiteralConfig struct {
	AllowContextList *bool             `json:"allowContextList,omitempty"`
	CaseSensitive    *bool             `json:"caseSensitive,omitempty"`
	EnumeratedValues []string          `json:"enumeratedValues,omitempty"`
	Hierarchy        map[string]string `json:"hierarchy,omitempty"`
}

// TerritoryConfig is the configuration of a territory qualifier type.
type TerritoryConfig struct {
	AllowContextList   *bool             `json:"allowContextList,omitempty"`
	AcceptLowercase    *bool             `json:"acceptLowercase,omitempty"`
	AllowedTerritories []string          `json:"allowedTerritories,omitempty"`
	Hierarchy          map[string]string `json:"hierarchy,omitempty"`
}

// LanguageConfig is the configuration of a language qualifier type.
type LanguageConfig struct {
	AllowContextList *bool `json:"allowContextList,omitempty"`
}

// FromConfig creates a qualifier type from its declarative form. Unknown
// configuration properties are rejected.
func FromConfig(decl ConfigDecl) (QualifierType, error) {
	return FromConfigWithIndex(decl, nil)
}

// FromConfigWithIndex creates a qualifier type with a preassigned index.
func FromConfigWithIndex(decl ConfigDecl, index *int) (QualifierType, error) {
	switch decl.SystemType {
	case SystemTypeLiteral:
		var cfg LiteralConfig
		if err := decodeConfig(decl, &cfg); err != nil {
			return nil, err
		}
		return NewLiteral(LiteralParams{
			Name:             decl.Name,
			Index:            index,
			AllowContextList: valueOr(cfg.AllowContextList, false),
			CaseSensitive:    valueOr(cfg.CaseSensitive, false),
			EnumeratedValues: cfg.EnumeratedValues,
			Hierarchy:        cfg.Hierarchy,
		})
	case SystemTypeTerritory:
		var cfg TerritoryConfig
		if err := decodeConfig(decl, &cfg); err != nil {
			return nil, err
		}
		return NewTerritory(TerritoryParams{
			Name:               decl.Name,
			Index:              index,
			AllowContextList:   valueOr(cfg.AllowContextList, false),
			AcceptLowercase:    valueOr(cfg.AcceptLowercase, false),
			AllowedTerritories: cfg.AllowedTerritories,
			Hierarchy:          cfg.Hierarchy,
		})
	case SystemTypeLanguage:
		var cfg LanguageConfig
		if err := decodeConfig(decl, &cfg); err != nil {
			return nil, err
		}
		return NewLanguage(LanguageParams{
			Name:             decl.Name,
			Index:            index,
			AllowContextList: valueOr(cfg.AllowContextList, true),
		})
	default:
		return nil, fmt.Errorf("%w: %s: unknown system type %q", ErrInvalidConfig, decl.Name, decl.SystemType)
	}
}

// decodeConfig converts the loosely typed configuration map into a typed config.
func decodeConfig(decl ConfigDecl, target any) error {
	if len(decl.Configuration) == 0 {
		return nil
	}
	data, err := json.Marshal(decl.Configuration)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, decl.Name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, decl.Name, err)
	}
	return nil
}

func newConfigDecl(name string, systemType SystemType, cfg any) ConfigDecl {
	decl := ConfigDecl{Name: name, SystemType: systemType}
	data, err := json.Marshal(cfg)
	if err != nil {
		return decl
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil && len(m) > 0 {
		decl.Configuration = m
	}
	return decl
}

func valueOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
