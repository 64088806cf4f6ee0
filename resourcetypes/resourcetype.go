// Package resourcetypes defines the kinds of value a resource can hold.
// The only kind today is "json": candidate values are JSON objects.
package resourcetypes

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/willibrandon/gores/collections"
	"github.com/willibrandon/gores/common"
)

// TypeJSON is the key of the JSON object resource type.
const TypeJSON = "json"

// ErrInvalidValue indicates a candidate value the resource type rejects.
var ErrInvalidValue = errors.New("invalid resource value")

// ConfigDecl declares a resource type.
type ConfigDecl struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	TypeName string `json:"typeName" yaml:"typeName" toml:"typeName"`
}

// ResourceType validates candidate values.
type ResourceType struct {
	name  string
	key   string
	index int
}

// Name returns the resource type name.
func (rt *ResourceType) Name() string { return rt.name }

// Key returns the kind of value, currently always TypeJSON.
func (rt *ResourceType) Key() string { return rt.key }

// Index returns the global index.
func (rt *ResourceType) Index() int { return rt.index }

// Config returns the declaration that reproduces rt.
func (rt *ResourceType) Config() ConfigDecl {
	return ConfigDecl{Name: rt.name, TypeName: rt.key}
}

// ValidateValue normalizes value into a JSON object. Partial values follow
// the same shape rule; their missing properties are filled by merging.
func (rt *ResourceType) ValidateValue(value any) (map[string]any, error) {
	obj, err := ToJSONObject(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rt.name, err)
	}
	return obj, nil
}

// ToJSONObject converts any JSON-marshalable value into a generic JSON
// object. Numbers become float64 as encoding/json produces them.
func ToJSONObject(value any) (map[string]any, error) {
	if obj, ok := value.(map[string]any); ok && isPlainJSON(obj) {
		return obj, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: value must be a JSON object", ErrInvalidValue)
	}
	return obj, nil
}

// isPlainJSON reports whether v already has the shape json.Unmarshal produces.
func isPlainJSON(v any) bool {
	switch t := v.(type) {
	case nil, bool, string, float64:
		return true
	case map[string]any:
		for _, child := range t {
			if !isPlainJSON(child) {
				return false
			}
		}
		return true
	case []any:
		for _, child := range t {
			if !isPlainJSON(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Collector interns resource types by name.
type Collector struct {
	types *collections.Collector[*ResourceType]
}

// NewCollector creates a collector with decls added in order.
func NewCollector(decls ...ConfigDecl) (*Collector, error) {
	c := &Collector{types: collections.NewCollector[*ResourceType]("resourceTypes")}
	var agg common.Aggregate
	for _, decl := range decls {
		if _, err := c.GetOrAdd(decl); err != nil {
			agg.Add(err)
		}
	}
	if err := agg.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// GetOrAdd returns the type named decl.Name, adding it if needed.
func (c *Collector) GetOrAdd(decl ConfigDecl) (*ResourceType, error) {
	if err := common.ValidateIdentifier(decl.Name); err != nil {
		return nil, fmt.Errorf("resource type name: %w", err)
	}
	key := decl.TypeName
	if key == "" {
		key = TypeJSON
	}
	if key != TypeJSON {
		return nil, common.Detailf(common.DetailInvalid, "resource type %s: unsupported type %q", decl.Name, decl.TypeName)
	}

	if existing, ok := c.types.Get(decl.Name); ok {
		if existing.key != key {
			return nil, common.Detailf(common.DetailExists, "resource type %q already exists", decl.Name)
		}
		return existing, nil
	}

	rt, _, err := c.types.GetOrAdd(decl.Name, func(index int) (*ResourceType, error) {
		return &ResourceType{name: decl.Name, key: key, index: index}, nil
	})
	return rt, err
}

// Get returns the resource type named name.
func (c *Collector) Get(name string) (*ResourceType, error) {
	rt, ok := c.types.Get(name)
	if !ok {
		return nil, common.WithDetail(common.DetailNotFound,
			fmt.Errorf("resource type %q: %w", name, common.ErrNotFound))
	}
	return rt, nil
}

// GetAt returns the resource type at index.
func (c *Collector) GetAt(index int) (*ResourceType, error) {
	return c.types.GetAt(index)
}

// Len returns the number of resource types.
func (c *Collector) Len() int { return c.types.Len() }

// Values returns the resource types in index order.
func (c *Collector) Values() []*ResourceType { return c.types.Values() }

// Configs returns the declarations of all types in index order.
func (c *Collector) Configs() []ConfigDecl {
	values := c.types.Values()
	out := make([]ConfigDecl, len(values))
	for i, rt := range values {
		out[i] = rt.Config()
	}
	return out
}
