package qualifiers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/willibrandon/gores/collections"
	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/qualifiertypes"
)

// Collector interns qualifiers by name.
type Collector struct {
	types      *qualifiertypes.Collector
	qualifiers *collections.Collector[*Qualifier]
}

// NewCollector creates a collector resolving type names through types and
// adds decls in order. Every invalid declaration is reported.
func NewCollector(types *qualifiertypes.Collector, decls ...Decl) (*Collector, error) {
	c := &Collector{
		types:      types,
		qualifiers: collections.NewCollector[*Qualifier]("qualifiers"),
	}
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

// GetOrAdd returns the qualifier named decl.Name, adding it if needed. An
// existing qualifier with a different type or priority is a conflict.
func (c *Collector) GetOrAdd(decl Decl) (*Qualifier, error) {
	qtype, err := c.types.Get(decl.TypeName)
	if err != nil {
		return nil, fmt.Errorf("qualifier %s: %w", decl.Name, err)
	}

	if existing, ok := c.qualifiers.Get(decl.Name); ok {
		if existing.qtype != qtype || int(existing.defaultPriority) != decl.DefaultPriority {
			return nil, common.Detailf(common.DetailExists,
				"qualifier %q already exists as %s", decl.Name, existing)
		}
		return existing, nil
	}

	q, _, err := c.qualifiers.GetOrAdd(decl.Name, func(index int) (*Qualifier, error) {
		return newQualifier(decl, qtype, index)
	})
	return q, err
}

// Get returns the qualifier named name.
func (c *Collector) Get(name string) (*Qualifier, error) {
	q, ok := c.qualifiers.Get(name)
	if !ok {
		return nil, common.WithDetail(common.DetailNotFound,
			fmt.Errorf("qualifier %q: %w", name, common.ErrNotFound))
	}
	return q, nil
}

// GetAt returns the qualifier at index.
func (c *Collector) GetAt(index int) (*Qualifier, error) {
	return c.qualifiers.GetAt(index)
}

// Len returns the number of qualifiers.
func (c *Collector) Len() int { return c.qualifiers.Len() }

// Values returns the qualifiers in index order.
func (c *Collector) Values() []*Qualifier { return c.qualifiers.Values() }

// Types returns the qualifier type collector.
func (c *Collector) Types() *qualifiertypes.Collector { return c.types }

// Decls returns the declarations of all qualifiers in index order.
func (c *Collector) Decls() []Decl {
	values := c.qualifiers.Values()
	out := make([]Decl, len(values))
	for i, q := range values {
		out[i] = q.Decl()
	}
	return out
}

// ValidatedContext maps qualifier names to normalized context values.
// Values may be comma separated lists for types that allow them.
type ValidatedContext map[string]string

// Get returns the context value for a qualifier.
func (vc ValidatedContext) Get(name string) (string, bool) {
	v, ok := vc[name]
	return v, ok
}

// Names returns the qualifier names present, sorted.
func (vc ValidatedContext) Names() []string {
	names := make([]string, 0, len(vc))
	for name := range vc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the context as name=value pairs sorted by name.
func (vc ValidatedContext) String() string {
	parts := make([]string, 0, len(vc))
	for _, name := range vc.Names() {
		parts = append(parts, name+"="+vc[name])
	}
	return strings.Join(parts, ";")
}

// ValidateContext checks that every key names a qualifier and every value
// is valid for its type, returning the normalized context.
func (c *Collector) ValidateContext(decl map[string]string) (ValidatedContext, error) {
	out := make(ValidatedContext, len(decl))
	var agg common.Aggregate

	names := make([]string, 0, len(decl))
	for name := range decl {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		q, err := c.Get(name)
		if err != nil {
			agg.Add(fmt.Errorf("context: %w", err))
			continue
		}
		value, err := q.qtype.ValidateContextValue(decl[name])
		if err != nil {
			agg.Add(common.WithDetail(common.DetailInvalid, fmt.Errorf("context %s: %w", name, err)))
			continue
		}
		out[name] = value
	}

	if err := agg.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
