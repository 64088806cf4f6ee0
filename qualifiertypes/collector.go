package qualifiertypes

import (
	"fmt"

	"github.com/willibrandon/gores/collections"
	"github.com/willibrandon/gores/common"
)

// Collector interns qualifier types by name and assigns their indices.
type Collector struct {
	types *collections.Collector[QualifierType]
}

// NewCollector creates a collector holding the supplied types in order.
func NewCollector(types ...QualifierType) (*Collector, error) {
	c := &Collector{types: collections.NewCollector[QualifierType]("qualifierTypes")}
	var agg common.Aggregate
	for _, qt := range types {
		if _, err := c.Add(qt); err != nil {
			agg.Add(err)
		}
	}
	if err := agg.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCollectorFromConfig creates qualifier types from declarations, in order.
func NewCollectorFromConfig(decls []ConfigDecl) (*Collector, error) {
	c := &Collector{types: collections.NewCollector[QualifierType]("qualifierTypes")}
	var agg common.Aggregate
	for _, decl := range decls {
		qt, err := FromConfig(decl)
		if err != nil {
			agg.Add(err)
			continue
		}
		if _, err := c.Add(qt); err != nil {
			agg.Add(err)
		}
	}
	if err := agg.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Add registers qt, assigning the next index. Adding the same instance again
// is a no-op; adding a different type with an existing name fails.
func (c *Collector) Add(qt QualifierType) (QualifierType, error) {
	if existing, ok := c.types.Get(qt.Name()); ok {
		if existing == qt {
			return existing, nil
		}
		return nil, common.Detailf(common.DetailExists, "qualifier type %q already exists", qt.Name())
	}
	added, _, err := c.types.GetOrAdd(qt.Name(), func(index int) (QualifierType, error) {
		if err := qt.SetIndex(index); err != nil {
			return nil, err
		}
		return qt, nil
	})
	return added, err
}

// Get returns the type named name.
func (c *Collector) Get(name string) (QualifierType, error) {
	qt, ok := c.types.Get(name)
	if !ok {
		return nil, common.WithDetail(common.DetailNotFound,
			fmt.Errorf("qualifier type %q: %w", name, common.ErrNotFound))
	}
	return qt, nil
}

// GetAt returns the type at index.
func (c *Collector) GetAt(index int) (QualifierType, error) {
	return c.types.GetAt(index)
}

// Len returns the number of types.
func (c *Collector) Len() int {
	return c.types.Len()
}

// Values returns the types in index order.
func (c *Collector) Values() []QualifierType {
	return c.types.Values()
}

// Configs returns the declarations of all types in index order.
func (c *Collector) Configs() []ConfigDecl {
	values := c.types.Values()
	out := make([]ConfigDecl, len(values))
	for i, qt := range values {
		out[i] = qt.Config()
	}
	return out
}
