package conditions

import (
	"fmt"
	"slices"

	"github.com/willibrandon/gores/collections"
	"github.com/willibrandon/gores/common"
	"github.com/willibrandon/gores/qualifiers"
)

// ConditionCollector validates and interns conditions.
type ConditionCollector struct {
	qualifiers *qualifiers.Collector
	conditions *collections.Collector[*Condition]
}

// NewConditionCollector creates an empty collector over qs.
func NewConditionCollector(qs *qualifiers.Collector) *ConditionCollector {
	return &ConditionCollector{
		qualifiers: qs,
		conditions: collections.NewCollector[*Condition]("conditions"),
	}
}

// Qualifiers returns the qualifier collector conditions are validated against.
func (cc *ConditionCollector) Qualifiers() *qualifiers.Collector { return cc.qualifiers }

// GetOrAdd validates decl and returns the interned condition.
func (cc *ConditionCollector) GetOrAdd(decl ConditionDecl) (*Condition, error) {
	q, err := cc.qualifiers.Get(decl.QualifierName)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}

	op, err := common.ValidateConditionOperator(decl.Operator)
	if err != nil {
		return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("condition %s: %w", q.Name(), err))
	}

	value, err := q.Type().ValidateCondition(decl.Value, op)
	if err != nil {
		return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("condition %s: %w", q.Name(), err))
	}

	priority := q.DefaultPriority()
	if decl.Priority != nil {
		priority, err = common.ValidateConditionPriority(*decl.Priority)
		if err != nil {
			return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("condition %s: %w", q.Name(), err))
		}
	}

	var scoreAsDefault *common.QualifierMatchScore
	if decl.ScoreAsDefault != nil {
		score, err := common.ValidateQualifierMatchScore(*decl.ScoreAsDefault)
		if err != nil {
			return nil, common.WithDetail(common.DetailInvalid, fmt.Errorf("condition %s: %w", q.Name(), err))
		}
		scoreAsDefault = &score
	}

	key := conditionKey(q.Name(), value, priority, scoreAsDefault)
	c, _, err := cc.conditions.GetOrAdd(key, func(index int) (*Condition, error) {
		return &Condition{
			qualifier:      q,
			operator:       op,
			value:          value,
			priority:       priority,
			scoreAsDefault: scoreAsDefault,
			index:          index,
			key:            key,
		}, nil
	})
	return c, err
}

// Get returns the condition with the given key.
func (cc *ConditionCollector) Get(key string) (*Condition, bool) {
	return cc.conditions.Get(key)
}

// GetAt returns the condition at index.
func (cc *ConditionCollector) GetAt(index int) (*Condition, error) {
	return cc.conditions.GetAt(index)
}

// Len returns the number of conditions.
func (cc *ConditionCollector) Len() int { return cc.conditions.Len() }

// Values returns the conditions in index order.
func (cc *ConditionCollector) Values() []*Condition { return cc.conditions.Values() }

// ConditionSetCollector interns condition sets. The unconditional set is
// always present at index 0.
type ConditionSetCollector struct {
	conditions *ConditionCollector
	sets       *collections.Collector[*ConditionSet]
}

// NewConditionSetCollector creates a collector seeded with the unconditional set.
func NewConditionSetCollector(conditions *ConditionCollector) *ConditionSetCollector {
	csc := &ConditionSetCollector{
		conditions: conditions,
		sets:       collections.NewCollector[*ConditionSet]("conditionSets"),
	}
	_, _, _ = csc.sets.GetOrAdd(UnconditionalKey, func(index int) (*ConditionSet, error) {
		return &ConditionSet{key: UnconditionalKey, index: index}, nil
	})
	return csc
}

// Conditions returns the underlying condition collector.
func (csc *ConditionSetCollector) Conditions() *ConditionCollector { return csc.conditions }

// Unconditional returns the empty condition set.
func (csc *ConditionSetCollector) Unconditional() *ConditionSet {
	cs, _ := csc.sets.GetAt(0)
	return cs
}

// GetOrAdd validates every condition of decl and returns the interned set.
// All invalid conditions are reported together.
func (csc *ConditionSetCollector) GetOrAdd(decl ConditionSetDecl) (*ConditionSet, error) {
	conds := make([]*Condition, 0, len(decl))
	var agg common.Aggregate
	for _, cd := range decl {
		c, err := csc.conditions.GetOrAdd(cd)
		if err != nil {
			agg.Add(err)
			continue
		}
		conds = append(conds, c)
	}
	if err := agg.Err(); err != nil {
		return nil, err
	}
	return csc.GetOrAddConditions(conds)
}

// GetOrAddConditions returns the interned set holding conds. Duplicates
// collapse; two different conditions on one qualifier are rejected.
func (csc *ConditionSetCollector) GetOrAddConditions(conds []*Condition) (*ConditionSet, error) {
	sorted := slices.Clone(conds)
	slices.SortFunc(sorted, CompareConditions)
	sorted = slices.Compact(sorted)

	seen := make(map[string]*Condition, len(sorted))
	for _, c := range sorted {
		name := c.qualifier.Name()
		if prior, ok := seen[name]; ok {
			return nil, common.Detailf(common.DetailInvalid,
				"condition set: conflicting conditions %s and %s on qualifier %s", prior.key, c.key, name)
		}
		seen[name] = c
	}

	key := conditionSetKey(sorted)
	cs, _, err := csc.sets.GetOrAdd(key, func(index int) (*ConditionSet, error) {
		return &ConditionSet{conditions: sorted, key: key, index: index}, nil
	})
	return cs, err
}

// GetOrAddIndices returns the interned set of the conditions at the given indices.
func (csc *ConditionSetCollector) GetOrAddIndices(indices []int) (*ConditionSet, error) {
	conds := make([]*Condition, 0, len(indices))
	for _, i := range indices {
		c, err := csc.conditions.GetAt(i)
		if err != nil {
			return nil, fmt.Errorf("condition set: %w", err)
		}
		conds = append(conds, c)
	}
	return csc.GetOrAddConditions(conds)
}

// Get returns the set with the given key.
func (csc *ConditionSetCollector) Get(key string) (*ConditionSet, bool) {
	return csc.sets.Get(key)
}

// GetAt returns the set at index.
func (csc *ConditionSetCollector) GetAt(index int) (*ConditionSet, error) {
	return csc.sets.GetAt(index)
}

// Len returns the number of condition sets, including the unconditional set.
func (csc *ConditionSetCollector) Len() int { return csc.sets.Len() }

// Values returns the sets in index order.
func (csc *ConditionSetCollector) Values() []*ConditionSet { return csc.sets.Values() }
