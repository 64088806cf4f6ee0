// Package collections provides the interning collector every registry in the
// engine is built on.
//
// A Collector hands out sequential, permanent indices. Once an item receives
// an index it never changes, so compiled collections can reference entities
// purely by position and a replay in the same order reproduces the same
// indices.
package collections

import (
	"fmt"

	"github.com/willibrandon/gores/common"
)

// Collector interns items by a structural key.
// It is not safe for concurrent mutation.
type Collector[T any] struct {
	name  string
	items []T
	keys  []string
	byKey map[string]int
}

// NewCollector creates an empty collector. The name is used in error messages.
func NewCollector[T any](name string) *Collector[T] {
	return &Collector[T]{
		name:  name,
		byKey: make(map[string]int),
	}
}

// GetOrAdd returns the item registered under key, or calls factory with the
// next index and registers its result. The bool result is true when the
// item was newly added.
func (c *Collector[T]) GetOrAdd(key string, factory func(index int) (T, error)) (T, bool, error) {
	if index, ok := c.byKey[key]; ok {
		return c.items[index], false, nil
	}

	index := len(c.items)
	item, err := factory(index)
	if err != nil {
		var zero T
		return zero, false, err
	}

	c.items = append(c.items, item)
	c.keys = append(c.keys, key)
	c.byKey[key] = index
	return item, true, nil
}

// Get returns the item registered under key.
func (c *Collector[T]) Get(key string) (T, bool) {
	if index, ok := c.byKey[key]; ok {
		return c.items[index], true
	}
	var zero T
	return zero, false
}

// IndexOf returns the index registered for key.
func (c *Collector[T]) IndexOf(key string) (int, bool) {
	index, ok := c.byKey[key]
	return index, ok
}

// GetAt returns the item at index.
func (c *Collector[T]) GetAt(index int) (T, error) {
	if index < 0 || index >= len(c.items) {
		var zero T
		return zero, common.WithDetail(common.DetailNotFound,
			fmt.Errorf("%s: index %d: %w", c.name, index, common.ErrNotFound))
	}
	return c.items[index], nil
}

// KeyAt returns the key of the item at index.
func (c *Collector[T]) KeyAt(index int) (string, bool) {
	if index < 0 || index >= len(c.keys) {
		return "", false
	}
	return c.keys[index], true
}

// Has reports whether key is registered.
func (c *Collector[T]) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Len returns the number of items.
func (c *Collector[T]) Len() int {
	return len(c.items)
}

// Values returns the items in index order. The slice is a copy.
func (c *Collector[T]) Values() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Name returns the collector name.
func (c *Collector[T]) Name() string {
	return c.name
}
