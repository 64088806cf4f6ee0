package qualifiertypes

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/willibrandon/gores/common"
)

// HierarchyDecayFactor is the score multiplier applied per hierarchy level.
const HierarchyDecayFactor = 0.9

// HierarchyParams declares a value hierarchy.
type HierarchyParams[T ~string] struct {
	// Values restricts the hierarchy to an explicit set (constrained mode).
	// When empty the values are inferred from Parents (open mode).
	Values []T

	// Parents maps each value to its parent.
	Parents map[T]T
}

// hierarchyNode describes one value and its links.
type hierarchyNode[T ~string] struct {
	value    T
	parent   T
	hasPart  bool
	children []T
}

// LiteralValueHierarchy is a forest over qualifier values. Each value has at
// most one parent. A condition on an ancestor matches a context value with
// a score that decays by HierarchyDecayFactor per level.
type LiteralValueHierarchy[T ~string] struct {
	nodes       map[T]*hierarchyNode[T]
	constrained bool
}

// NewLiteralValueHierarchy builds and validates a hierarchy. Every invalid
// parent reference and every cycle is reported, not just the first.
func NewLiteralValueHierarchy[T ~string](params HierarchyParams[T]) (*LiteralValueHierarchy[T], error) {
	h := &LiteralValueHierarchy[T]{
		nodes:       make(map[T]*hierarchyNode[T]),
		constrained: len(params.Values) > 0,
	}

	for _, v := range params.Values {
		h.nodes[v] = &hierarchyNode[T]{value: v}
	}

	var agg common.Aggregate
	for _, child := range sortedKeys(params.Parents) {
		parent := params.Parents[child]
		if h.constrained {
			if _, ok := h.nodes[child]; !ok {
				agg.Addf("%w: value %q is not in the allowed values", ErrInvalidHierarchy, child)
				continue
			}
			if _, ok := h.nodes[parent]; !ok {
				agg.Addf("%w: parent %q of %q is not in the allowed values", ErrInvalidHierarchy, parent, child)
				continue
			}
		}
		if child == parent {
			agg.Addf("%w: %q cannot be its own parent", ErrInvalidHierarchy, child)
			continue
		}
		h.ensure(child).parent = parent
		h.ensure(child).hasPart = true
		h.ensure(parent)
	}

	for _, cycle := range h.findCycles() {
		agg.Addf("%w: circular reference %s", ErrInvalidHierarchy, cycle)
	}

	if err := agg.Err(); err != nil {
		return nil, err
	}

	for _, v := range h.Values() {
		node := h.nodes[v]
		if node.hasPart {
			parent := h.nodes[node.parent]
			parent.children = append(parent.children, v)
		}
	}
	return h, nil
}

func (h *LiteralValueHierarchy[T]) ensure(v T) *hierarchyNode[T] {
	node, ok := h.nodes[v]
	if !ok {
		node = &hierarchyNode[T]{value: v}
		h.nodes[v] = node
	}
	return node
}

// findCycles walks every ancestor chain and reports each distinct cycle once.
func (h *LiteralValueHierarchy[T]) findCycles() []string {
	seen := make(map[string]bool)
	var cycles []string

	for _, start := range h.Values() {
		position := make(map[T]int)
		var path []T
		current := start
		for {
			if p, ok := position[current]; ok {
				members := path[p:]
				key := cycleKey(members)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, formatCycle(members))
				}
				break
			}
			node, ok := h.nodes[current]
			if !ok || !node.hasPart {
				break
			}
			position[current] = len(path)
			path = append(path, current)
			current = node.parent
		}
	}
	return cycles
}

func cycleKey[T ~string](members []T) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = string(m)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func formatCycle[T ~string](members []T) string {
	parts := make([]string, 0, len(members)+1)
	for _, m := range members {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(members[0]))
	return strings.Join(parts, " -> ")
}

// IsConstrained reports whether the hierarchy was declared with explicit values.
func (h *LiteralValueHierarchy[T]) IsConstrained() bool {
	return h.constrained
}

// HasValue reports whether v is known to the hierarchy.
func (h *LiteralValueHierarchy[T]) HasValue(v T) bool {
	_, ok := h.nodes[v]
	return ok
}

// Parent returns the parent of v.
func (h *LiteralValueHierarchy[T]) Parent(v T) (T, bool) {
	node, ok := h.nodes[v]
	if !ok || !node.hasPart {
		var zero T
		return zero, false
	}
	return node.parent, true
}

// Children returns the direct children of v in sorted order.
func (h *LiteralValueHierarchy[T]) Children(v T) []T {
	node, ok := h.nodes[v]
	if !ok {
		return nil
	}
	out := make([]T, len(node.children))
	copy(out, node.children)
	return out
}

// Ancestors returns the ancestors of v, nearest first.
func (h *LiteralValueHierarchy[T]) Ancestors(v T) []T {
	var out []T
	current := v
	for {
		parent, ok := h.Parent(current)
		if !ok {
			return out
		}
		out = append(out, parent)
		current = parent
	}
}

// Roots returns the values without a parent, sorted.
func (h *LiteralValueHierarchy[T]) Roots() []T {
	var out []T
	for _, v := range h.Values() {
		if !h.nodes[v].hasPart {
			out = append(out, v)
		}
	}
	return out
}

// Values returns every value in the hierarchy, sorted.
func (h *LiteralValueHierarchy[T]) Values() []T {
	out := make([]T, 0, len(h.nodes))
	for v := range h.nodes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Match scores condition against context: PerfectMatch when equal,
// PerfectMatch * 0.9^d when condition is an ancestor of context at depth d,
// otherwise NoMatch.
func (h *LiteralValueHierarchy[T]) Match(condition, context T) common.QualifierMatchScore {
	if condition == context {
		return common.PerfectMatch
	}
	for depth, ancestor := range h.Ancestors(context) {
		if ancestor == condition {
			return common.PerfectMatch * common.QualifierMatchScore(math.Pow(HierarchyDecayFactor, float64(depth+1)))
		}
	}
	return common.NoMatch
}

// Parents returns the child to parent map, for export.
func (h *LiteralValueHierarchy[T]) Parents() map[T]T {
	out := make(map[T]T)
	for v, node := range h.nodes {
		if node.hasPart {
			out[v] = node.parent
		}
	}
	return out
}

func sortedKeys[T ~string](m map[T]T) []T {
	out := make([]T, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the hierarchy for diagnostics.
func (h *LiteralValueHierarchy[T]) String() string {
	var sb strings.Builder
	for i, v := range h.Values() {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p, ok := h.Parent(v); ok {
			fmt.Fprintf(&sb, "%s->%s", v, p)
		} else {
			sb.WriteString(string(v))
		}
	}
	return sb.String()
}
