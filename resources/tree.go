package resources

import (
	"slices"
	"strings"
)

// ResourceTree is a hierarchical view of resource ids. Each node is one id
// segment; a node holds a resource when its path is a resource id.
type ResourceTree struct {
	name     string
	path     string
	resource *Resource
	children map[string]*ResourceTree
}

func newResourceTree(resources []*Resource) *ResourceTree {
	root := &ResourceTree{children: make(map[string]*ResourceTree)}
	for _, r := range resources {
		node := root
		for _, segment := range strings.Split(r.ID(), ".") {
			node = node.child(segment)
		}
		node.resource = r
	}
	return root
}

func (t *ResourceTree) child(name string) *ResourceTree {
	if c, ok := t.children[name]; ok {
		return c
	}
	path := name
	if t.path != "" {
		path = t.path + "." + name
	}
	c := &ResourceTree{name: name, path: path, children: make(map[string]*ResourceTree)}
	t.children[name] = c
	return c
}

// Name returns the last id segment, or "" for the root.
func (t *ResourceTree) Name() string { return t.name }

// Path returns the dotted path from the root.
func (t *ResourceTree) Path() string { return t.path }

// Resource returns the resource at this node, or nil for a pure branch.
func (t *ResourceTree) Resource() *Resource { return t.resource }

// ChildNames returns the names of the direct children, sorted.
func (t *ResourceTree) ChildNames() []string {
	names := make([]string, 0, len(t.children))
	for name := range t.children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Child returns a direct child by name.
func (t *ResourceTree) Child(name string) (*ResourceTree, bool) {
	c, ok := t.children[name]
	return c, ok
}

// Find returns the node at a dotted path relative to t.
func (t *ResourceTree) Find(path string) (*ResourceTree, bool) {
	if path == "" {
		return t, true
	}
	node := t
	for _, segment := range strings.Split(path, ".") {
		next, ok := node.children[segment]
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Walk visits t and its descendants depth first in name order. Returning
// false from fn skips the node's children.
func (t *ResourceTree) Walk(fn func(node *ResourceTree) bool) {
	if !fn(t) {
		return
	}
	for _, name := range t.ChildNames() {
		t.children[name].Walk(fn)
	}
}
