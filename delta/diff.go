package delta

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/willibrandon/gores/resources"
)

// jsonEqual treats nil and empty maps and slices alike, the way two
// decoded JSON documents compare.
var jsonEqual = cmp.Options{cmpopts.EquateEmpty()}

// Equal reports whether two JSON objects are structurally equal.
func Equal(a, b map[string]any) bool {
	return cmp.Equal(a, b, jsonEqual)
}

// Diff returns the partial object that turns from into to when merged over
// it: added and changed properties carry their new value, nested objects
// recurse, and properties missing from to are set to nil.
func Diff(from, to map[string]any) map[string]any {
	out := make(map[string]any)
	for k, tv := range to {
		fv, ok := from[k]
		if !ok {
			out[k] = resources.CloneJSON(tv)
			continue
		}
		if cmp.Equal(fv, tv, jsonEqual) {
			continue
		}
		fobj, fromObj := fv.(map[string]any)
		tobj, toObj := tv.(map[string]any)
		if fromObj && toObj {
			out[k] = Diff(fobj, tobj)
			continue
		}
		out[k] = resources.CloneJSON(tv)
	}
	for k := range from {
		if _, ok := to[k]; !ok {
			out[k] = nil
		}
	}
	return out
}
