package resources

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"maps"
)

// CanonicalJSON encodes v with object keys sorted, so structurally equal
// values produce identical bytes.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return data, nil
}

// ContentHash returns the CRC32 (IEEE) checksum of the canonical encoding of v.
func ContentHash(v any) (uint32, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return 0, err
	}
	return crc32.ChecksumIEEE(data), nil
}

// CloneJSON deep-copies a generic JSON value.
func CloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = CloneJSON(child)
		}
		return out
	default:
		return v
	}
}

// CloneObject deep-copies a JSON object. A nil object stays nil.
func CloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, child := range obj {
		out[k] = CloneJSON(child)
	}
	return out
}

// MergeObjects deep-merges overlay onto base and returns a new object.
// Nested objects merge recursively and any other overlay value replaces the
// base value. A null overlay value removes the key unless keepNulls is set,
// in which case the null is kept so a later merge can apply the removal.
func MergeObjects(base, overlay map[string]any, keepNulls bool) map[string]any {
	out := CloneObject(base)
	if out == nil {
		out = make(map[string]any, len(overlay))
	}
	for k, ov := range overlay {
		if ov == nil {
			if keepNulls {
				out[k] = nil
			} else {
				delete(out, k)
			}
			continue
		}
		overlayObj, overlayIsObj := ov.(map[string]any)
		baseObj, baseIsObj := out[k].(map[string]any)
		if overlayIsObj && baseIsObj {
			out[k] = MergeObjects(baseObj, overlayObj, keepNulls)
			continue
		}
		if overlayIsObj && !keepNulls {
			out[k] = MergeObjects(nil, overlayObj, false)
			continue
		}
		out[k] = CloneJSON(ov)
	}
	return out
}

// StripNulls returns a copy of obj without null-valued keys at any depth.
func StripNulls(obj map[string]any) map[string]any {
	out := maps.Clone(obj)
	for k, v := range out {
		switch t := v.(type) {
		case nil:
			delete(out, k)
		case map[string]any:
			out[k] = StripNulls(t)
		default:
			out[k] = CloneJSON(t)
		}
	}
	return out
}
