package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a field path: a map key, optionally followed by an
// index into the array found at that key (e.g. "lines[0]").
type Segment struct {
	Key      string
	Index    int
	HasIndex bool
}

// ParsePath parses a dotted/bracketed path into segments. Supported grammar:
// dot-separated keys, each optionally carrying a single bracketed integer
// index ("medHistory.claims[0].lines[1].srvcStart").
func ParsePath(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.Split(path, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("path %q has an empty segment", path)
		}
		seg := Segment{Key: part}
		if open := strings.IndexByte(part, '['); open >= 0 {
			if !strings.HasSuffix(part, "]") || open == 0 {
				return nil, fmt.Errorf("path %q: malformed index in segment %q", path, part)
			}
			idx, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("path %q: invalid index in segment %q", path, part)
			}
			seg.Key = part[:open]
			seg.Index = idx
			seg.HasIndex = true
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// Resolve walks root along path and returns the value found there. It never
// fails hard: any missing key, nil intermediate, type mismatch, or malformed
// path short-circuits to (nil, false).
func Resolve(root interface{}, path string) (interface{}, bool) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	cur := root
	for _, seg := range segments {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		next, ok := obj[seg.Key]
		if !ok || next == nil {
			return nil, false
		}
		if seg.HasIndex {
			arr, ok := next.([]interface{})
			if !ok || seg.Index >= len(arr) {
				return nil, false
			}
			next = arr[seg.Index]
			if next == nil {
				return nil, false
			}
		}
		cur = next
	}
	return cur, true
}

// ResolveDefault resolves path, substituting def when nothing is found.
func ResolveDefault(root interface{}, path string, def interface{}) interface{} {
	if v, ok := Resolve(root, path); ok {
		return v
	}
	return def
}

// ResolveArray resolves path and asserts the result is a JSON array.
func ResolveArray(root interface{}, path string) ([]interface{}, bool) {
	v, ok := Resolve(root, path)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]interface{})
	return arr, ok
}

// ResolveString resolves path and renders the value as a display string.
// Missing values and non-scalars yield "".
func ResolveString(root interface{}, path string) string {
	v, ok := Resolve(root, path)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Stringify renders a scalar JSON value for display. Objects and arrays
// yield "" since they have no single display form.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}
