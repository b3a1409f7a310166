// Package jsonpath implements the dot-segment, JSON-pointer-compatible path
// syntax used throughout the manifest (parameter_mappings, streaming paths,
// tooling paths) and the selector/event-mapper expression language (§4.1,
// §4.2). Paths look like "a.b.0.c": dot-separated segments where an
// all-digit segment addresses an array index.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one hop of a parsed path: either an object key or an array
// index.
type Segment struct {
	Key      string
	Index    int
	IsIndex  bool
}

// Parse splits a path string into its segments. A leading "$." (used inside
// selector expressions) is stripped before splitting. An empty path parses
// to zero segments, meaning "the whole value".
func Parse(path string) []Segment {
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")
	path = strings.Trim(path, ".")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil && p != "" {
			segs = append(segs, Segment{Index: n, IsIndex: true})
			continue
		}
		segs = append(segs, Segment{Key: p})
	}
	return segs
}

// Get resolves path against root and reports whether it resolved to a
// present value (distinguishing an explicit JSON null from "not found").
func Get(root interface{}, path string) (interface{}, bool) {
	segs := Parse(path)
	cur := root
	for _, s := range segs {
		switch {
		case s.IsIndex:
			arr, ok := cur.([]interface{})
			if !ok || s.Index < 0 || s.Index >= len(arr) {
				return nil, false
			}
			cur = arr[s.Index]
		default:
			obj, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			v, present := obj[s.Key]
			if !present {
				return nil, false
			}
			cur = v
		}
	}
	return cur, true
}

// Set writes value at path within root, creating intermediate objects and
// auto-extending arrays as needed, per §4.1's compile algorithm. root must
// be a map[string]interface{} (or nil, in which case a new one is created).
// Set returns an error if a path segment collides with a non-object,
// non-array intermediate value (§4.1 failure mode: "path write collides
// with a non-object intermediate").
func Set(root map[string]interface{}, path string, value interface{}) error {
	segs := Parse(path)
	if len(segs) == 0 {
		return fmt.Errorf("jsonpath: empty path")
	}
	return setSegs(root, segs, value)
}

func setSegs(obj map[string]interface{}, segs []Segment, value interface{}) error {
	seg := segs[0]
	if seg.IsIndex {
		return fmt.Errorf("jsonpath: root-level segment %q must be an object key, got array index", seg.Key)
	}
	if len(segs) == 1 {
		obj[seg.Key] = value
		return nil
	}

	next := segs[1]
	existing, present := obj[seg.Key]

	if next.IsIndex {
		arr, ok := toArray(existing, present)
		if !ok {
			return fmt.Errorf("jsonpath: segment %q is not an array but an index follows", seg.Key)
		}
		newArr, err := setArray(arr, next.Index, segs[2:], value)
		if err != nil {
			return err
		}
		obj[seg.Key] = newArr
		return nil
	}

	child, ok := toObject(existing, present)
	if !ok {
		return fmt.Errorf("jsonpath: segment %q is not an object but a key follows", seg.Key)
	}
	obj[seg.Key] = child
	return setSegs(child, segs[1:], value)
}

func setArray(arr []interface{}, index int, rest []Segment, value interface{}) ([]interface{}, error) {
	for len(arr) <= index {
		arr = append(arr, nil)
	}
	if len(rest) == 0 {
		arr[index] = value
		return arr, nil
	}

	next := rest[0]
	if next.IsIndex {
		childArr, ok := toArray(arr[index], arr[index] != nil)
		if !ok {
			return nil, fmt.Errorf("jsonpath: index %d is not an array but an index follows", index)
		}
		newChild, err := setArray(childArr, next.Index, rest[1:], value)
		if err != nil {
			return nil, err
		}
		arr[index] = newChild
		return arr, nil
	}

	child, ok := toObject(arr[index], arr[index] != nil)
	if !ok {
		return nil, fmt.Errorf("jsonpath: index %d is not an object but a key follows", index)
	}
	arr[index] = child
	if err := setSegs(child, rest, value); err != nil {
		return nil, err
	}
	return arr, nil
}

func toObject(v interface{}, present bool) (map[string]interface{}, bool) {
	if !present || v == nil {
		return map[string]interface{}{}, true
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func toArray(v interface{}, present bool) ([]interface{}, bool) {
	if !present || v == nil {
		return []interface{}{}, true
	}
	a, ok := v.([]interface{})
	return a, ok
}
