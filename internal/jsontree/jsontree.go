// Package jsontree navigates the untyped nested arrays the backend returns.
//
// Decoded batchexecute payloads are positional: values live at fixed indices
// inside arrays of arrays, with null placeholders for omitted fields. This
// package centralizes that navigation so call sites name the position once
// instead of repeating magic indices, and tolerate missing or shorter arrays
// instead of panicking.
package jsontree

// At descends into nested []any values by position. It returns nil when any
// step is out of range or the value at that step is not an array.
func At(v any, path ...int) any {
	for _, idx := range path {
		arr, ok := v.([]any)
		if !ok || idx < 0 || idx >= len(arr) {
			return nil
		}
		v = arr[idx]
	}
	return v
}

// String returns the string at the given position, reporting whether one
// was present.
func String(v any, path ...int) (string, bool) {
	s, ok := At(v, path...).(string)
	return s, ok
}

// Number returns the number at the given position, reporting whether one
// was present. JSON numbers decode as float64.
func Number(v any, path ...int) (float64, bool) {
	n, ok := At(v, path...).(float64)
	return n, ok
}

// DeepString returns the first string found in a depth-first, left-to-right
// scan of the value. Registration responses bury allocated identifiers at
// varying depths across protocol revisions; this scan finds them without
// pinning a layout.
func DeepString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []any:
		for _, item := range val {
			if s, ok := DeepString(item); ok {
				return s, true
			}
		}
	}
	return "", false
}
