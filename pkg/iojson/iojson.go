// Package iojson reads and writes the JSON that commands accept with -f and
// print with --json.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteWith writes obj as indented JSON to w. A value that cannot be encoded
// is reported to ew as {"message": ..., "data": {"json_error": ...}} and the
// error is returned.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		report, _ := json.Marshal(map[string]any{
			"message": "failed to encode output",
			"data":    map[string]string{"json_error": err.Error()},
		})
		_, _ = fmt.Fprintln(ew, string(report))
		return fmt.Errorf("encode output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Decode reads exactly one JSON value into T. Unknown fields are rejected so
// a typo in an input file does not silently drop data.
func Decode[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode JSON: %w", err)
	}
	return v, nil
}
