package store

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of reading and decoding a stored JSON value.
// A missing key has Found false. A present but malformed value has Found
// true and a non-nil Err; Value is then the zero value.
type Result[T any] struct {
	Value T
	Found bool
	Err   error
}

// OK reports whether a value was found and decoded.
func (r Result[T]) OK() bool {
	return r.Found && r.Err == nil
}

// Or returns the decoded value, or def when there is none.
func (r Result[T]) Or(def T) T {
	if r.OK() {
		return r.Value
	}
	return def
}

// Decode unmarshals data into a T. It never panics on malformed input.
func Decode[T any](data []byte) Result[T] {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return Result[T]{Value: zero, Found: true, Err: fmt.Errorf("decode stored value: %w", err)}
	}
	return Result[T]{Value: v, Found: true}
}
