package domain

import (
	"bytes"
	"encoding/json"
)

// Nullable is an optional JSON field that tells an absent key apart from an
// explicit null. Set is false when the key was absent; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Set returns a Nullable holding v.
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable explicitly cleared.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// IsNull reports whether the field was present and null.
func (n Nullable[T]) IsNull() bool {
	return n.Set && n.Value == nil
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
