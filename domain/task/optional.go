package task

import (
	"bytes"
	"encoding/json"
)

// Optional holds a patch field that can be absent, explicitly null, or set
// to a value. Absent fields leave the stored value untouched; null clears it.
//
// Tag Optional fields with `json:",omitzero"` so absent fields stay absent
// when a patch is marshaled again.
type Optional[T any] struct {
	value *T
	set   bool
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: &v, set: true}
}

// Null returns an Optional that explicitly clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true}
}

// IsSet reports whether the field was provided at all, null included.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was provided as an explicit null.
func (o Optional[T]) IsNull() bool { return o.set && o.value == nil }

// IsZero reports whether the field is absent.
func (o Optional[T]) IsZero() bool { return !o.set }

// Get returns the value and whether one is present.
func (o Optional[T]) Get() (T, bool) {
	if o.value == nil {
		var zero T
		return zero, false
	}
	return *o.value, true
}

// Ptr returns a copy of the value as a pointer, or nil when absent or null.
func (o Optional[T]) Ptr() *T {
	return clonePtr(o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}
