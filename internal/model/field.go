package model

// Field is a three-state builder value: unset, explicitly null, or an
// explicit value. The zero value is unset, so builders distinguish "caller
// did not provide this field" from "caller provided null" without relying on
// pointers.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a Field holding an explicit value.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// SetNull returns a Field holding an explicit null.
func SetNull[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field was explicitly provided, either as a value
// or as null.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field was explicitly set to null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value and whether a non-null value is present.
func (f Field[T]) Get() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// SQLValue returns the value to bind into a statement: nil for an explicit
// null, the value otherwise. It must only be called on a set field.
func (f Field[T]) SQLValue() any {
	if f.null {
		return nil
	}
	return f.value
}

// Fields is the set of populated columns produced by a builder, keyed by
// column name. Only explicitly-set builder fields appear here.
type Fields map[string]any

// Builder is implemented by every per-entity builder. Fields returns only the
// explicitly-populated columns; Validate checks domain constraints on them
// before they reach a repository.
type Builder interface {
	Fields() Fields
	Validate() error
}
