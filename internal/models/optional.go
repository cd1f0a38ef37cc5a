// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Optional is a patch field with three states: unset (leave the column
// alone), set to a value, or set to NULL.
type Optional[T any] struct {
	Value T
	Null  bool
	set   bool
}

// Some returns an Optional that writes v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, set: true}
}

// Null returns an Optional that writes NULL.
func Null[T any]() Optional[T] {
	return Optional[T]{Null: true, set: true}
}

// FromPtr writes *p, or NULL when p is nil.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Null[T]()
	}
	return Some(*p)
}

// IsSet reports whether the field takes part in the update.
func (o Optional[T]) IsSet() bool { return o.set }

// Ptr returns the written value as a pointer, nil for NULL or unset.
func (o Optional[T]) Ptr() *T {
	if !o.set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// Arg returns the value to bind as a SQL argument.
func (o Optional[T]) Arg() any {
	if o.Null {
		return nil
	}
	return o.Value
}
