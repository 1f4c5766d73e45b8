// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// composite.go — the protocol user types implement to take part in encoding:
// an ordered field list, the reference targets they own, and the pointer
// fields the decoder must allocate.

package jsl

import (
	"fmt"
	"reflect"
)

// Composite is implemented by types that declare their own serialized
// fields. Fields returns one entry per field, in order, and is used for
// both encoding and decoding. An entry is one of:
//
//   - a non-nil pointer to the field, encoded through the regular dispatch
//     (a pointer to a pointer field makes that field a reference);
//   - an Accessor, for values reached through a getter/setter pair;
//   - a Hook, for fields the type encodes itself.
//
// Fields must be declared on the pointer receiver.
type Composite interface {
	Fields() []any
}

// Minder is a Composite that holds targets other fields refer to. Mind
// returns their addresses after the fields have been encoded or decoded.
// Entries may be pointers (nil is allowed), slices or arrays of pointers,
// nested []any lists, or AddressProvider callbacks.
type Minder interface {
	Composite
	Mind() []any
}

// Reminder is a Minder whose pointer fields own their pointees, such as the
// children of a tree node. Remind returns the addresses of those pointer
// fields (or of slices of them); each must also appear in Fields. The
// decoder allocates a fresh instance for every non-nil owned pointer the
// first time its UID is seen, and shares it for later occurrences.
type Reminder interface {
	Minder
	Remind() []any
}

// AddressProvider yields reference targets lazily, for Mind entries whose
// addresses are only known once the owner has been decoded.
type AddressProvider func() []any

// Elements returns the address of every element of s, for Mind.
func Elements[T any](s []T) []any {
	out := make([]any, len(s))
	for i := range s {
		out[i] = &s[i]
	}
	return out
}

// Accessor is a Fields entry for a value reached through a getter and a
// setter. The value is encoded from a detached copy, so references below it
// must be nil.
type Accessor[T any] struct {
	Get func() T
	Set func(T)
}

// Access returns an Accessor for Fields.
func Access[T any](get func() T, set func(T)) Accessor[T] {
	return Accessor[T]{Get: get, Set: set}
}

type accessor interface {
	valueType() reflect.Type
	load() reflect.Value
	store(reflect.Value)
}

func (a Accessor[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (a Accessor[T]) load() reflect.Value {
	var x T
	if a.Get != nil {
		x = a.Get()
	}
	return reflect.ValueOf(&x).Elem()
}

func (a Accessor[T]) store(v reflect.Value) {
	if a.Set == nil {
		return
	}
	var x T
	reflect.ValueOf(&x).Elem().Set(v)
	a.Set(x)
}

// Hook is a Fields entry whose bytes the owning type writes and reads
// itself. The owner is passed explicitly. Append and Restore calls made
// from a hook run in their own reference scope, which makes hooks the
// place for pointers into memory the codec must not allocate.
type Hook struct {
	Encode func(b *Blob, owner Composite) error
	Decode func(b *Blob, owner Composite) error
}

// ────────────────────────────────────────────────────────────────────────────
// Dispatch
// ────────────────────────────────────────────────────────────────────────────

type compositeSerializer struct{}

func (compositeSerializer) encode(e *encoder, v reflect.Value) error {
	p := addressable(v).Addr()
	return e.composite(p.Interface().(Composite), p)
}

func (compositeSerializer) decode(d *decoder, v reflect.Value) error {
	p := v.Addr()
	return d.composite(p.Interface().(Composite), p)
}

// composite encodes c in canonical mind order: self (for a Reminder), the
// fields, the Mind targets, then the pointees of owned pointers that are
// met for the first time. The decoder walks the same order, so both sides
// hand out identical UIDs.
func (e *encoder) composite(c Composite, self reflect.Value) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	r, owns := c.(Reminder)
	if owns {
		e.refs.mind(self)
	}
	for _, f := range c.Fields() {
		if err := e.field(c, f); err != nil {
			return err
		}
	}
	if m, ok := c.(Minder); ok {
		if err := e.refs.mindAll(m.Mind()); err != nil {
			return err
		}
	}
	if !owns {
		return nil
	}
	slots, err := ownedSlots(r.Remind(), nil)
	if err != nil {
		return err
	}
	for _, s := range slots {
		if s.IsNil() {
			continue
		}
		if _, fresh := e.refs.mind(s); !fresh {
			continue
		}
		if err := e.value(s.Elem()); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) composite(c Composite, self reflect.Value) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	r, owns := c.(Reminder)
	if owns {
		d.refs.mind(self)
	}
	for _, f := range c.Fields() {
		if err := d.field(c, f); err != nil {
			return err
		}
	}
	if m, ok := c.(Minder); ok {
		if err := d.refs.mindAll(m.Mind()); err != nil {
			return err
		}
	}
	if !owns {
		return nil
	}
	slots, err := ownedSlots(r.Remind(), nil)
	if err != nil {
		return err
	}
	// Allocate before recursing: a pointee must exist before its fields
	// can be decoded into it.
	for _, s := range slots {
		if err := d.refs.own(s); err != nil {
			return err
		}
	}
	for _, s := range slots {
		if s.IsNil() {
			continue
		}
		if _, fresh := d.refs.mind(s); !fresh {
			continue
		}
		if err := d.value(s.Elem()); err != nil {
			return err
		}
	}
	return nil
}

// ownedSlots flattens Remind entries into addressable pointer values.
func ownedSlots(entries []any, out []reflect.Value) ([]reflect.Value, error) {
	for _, x := range entries {
		if nested, ok := x.([]any); ok {
			var err error
			if out, err = ownedSlots(nested, out); err != nil {
				return nil, err
			}
			continue
		}
		rv := reflect.ValueOf(x)
		if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
			return nil, fmt.Errorf("%w: owned slot %T", ErrNotPointer, x)
		}
		slot := rv.Elem()
		switch {
		case slot.Kind() == reflect.Ptr:
			out = append(out, slot)
		case (slot.Kind() == reflect.Slice || slot.Kind() == reflect.Array) && slot.Type().Elem().Kind() == reflect.Ptr:
			for i := 0; i < slot.Len(); i++ {
				out = append(out, slot.Index(i))
			}
		default:
			return nil, fmt.Errorf("%w: owned slot %T does not hold pointers", ErrNotPointer, x)
		}
	}
	return out, nil
}

func (e *encoder) field(owner Composite, f any) error {
	switch f := f.(type) {
	case nil:
		return fmt.Errorf("%w: nil field entry in %T", ErrNotPointer, owner)
	case Hook:
		if e.minding {
			return nil
		}
		if f.Encode == nil {
			return fmt.Errorf("%w: hook in %T has no encoder", ErrUnsupportedType, owner)
		}
		if err := f.Encode(e.blob, owner); err != nil {
			return fmt.Errorf("jsl: %T hook: %w", owner, err)
		}
		return nil
	case accessor:
		return e.accessor(f)
	}
	rv := reflect.ValueOf(f)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: field entry %T in %T", ErrNotPointer, f, owner)
	}
	return e.value(rv.Elem())
}

func (d *decoder) field(owner Composite, f any) error {
	switch f := f.(type) {
	case nil:
		return fmt.Errorf("%w: nil field entry in %T", ErrNotPointer, owner)
	case Hook:
		if f.Decode == nil {
			return fmt.Errorf("%w: hook in %T has no decoder", ErrUnsupportedType, owner)
		}
		if err := f.Decode(d.blob, owner); err != nil {
			return fmt.Errorf("jsl: %T hook: %w", owner, err)
		}
		return nil
	case accessor:
		return d.accessor(f)
	}
	rv := reflect.ValueOf(f)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: field entry %T in %T", ErrNotPointer, f, owner)
	}
	return d.value(rv.Elem())
}

// accessor encodes the getter's value. The minding pass only calls the
// getter when the value can hold composites, and the write pass reuses
// that copy.
func (e *encoder) accessor(a accessor) error {
	ti := infoOf(a.valueType())
	var v reflect.Value
	switch {
	case e.minding:
		if !ti.shape {
			return nil
		}
		v = a.load()
		e.remember(v)
	case ti.shape:
		v = e.recall().(reflect.Value)
	default:
		v = a.load()
	}
	e.detached++
	defer func() { e.detached-- }()
	return e.valueOf(ti, v)
}

// accessor decodes into a copy of the getter's value and hands the result
// to the setter.
func (d *decoder) accessor(a accessor) error {
	v := a.load()
	d.detached++
	err := d.value(v)
	d.detached--
	if err != nil {
		return err
	}
	a.store(v)
	return nil
}
