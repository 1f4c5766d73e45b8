// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// reference.go — the reference dictionary (target address → UID) built while
// minding, the slot table filled while decoding, and the remind pass that
// patches every recorded slot once the targets are rebuilt.

package jsl

import (
	"fmt"
	"reflect"
	"unsafe"
)

// refKey identifies a location. The type is part of the key because a
// struct and its first field share an address.
type refKey struct {
	typ  reflect.Type
	addr unsafe.Pointer
}

type refSlot struct {
	v   reflect.Value
	uid uint64
}

// refTable is the reference state of one Append or Restore. UID 0 is
// reserved for nil.
type refTable struct {
	dict    map[refKey]uint64
	targets []reflect.Value
	minded  []bool

	// decode only
	slots     []refSlot
	slotIndex map[refKey]int
	allocated map[uint64]reflect.Value
}

func newRefTable() *refTable {
	return &refTable{
		dict:    make(map[refKey]uint64),
		targets: []reflect.Value{{}},
		minded:  []bool{true},
	}
}

func (r *refTable) size() int { return len(r.targets) }

// rewind starts a new pass over the same dictionary.
func (r *refTable) rewind() {
	clear(r.minded)
	r.minded[0] = true
}

// mind registers the pointer p and returns its UID. fresh reports whether
// this is the first time p is met during the current pass.
func (r *refTable) mind(p reflect.Value) (uid uint64, fresh bool) {
	if p.IsNil() {
		return 0, false
	}
	k := refKey{typ: p.Type(), addr: p.UnsafePointer()}
	uid, ok := r.dict[k]
	if !ok {
		uid = uint64(len(r.targets))
		r.dict[k] = uid
		r.targets = append(r.targets, p)
		r.minded = append(r.minded, false)
	}
	fresh = !r.minded[uid]
	r.minded[uid] = true
	return uid, fresh
}

func (r *refTable) lookup(p reflect.Value) (uint64, bool) {
	uid, ok := r.dict[refKey{typ: p.Type(), addr: p.UnsafePointer()}]
	return uid, ok
}

func (r *refTable) mindAll(entries []any) error {
	for _, x := range entries {
		if err := r.mindEntry(x); err != nil {
			return err
		}
	}
	return nil
}

func (r *refTable) mindEntry(x any) error {
	switch x := x.(type) {
	case nil:
		return nil
	case []any:
		return r.mindAll(x)
	case AddressProvider:
		return r.mindAll(x())
	case func() []any:
		return r.mindAll(x())
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Ptr:
		r.mind(rv)
		return nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Ptr {
			for i := 0; i < rv.Len(); i++ {
				r.mind(rv.Index(i))
			}
			return nil
		}
	}
	return fmt.Errorf("%w: cannot mind %T", ErrUnsupportedType, x)
}

func slotKey(v reflect.Value) refKey {
	return refKey{typ: v.Type(), addr: v.Addr().UnsafePointer()}
}

// expect records that the pointer slot v must end up holding target uid.
func (r *refTable) expect(v reflect.Value, uid uint64) error {
	if r.slotIndex == nil {
		r.slotIndex = make(map[refKey]int)
	}
	k := slotKey(v)
	if _, dup := r.slotIndex[k]; dup {
		return fmt.Errorf("%w: %s slot at %p", ErrDuplicateReferentSlot, v.Type(), k.addr)
	}
	r.slotIndex[k] = len(r.slots)
	r.slots = append(r.slots, refSlot{v: v, uid: uid})
	return nil
}

// own fills an owned pointer slot before its owner recurses into it: nil
// for UID 0, the rebuilt target when the UID is already known, otherwise a
// fresh instance shared by every owned slot with the same UID.
func (r *refTable) own(slot reflect.Value) error {
	i, ok := r.slotIndex[slotKey(slot)]
	if !ok {
		return fmt.Errorf("%w: owned %s is not among the fields", ErrMissingReferents, slot.Type())
	}
	uid := r.slots[i].uid
	switch {
	case uid == 0:
		slot.SetZero()
		return nil
	case uid < uint64(len(r.targets)):
		return assign(slot, r.targets[uid], uid)
	}
	if p, ok := r.allocated[uid]; ok {
		return assign(slot, p, uid)
	}
	elem := slot.Type().Elem()
	if elem.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %s", ErrMissingDefaultState, elem)
	}
	if r.allocated == nil {
		r.allocated = make(map[uint64]reflect.Value)
	}
	p := reflect.New(elem)
	r.allocated[uid] = p
	slot.Set(p)
	return nil
}

// remind writes the rebuilt target into every recorded slot.
func (r *refTable) remind() error {
	for uid, p := range r.allocated {
		if uid >= uint64(len(r.targets)) || r.targets[uid].UnsafePointer() != p.UnsafePointer() {
			return fmt.Errorf("%w: allocated %s for uid %d was never minded", ErrMissingReferents, p.Type(), uid)
		}
	}
	for _, s := range r.slots {
		if s.uid == 0 {
			s.v.SetZero()
			continue
		}
		if s.uid >= uint64(len(r.targets)) {
			return fmt.Errorf("%w: uid %d of %d", ErrMissingReferents, s.uid, len(r.targets)-1)
		}
		if err := assign(s.v, r.targets[s.uid], s.uid); err != nil {
			return err
		}
	}
	return nil
}

func assign(slot, target reflect.Value, uid uint64) error {
	if !target.Type().AssignableTo(slot.Type()) {
		return fmt.Errorf("%w: uid %d is %s, slot is %s", ErrReferentMismatch, uid, target.Type(), slot.Type())
	}
	slot.Set(target)
	return nil
}

// referenceSerializer handles pointer-typed values: the pointer is written
// as the UID of its target, never as the pointee.
type referenceSerializer struct{}

func (referenceSerializer) encode(e *encoder, v reflect.Value) error {
	if v.IsNil() {
		e.buf.AppendLength(0)
		return nil
	}
	if e.detached > 0 {
		return fmt.Errorf("%w: %s", ErrDetachedReference, v.Type())
	}
	uid, ok := e.refs.lookup(v)
	if !ok {
		return fmt.Errorf("%w: %s at %p", ErrUnaccountedReference, v.Type(), v.UnsafePointer())
	}
	e.buf.AppendLength(uid)
	return nil
}

func (referenceSerializer) decode(d *decoder, v reflect.Value) error {
	uid, err := d.buf.RestoreLength()
	if err != nil {
		return err
	}
	if uid != 0 && d.detached > 0 {
		return fmt.Errorf("%w: %s uid %d", ErrDetachedReference, v.Type(), uid)
	}
	return d.refs.expect(v, uid)
}
