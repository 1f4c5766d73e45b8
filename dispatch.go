// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// dispatch.go — per-type serializer resolution and the value serializers for
// scalars, strings, arrays, slices, maps, plain structs and binary
// marshalers, plus the encode/decode session state they run against.

package jsl

import (
	"cmp"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"sync"

	"github.com/ldn-softdev/jsl/internal/wire"
)

// serializer encodes and decodes values of one reflect.Type. decode always
// receives an addressable value.
type serializer interface {
	encode(e *encoder, v reflect.Value) error
	decode(d *decoder, v reflect.Value) error
}

// typeInfo is the cached dispatch decision for one type.
type typeInfo struct {
	typ reflect.Type
	ser serializer
	// shape is set when values of the type can contain composites, so the
	// minding pass of an encode has to walk them.
	shape bool
	// min is a lower bound of the encoded size, used to reject impossible
	// element counts before allocating.
	min int
}

var (
	compositeType         = reflect.TypeFor[Composite]()
	binaryMarshalerType   = reflect.TypeFor[encoding.BinaryMarshaler]()
	binaryUnmarshalerType = reflect.TypeFor[encoding.BinaryUnmarshaler]()
)

var typeInfos sync.Map // reflect.Type -> *typeInfo

func infoOf(t reflect.Type) *typeInfo {
	if ti, ok := typeInfos.Load(t); ok {
		return ti.(*typeInfo)
	}
	r := resolver{building: make(map[reflect.Type]*typeInfo)}
	ti := r.resolve(t)
	for typ, built := range r.building {
		typeInfos.LoadOrStore(typ, built)
	}
	return ti
}

// resolver builds typeInfos for a type and everything reachable from it.
// A type met again while still being built is assumed to need shaping and
// to encode to zero bytes, the conservative answers for both.
type resolver struct {
	building map[reflect.Type]*typeInfo
	open     map[reflect.Type]bool
}

func (r *resolver) resolve(t reflect.Type) *typeInfo {
	if ti, ok := typeInfos.Load(t); ok {
		return ti.(*typeInfo)
	}
	if ti, ok := r.building[t]; ok {
		if r.open[t] {
			return &typeInfo{typ: t, ser: lazySerializer{ti}, shape: true}
		}
		return ti
	}
	if r.open == nil {
		r.open = make(map[reflect.Type]bool)
	}
	ti := &typeInfo{typ: t}
	r.building[t] = ti
	r.open[t] = true
	r.build(ti)
	delete(r.open, t)
	return ti
}

func (r *resolver) build(ti *typeInfo) {
	t := ti.typ
	switch {
	case t.Kind() == reflect.Ptr:
		ti.ser, ti.min = referenceSerializer{}, 2
		return
	case reflect.PointerTo(t).Implements(compositeType):
		ti.ser, ti.shape = compositeSerializer{}, true
		return
	case t.Implements(binaryMarshalerType) && reflect.PointerTo(t).Implements(binaryUnmarshalerType):
		ti.ser, ti.min = binarySerializer{}, 2
		return
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		ti.ser, ti.min = scalarSerializer{kind: t.Kind()}, int(t.Size())
	case reflect.String:
		ti.ser, ti.min = stringSerializer{}, 2
	case reflect.Array:
		elem := r.resolve(t.Elem())
		if isByte(elem) {
			ti.ser = byteArraySerializer{}
		} else {
			ti.ser = arraySerializer{elem: elem}
		}
		ti.shape = elem.shape
		ti.min = satMul(t.Len(), elem.min)
	case reflect.Slice:
		elem := r.resolve(t.Elem())
		if isByte(elem) {
			ti.ser = byteSliceSerializer{}
		} else {
			ti.ser = sliceSerializer{elem: elem}
		}
		ti.shape, ti.min = elem.shape, 2
	case reflect.Map:
		key, val := r.resolve(t.Key()), r.resolve(t.Elem())
		ti.ser = mapSerializer{key: key, val: val}
		ti.shape, ti.min = key.shape || val.shape, 2
	case reflect.Struct:
		s := structSerializer{}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("jsl") == "-" {
				continue
			}
			fi := r.resolve(f.Type)
			s.fields = append(s.fields, structField{index: i, info: fi})
			ti.shape = ti.shape || fi.shape
			ti.min = satAdd(ti.min, fi.min)
		}
		ti.ser = s
	default:
		ti.ser = unsupportedSerializer{typ: t}
	}
}

func isByte(ti *typeInfo) bool {
	s, ok := ti.ser.(scalarSerializer)
	return ok && s.kind == reflect.Uint8
}

func satMul(n, m int) int {
	if n == 0 || m == 0 {
		return 0
	}
	if n > math.MaxInt32/m {
		return math.MaxInt32
	}
	return n * m
}

func satAdd(a, b int) int {
	if a > math.MaxInt32-b {
		return math.MaxInt32
	}
	return a + b
}

// ────────────────────────────────────────────────────────────────────────────
// Sessions
// ────────────────────────────────────────────────────────────────────────────

// encoder runs one top-level Append. Encoding takes two passes over the
// same values: the minding pass walks composites in canonical order to
// build the reference dictionary without writing, then the write pass emits
// bytes with every UID already known.
type encoder struct {
	blob     *Blob
	buf      *wire.Buffer
	refs     *refTable
	minding  bool
	memo     []any
	memoPos  int
	depth    int
	maxDepth int
	detached int
}

func newEncoder(b *Blob) *encoder {
	return &encoder{blob: b, buf: &b.buf, refs: newRefTable(), maxDepth: b.depthLimit()}
}

func (e *encoder) run(roots []reflect.Value) error {
	e.minding = true
	for _, v := range roots {
		if err := e.value(v); err != nil {
			return err
		}
	}
	e.minding = false
	e.refs.rewind()
	for _, v := range roots {
		if err := e.value(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) value(v reflect.Value) error {
	return e.valueOf(infoOf(v.Type()), v)
}

func (e *encoder) valueOf(ti *typeInfo, v reflect.Value) error {
	if e.minding && !ti.shape {
		return nil
	}
	return ti.ser.encode(e, v)
}

func (e *encoder) enter() error {
	e.depth++
	if e.depth > e.maxDepth {
		return fmt.Errorf("%w (%d)", ErrMaxDepth, e.maxDepth)
	}
	return nil
}

func (e *encoder) leave() { e.depth-- }

func (e *encoder) putLength(n int) {
	if !e.minding {
		e.buf.AppendLength(uint64(n))
	}
}

// remember stores x during the minding pass and hands it back, in the same
// order, during the write pass. Anything the minding pass had to copy or
// order (map entries, accessor values) is replayed this way so both passes
// see identical addresses.
func (e *encoder) remember(x any) {
	e.memo = append(e.memo, x)
}

func (e *encoder) recall() any {
	x := e.memo[e.memoPos]
	e.memoPos++
	return x
}

// decoder runs one top-level Restore.
type decoder struct {
	blob     *Blob
	buf      *wire.Buffer
	refs     *refTable
	depth    int
	maxDepth int
	detached int
	commits  []func()
}

func newDecoder(b *Blob) *decoder {
	return &decoder{blob: b, buf: &b.buf, refs: newRefTable(), maxDepth: b.depthLimit()}
}

func (d *decoder) run(roots []reflect.Value) error {
	for _, v := range roots {
		if err := d.value(v); err != nil {
			return err
		}
	}
	if err := d.refs.remind(); err != nil {
		return err
	}
	for _, commit := range d.commits {
		commit()
	}
	return nil
}

func (d *decoder) value(v reflect.Value) error {
	return infoOf(v.Type()).ser.decode(d, v)
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > d.maxDepth {
		return fmt.Errorf("%w (%d)", ErrMaxDepth, d.maxDepth)
	}
	return nil
}

func (d *decoder) leave() { d.depth-- }

// count reads a length prefix and checks that n elements of at least size
// bytes each can still be present.
func (d *decoder) count(size int) (int, error) {
	n, err := d.buf.RestoreLength()
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: length %d", ErrOutOfRange, n)
	}
	if size > 0 && n > uint64(d.buf.Remaining()/size) {
		return 0, fmt.Errorf("%w: %d elements of %d bytes, %d left", ErrOutOfRange, n, size, d.buf.Remaining())
	}
	return int(n), nil
}

// addressable returns v itself when it can be addressed, otherwise a copy
// that can.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

// ────────────────────────────────────────────────────────────────────────────
// Scalars
// ────────────────────────────────────────────────────────────────────────────

type scalarSerializer struct {
	kind reflect.Kind
}

func (s scalarSerializer) encode(e *encoder, v reflect.Value) error {
	b := e.buf
	switch s.kind {
	case reflect.Bool:
		b.PutBool(v.Bool())
	case reflect.Int8:
		b.AppendByte(byte(v.Int()))
	case reflect.Int16:
		b.PutUint16(uint16(v.Int()))
	case reflect.Int32:
		b.PutUint32(uint32(v.Int()))
	case reflect.Int64:
		b.PutUint64(uint64(v.Int()))
	case reflect.Int:
		if strconv.IntSize == 32 {
			b.PutUint32(uint32(v.Int()))
		} else {
			b.PutUint64(uint64(v.Int()))
		}
	case reflect.Uint8:
		b.AppendByte(byte(v.Uint()))
	case reflect.Uint16:
		b.PutUint16(uint16(v.Uint()))
	case reflect.Uint32:
		b.PutUint32(uint32(v.Uint()))
	case reflect.Uint64:
		b.PutUint64(v.Uint())
	case reflect.Uint, reflect.Uintptr:
		if v.Type().Size() == 4 {
			b.PutUint32(uint32(v.Uint()))
		} else {
			b.PutUint64(v.Uint())
		}
	case reflect.Float32:
		b.PutFloat32(float32(v.Float()))
	case reflect.Float64:
		b.PutFloat64(v.Float())
	case reflect.Complex64:
		c := v.Complex()
		b.PutFloat32(float32(real(c)))
		b.PutFloat32(float32(imag(c)))
	case reflect.Complex128:
		c := v.Complex()
		b.PutFloat64(real(c))
		b.PutFloat64(imag(c))
	}
	return nil
}

func (s scalarSerializer) decode(d *decoder, v reflect.Value) error {
	b := d.buf
	switch s.kind {
	case reflect.Bool:
		x, err := b.Bool()
		if err != nil {
			return err
		}
		v.SetBool(x)
	case reflect.Int8, reflect.Uint8:
		x, err := b.ReadByte()
		if err != nil {
			return err
		}
		if s.kind == reflect.Int8 {
			v.SetInt(int64(int8(x)))
		} else {
			v.SetUint(uint64(x))
		}
	case reflect.Int16, reflect.Uint16:
		x, err := b.Uint16()
		if err != nil {
			return err
		}
		if s.kind == reflect.Int16 {
			v.SetInt(int64(int16(x)))
		} else {
			v.SetUint(uint64(x))
		}
	case reflect.Float32:
		x, err := b.Float32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(x))
	case reflect.Float64:
		x, err := b.Float64()
		if err != nil {
			return err
		}
		v.SetFloat(x)
	case reflect.Complex64:
		re, err := b.Float32()
		if err != nil {
			return err
		}
		im, err := b.Float32()
		if err != nil {
			return err
		}
		v.SetComplex(complex(float64(re), float64(im)))
	case reflect.Complex128:
		re, err := b.Float64()
		if err != nil {
			return err
		}
		im, err := b.Float64()
		if err != nil {
			return err
		}
		v.SetComplex(complex(re, im))
	default:
		return s.decodeWord(d, v)
	}
	return nil
}

// decodeWord handles the 4 and 8 byte integer kinds, including the
// platform-sized int, uint and uintptr.
func (s scalarSerializer) decodeWord(d *decoder, v reflect.Value) error {
	var x uint64
	if v.Type().Size() == 4 {
		u, err := d.buf.Uint32()
		if err != nil {
			return err
		}
		x = uint64(u)
		if v.CanInt() {
			v.SetInt(int64(int32(u)))
			return nil
		}
	} else {
		u, err := d.buf.Uint64()
		if err != nil {
			return err
		}
		x = u
		if v.CanInt() {
			v.SetInt(int64(u))
			return nil
		}
	}
	v.SetUint(x)
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Strings and bytes
// ────────────────────────────────────────────────────────────────────────────

type stringSerializer struct{}

func (stringSerializer) encode(e *encoder, v reflect.Value) error {
	s := v.String()
	e.buf.AppendLength(uint64(len(s)))
	e.buf.AppendRaw([]byte(s))
	return nil
}

func (stringSerializer) decode(d *decoder, v reflect.Value) error {
	n, err := d.count(1)
	if err != nil {
		return err
	}
	p, err := d.buf.Next(n)
	if err != nil {
		return err
	}
	v.SetString(string(p))
	return nil
}

type byteSliceSerializer struct{}

func (byteSliceSerializer) encode(e *encoder, v reflect.Value) error {
	p := v.Bytes()
	e.buf.AppendLength(uint64(len(p)))
	e.buf.AppendRaw(p)
	return nil
}

func (byteSliceSerializer) decode(d *decoder, v reflect.Value) error {
	n, err := d.count(1)
	if err != nil {
		return err
	}
	p, err := d.buf.Next(n)
	if err != nil {
		return err
	}
	if n == 0 {
		v.SetZero()
		return nil
	}
	s := reflect.MakeSlice(v.Type(), n, n)
	copy(s.Bytes(), p)
	v.Set(s)
	return nil
}

type byteArraySerializer struct{}

func (byteArraySerializer) encode(e *encoder, v reflect.Value) error {
	e.buf.AppendRaw(addressable(v).Bytes())
	return nil
}

func (byteArraySerializer) decode(d *decoder, v reflect.Value) error {
	return d.buf.RestoreRaw(v.Bytes())
}

// binarySerializer covers types with their own binary form, time.Time
// among them. The marshaled bytes are written as a length-prefixed string.
type binarySerializer struct{}

func (binarySerializer) encode(e *encoder, v reflect.Value) error {
	p, err := v.Interface().(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		return fmt.Errorf("jsl: marshal %s: %w", v.Type(), err)
	}
	e.buf.AppendLength(uint64(len(p)))
	e.buf.AppendRaw(p)
	return nil
}

func (binarySerializer) decode(d *decoder, v reflect.Value) error {
	n, err := d.count(1)
	if err != nil {
		return err
	}
	p, err := d.buf.Next(n)
	if err != nil {
		return err
	}
	if err := v.Addr().Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(slices.Clone(p)); err != nil {
		return fmt.Errorf("jsl: unmarshal %s: %w", v.Type(), err)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Arrays and slices
// ────────────────────────────────────────────────────────────────────────────

// arraySerializer writes elements only; the count comes from the type.
type arraySerializer struct {
	elem *typeInfo
}

func (s arraySerializer) encode(e *encoder, v reflect.Value) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	for i := 0; i < v.Len(); i++ {
		if err := e.valueOf(s.elem, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (s arraySerializer) decode(d *decoder, v reflect.Value) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	for i := 0; i < v.Len(); i++ {
		if err := s.elem.ser.decode(d, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// maxSliceBytes bounds the memory one decoded slice may claim. Element
// types with no minimum encoded size cannot be checked against the input
// left, so this is all that stops a corrupt length from allocating.
const maxSliceBytes = 1 << 30

// sliceSerializer writes a length prefix and the elements. nil and empty
// slices encode alike and decode to nil; otherwise decoding allocates a
// fresh backing array of exactly the decoded length.
type sliceSerializer struct {
	elem *typeInfo
}

func (s sliceSerializer) encode(e *encoder, v reflect.Value) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	n := v.Len()
	e.putLength(n)
	for i := 0; i < n; i++ {
		if err := e.valueOf(s.elem, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (s sliceSerializer) decode(d *decoder, v reflect.Value) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	n, err := d.count(s.elem.min)
	if err != nil {
		return err
	}
	if n == 0 {
		v.SetZero()
		return nil
	}
	// Elements are decoded in place and may be minded by address, so the
	// backing array is allocated once at its final length.
	if size := uint64(s.elem.typ.Size()); size > 0 && uint64(n) > maxSliceBytes/size {
		return fmt.Errorf("%w: %d elements of %s exceed %d bytes", ErrOutOfRange, n, s.elem.typ, maxSliceBytes)
	}
	fresh := reflect.MakeSlice(v.Type(), n, n)
	for i := 0; i < n; i++ {
		if err := s.elem.ser.decode(d, fresh.Index(i)); err != nil {
			return err
		}
	}
	v.Set(fresh)
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Maps
// ────────────────────────────────────────────────────────────────────────────

// mapSerializer writes a length prefix and key/value pairs. Keys of ordered
// kinds are sorted so equal maps encode to equal bytes.
type mapSerializer struct {
	key, val *typeInfo
}

type mapEntries struct {
	keys, vals []reflect.Value
}

// entries collects the pairs through an iterator, since a NaN key can
// never be looked up again.
func (s mapSerializer) entries(v reflect.Value) mapEntries {
	ent := mapEntries{keys: make([]reflect.Value, 0, v.Len()), vals: make([]reflect.Value, 0, v.Len())}
	for it := v.MapRange(); it.Next(); {
		ent.keys = append(ent.keys, it.Key())
		ent.vals = append(ent.vals, it.Value())
	}
	compare := keyCompare(s.key.typ.Kind())
	if compare == nil || len(ent.keys) < 2 {
		return ent
	}
	order := make([]int, len(ent.keys))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return compare(ent.keys[a], ent.keys[b]) })
	sorted := mapEntries{keys: make([]reflect.Value, len(order)), vals: make([]reflect.Value, len(order))}
	for i, j := range order {
		sorted.keys[i], sorted.vals[i] = ent.keys[j], ent.vals[j]
	}
	return sorted
}

func (s mapSerializer) encode(e *encoder, v reflect.Value) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	var ent mapEntries
	switch {
	case e.minding:
		ent = s.entries(v)
		for i := range ent.keys {
			ent.keys[i] = addressable(ent.keys[i])
			ent.vals[i] = addressable(ent.vals[i])
		}
		e.remember(ent)
	case s.key.shape || s.val.shape:
		ent = e.recall().(mapEntries)
	default:
		ent = s.entries(v)
	}

	e.putLength(len(ent.keys))
	for i := range ent.keys {
		if err := e.valueOf(s.key, ent.keys[i]); err != nil {
			return err
		}
		if err := e.valueOf(s.val, ent.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// decode inserts into the existing map, allocating it when nil. Entries
// that may hold references are inserted after the session's references
// are resolved, so keys hash their final values.
func (s mapSerializer) decode(d *decoder, v reflect.Value) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	n, err := d.count(satAdd(s.key.min, s.val.min))
	if err != nil {
		return err
	}
	if v.IsNil() {
		v.Set(reflect.MakeMapWithSize(v.Type(), min(n, 1024)))
	}
	m := v
	deferred := s.key.shape || s.val.shape || hasReference(s.key.typ) || hasReference(s.val.typ)
	for i := 0; i < n; i++ {
		k := reflect.New(s.key.typ).Elem()
		if err := s.key.ser.decode(d, k); err != nil {
			return err
		}
		val := reflect.New(s.val.typ).Elem()
		if err := s.val.ser.decode(d, val); err != nil {
			return err
		}
		if deferred {
			d.commits = append(d.commits, func() { m.SetMapIndex(k, val) })
			continue
		}
		m.SetMapIndex(k, val)
	}
	return nil
}

// keyCompare orders map keys of kind k, or returns nil when the kind has
// no natural order.
func keyCompare(k reflect.Kind) func(a, b reflect.Value) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }
	case reflect.String:
		return func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) }
	case reflect.Bool:
		return func(a, b reflect.Value) int {
			switch {
			case a.Bool() == b.Bool():
				return 0
			case b.Bool():
				return -1
			default:
				return 1
			}
		}
	}
	return nil
}

var referenceCache sync.Map // reflect.Type -> bool

// hasReference reports whether values of t can hold a pointer the decoder
// patches after the fact.
func hasReference(t reflect.Type) bool {
	if v, ok := referenceCache.Load(t); ok {
		return v.(bool)
	}
	r := reachesPointer(t, make(map[reflect.Type]bool))
	referenceCache.Store(t, r)
	return r
}

func reachesPointer(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Ptr:
		return true
	case reflect.Array, reflect.Slice:
		return reachesPointer(t.Elem(), seen)
	case reflect.Map:
		return reachesPointer(t.Key(), seen) || reachesPointer(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if reachesPointer(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}

// ────────────────────────────────────────────────────────────────────────────
// Plain structs
// ────────────────────────────────────────────────────────────────────────────

type structField struct {
	index int
	info  *typeInfo
}

// structSerializer writes exported fields in declaration order. A field
// tagged `jsl:"-"` is skipped.
type structSerializer struct {
	fields []structField
}

func (s structSerializer) encode(e *encoder, v reflect.Value) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	for _, f := range s.fields {
		if err := e.valueOf(f.info, v.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

func (s structSerializer) decode(d *decoder, v reflect.Value) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	for _, f := range s.fields {
		if err := f.info.ser.decode(d, v.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Fallbacks
// ────────────────────────────────────────────────────────────────────────────

type unsupportedSerializer struct {
	typ reflect.Type
}

func (s unsupportedSerializer) encode(*encoder, reflect.Value) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedType, s.typ)
}

func (s unsupportedSerializer) decode(*decoder, reflect.Value) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedType, s.typ)
}

// lazySerializer stands in for a type whose resolution was still open when
// a recursive reference to it was met.
type lazySerializer struct {
	ti *typeInfo
}

func (s lazySerializer) encode(e *encoder, v reflect.Value) error { return s.ti.ser.encode(e, v) }
func (s lazySerializer) decode(d *decoder, v reflect.Value) error { return s.ti.ser.decode(d, v) }
