package jsl_test

import (
	"testing"

	"github.com/ldn-softdev/jsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReference_SharedTargets(t *testing.T) {
	want := sampleInventory("alice")
	b := jsl.New()
	require.NoError(t, b.Append(want))

	var got Inventory
	require.NoError(t, b.Restore(&got))

	assert.Equal(t, want.Owner, got.Owner)
	assert.Equal(t, want.Items, got.Items)
	require.Len(t, got.Items, 3)
	assert.Same(t, &got.Items[0], got.First)
	assert.Same(t, &got.Items[1], got.Best)
	for i := range got.Items {
		assert.Same(t, &got.Items[i], got.Index[got.Items[i].Label])
	}
}

func TestReference_NilPointers(t *testing.T) {
	want := &Inventory{Owner: "empty", Index: map[string]*Item{"ghost": nil}}
	b := jsl.New()
	require.NoError(t, b.Append(want))

	got := Inventory{First: &Item{}, Best: &Item{}}
	require.NoError(t, b.Restore(&got))
	assert.Nil(t, got.First)
	assert.Nil(t, got.Best)
	assert.Contains(t, got.Index, "ghost")
	assert.Nil(t, got.Index["ghost"])
}

func TestReference_OwnedTree(t *testing.T) {
	want := &Node{Value: 1,
		Left:  &Node{Value: 2, Left: &Node{Value: 4}},
		Right: &Node{Value: 3, Right: &Node{Value: 5}},
	}
	b := jsl.New()
	require.NoError(t, b.Append(want))

	var got Node
	require.NoError(t, b.Restore(&got))
	assert.Equal(t, *want, got)
	assert.NotSame(t, want.Left, got.Left)
}

func TestReference_SharedSubtree(t *testing.T) {
	shared := &Node{Value: 7, Left: &Node{Value: 8}}
	want := &Node{Value: 1, Left: shared, Right: shared}

	b := jsl.New()
	require.NoError(t, b.Append(want))

	var got Node
	require.NoError(t, b.Restore(&got))
	require.NotNil(t, got.Left)
	assert.Same(t, got.Left, got.Right)
	assert.Equal(t, 8, got.Left.Left.Value)
}

func TestReference_BackPointers(t *testing.T) {
	root := &Dir{Name: "/"}
	usr := root.add("usr")
	usr.add("bin")
	usr.add("lib")
	root.add("etc")

	b := jsl.New()
	require.NoError(t, b.Append(root))

	var got Dir
	require.NoError(t, b.Restore(&got))
	assert.Nil(t, got.Parent)
	require.Len(t, got.Children, 2)
	assert.Equal(t, "usr", got.Children[0].Name)
	assert.Equal(t, "etc", got.Children[1].Name)
	assert.Same(t, &got, got.Children[0].Parent)
	assert.Same(t, &got, got.Children[1].Parent)

	gotUsr := got.Children[0]
	require.Len(t, gotUsr.Children, 2)
	assert.Equal(t, []string{"bin", "lib"}, []string{gotUsr.Children[0].Name, gotUsr.Children[1].Name})
	for _, c := range gotUsr.Children {
		assert.Same(t, gotUsr, c.Parent)
		assert.Empty(t, c.Children)
	}
}

func TestReference_MapOfComposites(t *testing.T) {
	want := map[string]Inventory{
		"a": *sampleInventory("a"),
		"b": *sampleInventory("b"),
	}
	b := jsl.New()
	require.NoError(t, b.Append(want))

	var got map[string]Inventory
	require.NoError(t, b.Restore(&got))
	require.Len(t, got, 2)
	for k, inv := range got {
		assert.Equal(t, k, inv.Owner)
		require.Len(t, inv.Items, 3)
		assert.Same(t, &inv.Items[0], inv.First)
		assert.Same(t, &inv.Items[2], inv.Index["washer"])
	}
}

type Pick struct {
	Chosen *Item
}

func TestReference_SharedScopeAcrossValues(t *testing.T) {
	inv := sampleInventory("scope")
	pick := Pick{Chosen: &inv.Items[2]}

	b := jsl.New()
	require.NoError(t, b.Append(inv, &pick))

	var (
		gotInv  Inventory
		gotPick Pick
	)
	require.NoError(t, b.Restore(&gotInv, &gotPick))
	assert.Same(t, &gotInv.Items[2], gotPick.Chosen)

	alone := jsl.New()
	assert.ErrorIs(t, alone.Append(&pick), jsl.ErrUnaccountedReference)
}

func TestReference_UnaccountedRollsBack(t *testing.T) {
	b := jsl.New()
	require.NoError(t, b.Append("head"))
	before := b.Len()

	n := 5
	err := b.Append(struct{ P *int }{P: &n})
	require.ErrorIs(t, err, jsl.ErrUnaccountedReference)
	assert.Equal(t, before, b.Len())
}

type twice struct {
	P *int
}

func (v *twice) Fields() []any { return []any{&v.P, &v.P} }

func TestReference_DuplicateSlot(t *testing.T) {
	b := jsl.New()
	require.NoError(t, b.Append(&twice{}))

	var got twice
	assert.ErrorIs(t, b.Restore(&got), jsl.ErrDuplicateReferentSlot)
	assert.Zero(t, b.Offset())
}

func TestReference_MissingReferent(t *testing.T) {
	b := jsl.New()
	b.AppendLength(3)

	var got struct{ P *int }
	assert.ErrorIs(t, b.Restore(&got), jsl.ErrMissingReferents)
}

type Pair struct {
	A int64
	P *string
}

func (v *Pair) Fields() []any { return []any{&v.A, &v.P} }
func (v *Pair) Mind() []any   { return []any{&v.A} }

func TestReference_Mismatch(t *testing.T) {
	b := jsl.New()
	require.NoError(t, b.Append(&Pair{A: 11}))
	data := b.Bytes()
	require.Len(t, data, 8+2)
	data[9] = 1 // P now names A, an int64

	var got Pair
	assert.ErrorIs(t, jsl.FromBytes(data).Restore(&got), jsl.ErrReferentMismatch)
}

type handle struct {
	ptr *int
}

func (h *handle) Fields() []any {
	return []any{jsl.Access(func() *int { return h.ptr }, func(p *int) { h.ptr = p })}
}

func TestReference_Detached(t *testing.T) {
	n := 1
	b := jsl.New()
	assert.ErrorIs(t, b.Append(&handle{ptr: &n}), jsl.ErrDetachedReference)

	require.NoError(t, b.Append(&handle{}))
	var got handle
	require.NoError(t, b.Restore(&got))
	assert.Nil(t, got.ptr)

	raw := jsl.New()
	raw.AppendLength(1)
	assert.ErrorIs(t, raw.Restore(&got), jsl.ErrDetachedReference)
}

type opaque struct {
	S *interface{ String() string }
}

func (o *opaque) Fields() []any { return []any{&o.S} }
func (o *opaque) Mind() []any   { return nil }
func (o *opaque) Remind() []any { return []any{&o.S} }

func TestReference_MissingDefaultState(t *testing.T) {
	// uid 1 is the owner itself, uid 2 would be the owned pointee.
	b := jsl.New()
	b.AppendLength(2)

	var got opaque
	assert.ErrorIs(t, b.Restore(&got), jsl.ErrMissingDefaultState)
}

// ── Hooks ───────────────────────────────────────────────────────────────────

var palette = []string{"red", "green", "blue"}

// Brush points into palette, which the codec must never allocate.
type Brush struct {
	Size int
	Ink  *string
}

func (br *Brush) Fields() []any {
	return []any{&br.Size, jsl.Hook{
		Encode: func(b *jsl.Blob, owner jsl.Composite) error {
			ink := owner.(*Brush).Ink
			i := -1
			for j := range palette {
				if &palette[j] == ink {
					i = j
				}
			}
			return b.Append(int32(i))
		},
		Decode: func(b *jsl.Blob, owner jsl.Composite) error {
			var i int32
			if err := b.Restore(&i); err != nil {
				return err
			}
			if i >= 0 {
				owner.(*Brush).Ink = &palette[i]
			}
			return nil
		},
	}}
}

func TestHook_PointsIntoExternalPool(t *testing.T) {
	b := jsl.New()
	require.NoError(t, b.Append(&Brush{Size: 3, Ink: &palette[2]}, &Brush{Size: 1}))

	var first, second Brush
	require.NoError(t, b.Restore(&first, &second))
	assert.Equal(t, 3, first.Size)
	assert.Same(t, &palette[2], first.Ink)
	assert.Equal(t, 1, second.Size)
	assert.Nil(t, second.Ink)
	assert.Zero(t, b.Remaining())
}
