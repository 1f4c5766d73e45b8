package jsl_test

import (
	"time"

	"github.com/ldn-softdev/jsl"
)

// ── Fixtures shared by the codec tests ──────────────────────────────────────

type Color uint8

const (
	Red Color = iota + 1
	Green
	Blue
)

type Point struct {
	X, Y int32
}

// Shape is a plain struct: every exported field is encoded in order.
type Shape struct {
	Name    string
	Color   Color
	Points  []Point
	Origin  [2]float64
	Tags    map[string]int
	Raw     []byte
	Hash    [4]byte
	Created time.Time
	Visible bool
	Phase   complex128
	Small   int8
	Wide    uint64
	Cache   string `jsl:"-"`
	scratch int
}

func sampleShape() Shape {
	return Shape{
		Name:    "triangle",
		Color:   Blue,
		Points:  []Point{{0, 0}, {4, 0}, {0, -3}},
		Origin:  [2]float64{1.5, -2.25},
		Tags:    map[string]int{"edges": 3, "layer": 2, "z": -1},
		Raw:     []byte{0xde, 0xad, 0xbe, 0xef},
		Hash:    [4]byte{1, 2, 3, 4},
		Created: time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC),
		Visible: true,
		Phase:   complex(1, -1),
		Small:   -8,
		Wide:    1 << 63,
	}
}

type Item struct {
	ID    int64
	Label string
}

// Inventory owns its Items; First, Best and Index point into them.
type Inventory struct {
	Owner string
	Items []Item
	First *Item
	Best  *Item
	Index map[string]*Item
}

func (v *Inventory) Fields() []any {
	return []any{&v.Owner, &v.Items, &v.First, &v.Best, &v.Index}
}

func (v *Inventory) Mind() []any { return jsl.Elements(v.Items) }

func sampleInventory(owner string) *Inventory {
	inv := &Inventory{
		Owner: owner,
		Items: []Item{{1, "bolt"}, {2, "nut"}, {3, "washer"}},
	}
	inv.First = &inv.Items[0]
	inv.Best = &inv.Items[1]
	inv.Index = map[string]*Item{
		"bolt":   &inv.Items[0],
		"nut":    &inv.Items[1],
		"washer": &inv.Items[2],
	}
	return inv
}

// Node is a binary tree whose children are owned by their parent.
type Node struct {
	Value int
	Left  *Node
	Right *Node
}

func (n *Node) Fields() []any { return []any{&n.Value, &n.Left, &n.Right} }
func (n *Node) Mind() []any   { return nil }
func (n *Node) Remind() []any { return []any{&n.Left, &n.Right} }

// Dir is an n-ary tree whose children point back at their parent.
type Dir struct {
	Name     string
	Parent   *Dir
	Children []*Dir
}

func (d *Dir) Fields() []any { return []any{&d.Name, &d.Parent, &d.Children} }
func (d *Dir) Mind() []any   { return nil }
func (d *Dir) Remind() []any { return []any{&d.Children} }

func (d *Dir) add(name string) *Dir {
	c := &Dir{Name: name, Parent: d}
	d.Children = append(d.Children, c)
	return c
}

// Celsius is only reachable through accessors.
type Celsius struct {
	degrees float64
	label   string
}

func (c *Celsius) Fields() []any {
	return []any{
		jsl.Access(func() float64 { return c.degrees }, func(v float64) { c.degrees = v }),
		jsl.Access(func() string { return c.label }, func(v string) { c.label = v }),
	}
}
