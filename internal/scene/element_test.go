package scene

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementIDsStartAtZeroAndIncrease(t *testing.T) {
	lastID.Store(-1)

	a := NewElement(KindCloud, Pt(50, 50), Sz(75, 75))
	b := NewElement(KindTree, Pt(0, 0), Sz(10, 10))

	assert.Equal(t, ID(0), a.ID())
	assert.Equal(t, ID(1), b.ID())
}

func TestNewElementClampsNegativeSize(t *testing.T) {
	e := NewElement(KindPond, Pt(1, 2), Sz(-5, 7))
	assert.Equal(t, Sz(0, 7), e.Size())

	e.SetSize(Sz(3, -1))
	assert.Equal(t, Sz(3, 0), e.Size())
}

func TestElementMutatorsEmitDamage(t *testing.T) {
	e := NewElement(KindPine, Pt(0, 0), Sz(10, 10))
	var got []Change
	sub := e.subscribe(func(ch Change) { got = append(got, ch) })

	e.SetLocation(Pt(20, 30))
	require.Len(t, got, 1)
	assert.Same(t, e, got[0].Element)
	assert.Equal(t, []Rect{{0, 0, 10, 10}, {20, 30, 10, 10}}, got[0].Damage)

	e.SetSize(Sz(5, 6))
	require.Len(t, got, 2)
	assert.Equal(t, []Rect{{20, 30, 10, 10}, {20, 30, 5, 6}}, got[1].Damage)

	e.Select()
	assert.True(t, e.Selected())
	e.Deselect()
	assert.False(t, e.Selected())
	assert.Len(t, got, 4)

	sub.Unsubscribe()
	sub.Unsubscribe()
	e.SetKind(KindRain)
	assert.Len(t, got, 4)
	assert.Equal(t, KindRain, e.Kind())
}

func TestKindText(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("Volcano")
	assert.Error(t, err)
	assert.Equal(t, "Kind(42)", Kind(42).String())

	data, err := json.Marshal(map[string]Kind{"kind": KindMountain})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Mountain"}`, string(data))

	var back map[string]Kind
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KindMountain, back["kind"])
}

func TestRectContainsIsInclusive(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 5, Height: 5}

	cases := []struct {
		p    Point
		want bool
	}{
		{Pt(10, 10), true},
		{Pt(15, 15), true},
		{Pt(15, 10), true},
		{Pt(16, 10), false},
		{Pt(9, 12), false},
		{Pt(12, 16), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, r.Contains(c.p), "point %v", c.p)
	}
}

func TestRectOverlaps(t *testing.T) {
	base := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	cases := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"corner inside", Rect{5, 5, 10, 10}, true},
		{"touching right edge", Rect{10, 0, 5, 5}, true},
		{"touching corner", Rect{10, 10, 3, 3}, true},
		{"enclosing", Rect{-5, -5, 30, 30}, true},
		{"cross shape", Rect{3, -5, 2, 30}, true},
		{"one pixel right", Rect{11, 0, 5, 5}, false},
		{"below", Rect{0, 11, 5, 5}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, base.Overlaps(c.other))
			assert.Equal(t, c.want, c.other.Overlaps(base))
		})
	}
}

func TestRectUnionAndInflate(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{20, 5, 5, 20}
	assert.Equal(t, Rect{0, 0, 25, 25}, a.Union(b))
	assert.Equal(t, b, Rect{}.Union(b))
	assert.Equal(t, Rect{0, 0, 12, 12}, a.Inflate(2))
	assert.Equal(t, 10, a.Image().Dx())
}
