package scene

import (
	"fmt"
	"sync/atomic"
)

// Kind is the drawable category of an element. The pixels for a kind come
// from an image source, never from the element itself.
type Kind int

const (
	KindNone Kind = iota
	KindCloud
	KindMountain
	KindPine
	KindPond
	KindRain
	KindTree
)

var kindNames = [...]string{
	KindNone:     "None",
	KindCloud:    "Cloud",
	KindMountain: "Mountain",
	KindPine:     "Pine",
	KindPond:     "Pond",
	KindRain:     "Rain",
	KindTree:     "Tree",
}

// Kinds lists every drawable kind, KindNone excluded.
func Kinds() []Kind {
	return []Kind{KindCloud, KindMountain, KindPine, KindPond, KindRain, KindTree}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("unknown element kind: %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ID identifies an element for the lifetime of the process.
type ID int

// lastID is the process-wide element counter; the first element gets 0.
var lastID atomic.Int64

func init() { lastID.Store(-1) }

func nextID() ID { return ID(lastID.Add(1)) }

// Change is emitted by an element after one of its fields changed.
// Damage holds the footprint before and after the change.
type Change struct {
	Element *Element
	Damage  []Rect
}

// Element is one placed graphical item.
type Element struct {
	id       ID
	kind     Kind
	location Point
	size     Size
	selected bool

	observers observers[Change]
}

// NewElement creates an element with a fresh id. Negative size components
// are clamped to zero.
func NewElement(kind Kind, location Point, size Size) *Element {
	return &Element{
		id:       nextID(),
		kind:     kind,
		location: location,
		size:     clampSize(size),
	}
}

func (e *Element) ID() ID            { return e.id }
func (e *Element) Kind() Kind        { return e.kind }
func (e *Element) Location() Point   { return e.location }
func (e *Element) Size() Size        { return e.size }
func (e *Element) Selected() bool    { return e.selected }
func (e *Element) Bounds() Rect      { return RectOf(e.location, e.size) }
func (e *Element) String() string    { return fmt.Sprintf("%s#%d", e.kind, e.id) }
func (e *Element) footprint() []Rect { return []Rect{e.Bounds()} }

// SetKind changes the drawable category.
func (e *Element) SetKind(k Kind) {
	e.kind = k
	e.emit(e.footprint())
}

// SetLocation moves the element's top-left corner.
func (e *Element) SetLocation(p Point) {
	before := e.Bounds()
	e.location = p
	e.emit([]Rect{before, e.Bounds()})
}

// SetSize resizes the element.
func (e *Element) SetSize(s Size) {
	before := e.Bounds()
	e.size = clampSize(s)
	e.emit([]Rect{before, e.Bounds()})
}

// Select marks the element as selected. A collection holding the element
// deselects every other element before its own observers hear about it.
func (e *Element) Select() {
	e.selected = true
	e.emit(e.footprint())
}

// Deselect clears the selected flag.
func (e *Element) Deselect() {
	e.selected = false
	e.emit(e.footprint())
}

func (e *Element) subscribe(fn func(Change)) Subscription {
	return e.observers.subscribe(fn)
}

func (e *Element) emit(damage []Rect) {
	e.observers.notify(Change{Element: e, Damage: damage})
}

func clampSize(s Size) Size {
	return Size{Width: max(s.Width, 0), Height: max(s.Height, 0)}
}
