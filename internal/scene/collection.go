package scene

// Event is broadcast by a Collection once per mutating operation.
// Damage lists every rectangle invalidated by that operation, including the
// footprints elements had before they changed.
type Event struct {
	Collection *Collection
	Damage     []Rect
}

// reconcileState tracks whether the collection is inside its own selection
// pass. While reconciling, change events from the elements it deselects are
// folded into the damage buffer without triggering another pass or a
// broadcast.
type reconcileState int

const (
	stateIdle reconcileState = iota
	stateReconcilingSelection
)

func (s reconcileState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateReconcilingSelection:
		return "ReconcilingSelection"
	default:
		return "unknown"
	}
}

// Collection owns a set of elements and the order they are painted in
// (back to front). At most one element in a collection is selected.
type Collection struct {
	elements map[ID]*Element
	order    []ID
	subs     map[ID]Subscription

	// Cached for O(1) lookup; nil iff nothing is selected.
	selected *Element
	state    reconcileState

	damage    []Rect
	observers observers[Event]
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		elements: make(map[ID]*Element),
		subs:     make(map[ID]Subscription),
	}
}

// Subscribe registers fn to receive one Event per mutating operation.
func (c *Collection) Subscribe(fn func(Event)) Subscription {
	return c.observers.subscribe(fn)
}

// Len returns the number of elements.
func (c *Collection) Len() int { return len(c.order) }

// Contains reports whether e is currently in the collection.
func (c *Collection) Contains(e *Element) bool {
	if e == nil {
		return false
	}
	found, ok := c.elements[e.id]
	return ok && found == e
}

// Element looks an element up by id.
func (c *Collection) Element(id ID) (*Element, bool) {
	e, ok := c.elements[id]
	return e, ok
}

// At returns the element at render-order index i, or nil when i is out of range.
func (c *Collection) At(i int) *Element {
	if i < 0 || i >= len(c.order) {
		return nil
	}
	return c.elements[c.order[i]]
}

// IndexOf returns e's render-order index, or -1 when e is absent.
func (c *Collection) IndexOf(e *Element) int {
	if !c.Contains(e) {
		return -1
	}
	for i, id := range c.order {
		if id == e.id {
			return i
		}
	}
	return -1
}

// Elements returns the elements in render order, bottom first.
func (c *Collection) Elements() []*Element {
	out := make([]*Element, len(c.order))
	for i, id := range c.order {
		out[i] = c.elements[id]
	}
	return out
}

// Selected returns the selected element, or nil.
func (c *Collection) Selected() *Element { return c.selected }

// PendingDamage returns a copy of the damage accumulated since the last broadcast.
func (c *Collection) PendingDamage() []Rect {
	return append([]Rect(nil), c.damage...)
}

// Bounds returns the smallest rect covering every element's footprint.
// Zero-area elements count, since their outline is still drawn. An empty
// collection has the zero Rect.
func (c *Collection) Bounds() Rect {
	if len(c.order) == 0 {
		return Rect{}
	}
	first := c.elements[c.order[0]].Bounds()
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, id := range c.order[1:] {
		b := c.elements[id].Bounds()
		minX, minY = min(minX, b.X), min(minY, b.Y)
		maxX, maxY = max(maxX, b.X+b.Width), max(maxY, b.Y+b.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Add appends e to the top of the render order. Adding an element that is
// already present does nothing. An element that arrives selected takes the
// selection over from whatever was selected before.
func (c *Collection) Add(e *Element) {
	if e == nil || c.Contains(e) {
		return
	}
	c.elements[e.id] = e
	c.order = append(c.order, e.id)
	c.subs[e.id] = e.subscribe(c.handleChange)
	c.damage = append(c.damage, e.Bounds())
	if e.selected {
		c.reconcile(e)
	}
	c.broadcast()
}

// Remove takes e out of the collection. Removing an absent element does
// nothing. A removed element is no longer selected.
func (c *Collection) Remove(e *Element) {
	if !c.Contains(e) {
		return
	}
	c.damage = append(c.damage, e.Bounds())
	c.detach(e)
	for i, id := range c.order {
		if id == e.id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.broadcast()
}

// ReorderTo moves the element at render index from to index to, shifting
// every element in between one slot back toward from. Either index outside
// [0, Len()) makes the call a no-op.
func (c *Collection) ReorderTo(from, to int) {
	n := len(c.order)
	if from < 0 || from >= n || to < 0 || to >= n {
		return
	}

	moved := c.order[from]
	switch {
	case from < to:
		copy(c.order[from:to], c.order[from+1:to+1])
	case to < from:
		copy(c.order[to+1:from+1], c.order[to:from])
	}
	c.order[to] = moved

	lo, hi := min(from, to), max(from, to)
	for _, id := range c.order[lo : hi+1] {
		c.damage = append(c.damage, c.elements[id].Bounds())
	}
	c.broadcast()
}

// Select selects e when it belongs to the collection.
func (c *Collection) Select(e *Element) {
	if !c.Contains(e) {
		return
	}
	e.Select()
}

// Deselect clears the current selection, if any.
func (c *Collection) Deselect() {
	if c.selected != nil {
		c.selected.Deselect()
	}
}

// FindTopmostAt returns the highest element in render order whose box
// contains p, edges included, or nil.
func (c *Collection) FindTopmostAt(p Point) *Element {
	for i := len(c.order) - 1; i >= 0; i-- {
		e := c.elements[c.order[i]]
		if e.Bounds().Contains(p) {
			return e
		}
	}
	return nil
}

// Clear removes every element, damaging their combined bounding box.
func (c *Collection) Clear() {
	if len(c.order) > 0 {
		c.damage = append(c.damage, c.Bounds())
	}
	for _, id := range c.order {
		c.detach(c.elements[id])
	}
	c.order = nil
	c.broadcast()
}

func (c *Collection) detach(e *Element) {
	c.subs[e.id].Unsubscribe()
	delete(c.subs, e.id)
	delete(c.elements, e.id)
	e.selected = false
	if c.selected == e {
		c.selected = nil
	}
}

// handleChange reacts to a change announced by a member element.
func (c *Collection) handleChange(ch Change) {
	c.damage = append(c.damage, ch.Damage...)
	if c.state == stateReconcilingSelection {
		return
	}

	switch {
	case ch.Element.selected:
		c.reconcile(ch.Element)
	case c.selected == ch.Element:
		c.selected = nil
	}
	c.broadcast()
}

// reconcile makes keep the only selected element.
func (c *Collection) reconcile(keep *Element) {
	c.state = stateReconcilingSelection
	for _, id := range c.order {
		if e := c.elements[id]; e != keep && e.selected {
			e.Deselect()
		}
	}
	c.state = stateIdle
	c.selected = keep
}

func (c *Collection) broadcast() {
	ev := Event{Collection: c, Damage: c.damage}
	c.damage = nil
	c.observers.notify(ev)
}
