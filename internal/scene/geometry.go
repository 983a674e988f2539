package scene

import "image"

// Point is an integer pixel location.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is an integer pixel extent. Both dimensions are >= 0 for placed elements.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Sz is shorthand for Size{w, h}.
func Sz(w, h int) Size { return Size{Width: w, Height: h} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Rect is an axis-aligned damage or footprint rectangle.
// Its bounds are closed: the right and bottom edges (X+Width, Y+Height)
// belong to the rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectOf returns the rectangle with origin p and extent s.
func RectOf(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, Width: s.Width, Height: s.Height}
}

// Contains checks if a point is inside the rect, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Overlaps reports whether r and other share at least one point of their
// closed bounds. Every case where a corner of one rect falls inside the other
// counts, and so does the cross-shaped case where no corner does.
func (r Rect) Overlaps(other Rect) bool {
	return r.X <= other.X+other.Width && other.X <= r.X+r.Width &&
		r.Y <= other.Y+other.Height && other.Y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Inflate grows the rect to the right and downward by n pixels.
func (r Rect) Inflate(n int) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width + n, Height: r.Height + n}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the extent of the rect.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Image converts r to the half-open image.Rectangle covering the same
// pixels as the element's bitmap.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}
