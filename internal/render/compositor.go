// Package render composites a scene over a background image, repainting
// only the regions a collection reports as damaged.
package render

import (
	"image"
	"image/color"
	"slices"

	"golang.org/x/image/draw"

	"github.com/artboard/artboard/internal/scene"
)

// OutlineColor strokes the box around the selected element.
var OutlineColor = color.RGBA{A: 0xff}

// BackgroundColor fills the frame when no background image is set.
var BackgroundColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// ImageSource supplies the sprite for an element kind. Repeated calls with
// the same kind must return the same image.
type ImageSource interface {
	Image(kind scene.Kind) image.Image
}

// Repaint describes what one or more renders touched.
type Repaint struct {
	Full     bool
	Restored []scene.Rect
	Redrawn  []scene.ID
}

// merge folds next into r. Each element id appears once in Redrawn.
func (r Repaint) merge(next Repaint) Repaint {
	r.Full = r.Full || next.Full
	r.Restored = append(r.Restored, next.Restored...)
	for _, id := range next.Redrawn {
		if !slices.Contains(r.Redrawn, id) {
			r.Redrawn = append(r.Redrawn, id)
		}
	}
	return r
}

// Compositor owns the rendered frame for one collection. It subscribes to
// the collection and repaints synchronously on every event.
type Compositor struct {
	coll      *scene.Collection
	images    ImageSource
	source    image.Image
	size      scene.Size
	thickness int

	// background is source scaled to size; frame is allocated on first render.
	background *image.RGBA
	frame      *image.RGBA

	pending []scene.Rect
	last    Repaint
	// taken gathers every render since the last TakeRepaint.
	taken Repaint
	sub   scene.Subscription
}

// New creates a compositor for coll and renders the first frame.
// A nil background paints BackgroundColor.
func New(coll *scene.Collection, background image.Image, size scene.Size, images ImageSource, thickness int) *Compositor {
	c := &Compositor{
		coll:      coll,
		images:    images,
		source:    background,
		size:      size,
		thickness: max(thickness, 0),
	}
	c.scaleBackground()
	c.sub = coll.Subscribe(c.handleEvent)
	c.Render()
	return c
}

// Close detaches the compositor from its collection.
func (c *Compositor) Close() { c.sub.Unsubscribe() }

// Frame returns the current rendered frame. The image is owned by the
// compositor and is overwritten by later renders.
func (c *Compositor) Frame() *image.RGBA {
	if c.frame == nil {
		c.Render()
	}
	return c.frame
}

// Background returns the unscaled background image, or nil.
func (c *Compositor) Background() image.Image { return c.source }

// Size returns the frame size.
func (c *Compositor) Size() scene.Size { return c.size }

// Thickness returns the selection outline width in pixels.
func (c *Compositor) Thickness() int { return c.thickness }

// LastRepaint reports what the previous Render call painted.
func (c *Compositor) LastRepaint() Repaint { return c.last }

// TakeRepaint returns everything painted since the previous TakeRepaint
// and starts a new accumulation.
func (c *Compositor) TakeRepaint() Repaint {
	r := c.taken
	c.taken = Repaint{}
	return r
}

// Resize changes the frame size. The cached frame is discarded and the next
// render paints everything.
func (c *Compositor) Resize(size scene.Size) { c.Reset(c.source, size) }

// SetBackground replaces the background image and repaints fully.
func (c *Compositor) SetBackground(img image.Image) { c.Reset(img, c.size) }

// Reset replaces both background and size, then repaints fully.
func (c *Compositor) Reset(background image.Image, size scene.Size) {
	c.source = background
	c.size = size
	c.scaleBackground()
	c.frame = nil
	c.pending = nil
	c.Render()
}

// Invalidate marks r for repaint on the next Render.
func (c *Compositor) Invalidate(r scene.Rect) {
	c.pending = append(c.pending, r)
}

func (c *Compositor) handleEvent(ev scene.Event) {
	c.pending = append(c.pending, ev.Damage...)
	c.Render()
}

// Render brings the frame up to date with the collection. The first call
// after construction or Resize paints the full background and every element;
// later calls repaint only what the pending damage touches.
func (c *Compositor) Render() {
	if c.frame == nil {
		c.renderFull()
		return
	}
	if len(c.pending) == 0 {
		c.last = Repaint{}
		return
	}

	damage := make([]scene.Rect, len(c.pending))
	for i, r := range c.pending {
		damage[i] = r.Inflate(c.thickness)
	}
	c.pending = nil

	elements := c.coll.Elements()
	marked := c.expand(elements, damage)

	restored := damage
	for i, e := range elements {
		if marked[i] {
			restored = append(restored, c.area(e))
		}
	}
	for _, r := range restored {
		c.restore(r)
	}

	var redrawn []scene.ID
	for i, e := range elements {
		if marked[i] {
			c.drawElement(e)
			redrawn = append(redrawn, e.ID())
		}
	}
	c.drawOutline()

	c.last = Repaint{Restored: restored, Redrawn: redrawn}
	c.taken = c.taken.merge(c.last)
}

// expand returns, per element index, whether the element must be redrawn.
// An element is marked when its area overlaps a damaged region or the area
// of another marked element, so covering and exposed elements are both
// repainted.
func (c *Compositor) expand(elements []*scene.Element, damage []scene.Rect) []bool {
	marked := make([]bool, len(elements))
	queue := slices.Clone(damage)
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		for i, e := range elements {
			if marked[i] {
				continue
			}
			if a := c.area(e); a.Overlaps(r) {
				marked[i] = true
				queue = append(queue, a)
			}
		}
	}
	return marked
}

func (c *Compositor) renderFull() {
	c.frame = image.NewRGBA(image.Rect(0, 0, c.size.Width, c.size.Height))
	draw.Draw(c.frame, c.frame.Bounds(), c.background, image.Point{}, draw.Src)

	elements := c.coll.Elements()
	redrawn := make([]scene.ID, 0, len(elements))
	for _, e := range elements {
		c.drawElement(e)
		redrawn = append(redrawn, e.ID())
	}
	c.drawOutline()

	c.pending = nil
	c.last = Repaint{
		Full:     true,
		Restored: []scene.Rect{{Width: c.size.Width, Height: c.size.Height}},
		Redrawn:  redrawn,
	}
	c.taken = c.taken.merge(c.last)
}

// area is the element's footprint grown by the outline thickness.
func (c *Compositor) area(e *scene.Element) scene.Rect {
	return e.Bounds().Inflate(c.thickness)
}

// restore copies background pixels back into r. The closed rect's right
// and bottom edges are included.
func (c *Compositor) restore(r scene.Rect) {
	dr := closed(r).Intersect(c.frame.Bounds())
	if dr.Empty() {
		return
	}
	draw.Draw(c.frame, dr, c.background, dr.Min, draw.Src)
}

func (c *Compositor) drawElement(e *scene.Element) {
	if c.images == nil {
		return
	}
	src := c.images.Image(e.Kind())
	dr := e.Bounds().Image()
	if src == nil || dr.Empty() {
		return
	}
	draw.NearestNeighbor.Scale(c.frame, dr, src, src.Bounds(), draw.Over, nil)
}

// drawOutline strokes a band of the configured thickness along the top and
// left edges of the selected element and just outside its bottom and right
// edges.
func (c *Compositor) drawOutline() {
	sel := c.coll.Selected()
	if sel == nil || c.thickness == 0 {
		return
	}
	b := sel.Bounds()
	t := c.thickness
	x0, y0 := b.X, b.Y
	x1, y1 := b.X+b.Width, b.Y+b.Height
	ink := image.NewUniform(OutlineColor)
	for _, band := range []image.Rectangle{
		image.Rect(x0, y0, x1+t, y0+t),
		image.Rect(x0, y1, x1+t, y1+t),
		image.Rect(x0, y0, x0+t, y1+t),
		image.Rect(x1, y0, x1+t, y1+t),
	} {
		draw.Draw(c.frame, band.Intersect(c.frame.Bounds()), ink, image.Point{}, draw.Src)
	}
}

func (c *Compositor) scaleBackground() {
	c.background = image.NewRGBA(image.Rect(0, 0, c.size.Width, c.size.Height))
	if c.source == nil {
		draw.Draw(c.background, c.background.Bounds(), image.NewUniform(BackgroundColor), image.Point{}, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(c.background, c.background.Bounds(), c.source, c.source.Bounds(), draw.Src, nil)
}

func closed(r scene.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width+1, r.Y+r.Height+1)
}
