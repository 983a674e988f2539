// Package document is the serializable projection of a drawing: its canvas
// size and its elements in render order. The background bitmap travels
// alongside it.
package document

import (
	"errors"
	"fmt"

	"github.com/artboard/artboard/internal/scene"
)

// Version is written into every encoded document.
const Version = 1

// MaxCanvas is the largest canvas or background side accepted when no
// smaller limit is configured.
const MaxCanvas = 8192

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrImageTooLarge   = errors.New("image too large")
)

type Document struct {
	Version  int       `json:"version"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Elements []Element `json:"elements"`
}

type Element struct {
	Kind     scene.Kind `json:"kind"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Selected bool       `json:"selected"`
}

// NewEmptyDocument creates a document with a blank canvas of the given size.
func NewEmptyDocument(size scene.Size) *Document {
	return &Document{
		Version:  Version,
		Width:    size.Width,
		Height:   size.Height,
		Elements: []Element{},
	}
}

// FromCollection projects coll in render order.
func FromCollection(coll *scene.Collection, size scene.Size) *Document {
	doc := NewEmptyDocument(size)
	for _, e := range coll.Elements() {
		doc.Elements = append(doc.Elements, Element{
			Kind:     e.Kind(),
			X:        e.Location().X,
			Y:        e.Location().Y,
			Width:    e.Size().Width,
			Height:   e.Size().Height,
			Selected: e.Selected(),
		})
	}
	return doc
}

// Size returns the canvas size.
func (d *Document) Size() scene.Size { return scene.Sz(d.Width, d.Height) }

// Validate checks the canvas size against MaxCanvas and every element.
func (d *Document) Validate() error { return d.ValidateWithin(MaxCanvas) }

// ValidateWithin is Validate with neither canvas side allowed past limit.
// A limit outside (0, MaxCanvas] means MaxCanvas.
func (d *Document) ValidateWithin(limit int) error {
	limit = clampLimit(limit)
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidDocument, d.Width, d.Height)
	}
	if d.Width > limit || d.Height > limit {
		return fmt.Errorf("%w: canvas %dx%d exceeds %d", ErrInvalidDocument, d.Width, d.Height, limit)
	}
	selected := 0
	for i, e := range d.Elements {
		if e.Kind == scene.KindNone {
			return fmt.Errorf("%w: element %d has no kind", ErrInvalidDocument, i)
		}
		if e.Width < 0 || e.Height < 0 {
			return fmt.Errorf("%w: element %d has negative size", ErrInvalidDocument, i)
		}
		if e.Selected {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("%w: %d elements selected", ErrInvalidDocument, selected)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxCanvas {
		return MaxCanvas
	}
	return limit
}

// SceneElements builds fresh scene elements in document order. Selection flags
// are carried over, so adding them to a collection in order restores the
// selection.
func (d *Document) SceneElements() []*scene.Element {
	out := make([]*scene.Element, 0, len(d.Elements))
	for _, e := range d.Elements {
		el := scene.NewElement(e.Kind, scene.Pt(e.X, e.Y), scene.Sz(e.Width, e.Height))
		if e.Selected {
			el.Select()
		}
		out = append(out, el)
	}
	return out
}

// Collection builds a new collection holding the document's elements.
func (d *Document) Collection() (*scene.Collection, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	coll := scene.NewCollection()
	for _, e := range d.SceneElements() {
		coll.Add(e)
	}
	return coll, nil
}
