package document

import "github.com/artboard/artboard/internal/scene"

// NewSampleDocument returns a small landscape used by new drawings that ask
// for a starting point.
func NewSampleDocument(size scene.Size) *Document {
	w, h := size.Width, size.Height
	horizon := h * 3 / 5

	doc := NewEmptyDocument(size)
	doc.Elements = []Element{
		{Kind: scene.KindMountain, X: w / 10, Y: horizon - h/3, Width: w / 3, Height: h / 3},
		{Kind: scene.KindMountain, X: w / 3, Y: horizon - h*2/5, Width: w * 2 / 5, Height: h * 2 / 5},
		{Kind: scene.KindCloud, X: w / 8, Y: h / 12, Width: w / 6, Height: h / 10},
		{Kind: scene.KindCloud, X: w * 3 / 5, Y: h / 10, Width: w / 5, Height: h / 9},
		{Kind: scene.KindPond, X: w / 2, Y: horizon + h/10, Width: w / 4, Height: h / 10},
		{Kind: scene.KindPine, X: w / 20, Y: horizon - h/8, Width: w / 12, Height: h / 5},
		{Kind: scene.KindTree, X: w * 4 / 5, Y: horizon - h/10, Width: w / 10, Height: h / 5},
	}
	return doc
}
