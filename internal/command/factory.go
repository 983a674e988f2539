package command

import (
	"fmt"
	"slices"

	"github.com/artboard/artboard/internal/scene"
)

// Factory builds commands that act on one collection.
type Factory struct {
	coll *scene.Collection
}

// NewFactory returns a factory bound to coll.
func NewFactory(coll *scene.Collection) *Factory {
	return &Factory{coll: coll}
}

// Create validates p and returns the matching command. On error no command
// is built.
func (f *Factory) Create(p Params) (Command, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil params", ErrInvalidParameters)
	}
	if f.coll == nil {
		return nil, missing(p.Type(), "Collection")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case AddParams:
		return &Add{coll: f.coll, element: p.Element}, nil
	case RemoveParams:
		return &Remove{coll: f.coll, element: p.Element, index: -1}, nil
	case SelectParams:
		return &Select{coll: f.coll, target: p.Target}, nil
	case DeselectParams:
		return &Deselect{coll: f.coll}, nil
	case MoveParams:
		return &Move{element: p.Element, location: p.Location}, nil
	case ScaleParams:
		return &Scale{element: p.Element, size: p.Size}, nil
	case DuplicateParams:
		src := p.Source
		return &Duplicate{
			coll:      f.coll,
			duplicate: scene.NewElement(src.Kind(), src.Location(), src.Size()),
		}, nil
	case ReorderToParams:
		return &ReorderTo{coll: f.coll, from: p.From, to: p.To}, nil
	case MacroParams:
		return &Macro{commands: slices.Clone(p.Commands)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported command %s", ErrInvalidParameters, p.Type())
	}
}
