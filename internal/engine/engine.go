// Package engine is the editing façade over one drawing. It owns the element
// collection, its compositor, the command factory and the undo history, and
// turns pointer and keyboard input into undoable commands.
package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/artboard/artboard/internal/command"
	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/history"
	"github.com/artboard/artboard/internal/render"
	"github.com/artboard/artboard/internal/scene"
)

// ErrNoSelection is returned by operations on the selected element when
// nothing is selected.
var ErrNoSelection = errors.New("no element selected")

// Options configures a new engine.
type Options struct {
	Size               scene.Size
	SelectionThickness int
	// DuplicateOffset is how far a duplicate is nudged right and down from
	// its source.
	DuplicateOffset int
	HistoryLimit    int
	AddKind         scene.Kind
	AddSize         scene.Size
	// MaxCanvas bounds both canvas sides of a loaded document.
	MaxCanvas int
}

// DefaultOptions matches the default server configuration.
func DefaultOptions() Options {
	return Options{
		Size:               scene.Sz(800, 600),
		SelectionThickness: 2,
		DuplicateOffset:    10,
		AddKind:            scene.KindCloud,
		AddSize:            scene.Sz(75, 75),
		MaxCanvas:          4096,
	}
}

// Engine is the main editing engine for one drawing. It is not safe for
// concurrent use.
type Engine struct {
	opts Options

	coll       *scene.Collection
	compositor *render.Compositor
	factory    *command.Factory
	history    *history.History

	mode    Mode
	addKind scene.Kind
	addSize scene.Size

	// repaint is what the most recent operation painted in total.
	repaint render.Repaint
	// revision counts changes to the saved document.
	revision uint64
}

// New creates an engine with an empty drawing over background, which may
// be nil.
func New(images render.ImageSource, background image.Image, opts Options) *Engine {
	coll := scene.NewCollection()
	e := &Engine{
		opts:       opts,
		coll:       coll,
		compositor: render.New(coll, background, opts.Size, images, opts.SelectionThickness),
		factory:    command.NewFactory(coll),
		history:    history.New(opts.HistoryLimit),
		mode:       ModeSelect,
		addKind:    opts.AddKind,
		addSize:    opts.AddSize,
	}
	e.settle()
	return e
}

// settle records everything painted since the previous operation.
func (e *Engine) settle() { e.repaint = e.compositor.TakeRepaint() }

// Close releases the compositor's subscription.
func (e *Engine) Close() { e.compositor.Close() }

// --- Pointer input ---

// HandlePointer applies a canvas press at p according to mode.
func (e *Engine) HandlePointer(mode Mode, p scene.Point) error {
	switch mode {
	case ModeAdd:
		_, err := e.Add(e.addKind, p, e.addSize)
		return err
	case ModeMove:
		return e.MoveSelectedTo(p)
	case ModeSelect:
		_, err := e.SelectTopmostAt(p)
		return err
	case ModeNone:
		return nil
	default:
		return fmt.Errorf("unknown mode %d", int(mode))
	}
}

// Add places a new element of kind at p.
func (e *Engine) Add(kind scene.Kind, p scene.Point, size scene.Size) (*scene.Element, error) {
	el := scene.NewElement(kind, p, size)
	if err := e.run(command.AddParams{Element: el}); err != nil {
		return nil, err
	}
	return el, nil
}

// MoveSelectedTo moves the selected element's top-left corner to p.
func (e *Engine) MoveSelectedTo(p scene.Point) error {
	sel := e.coll.Selected()
	if sel == nil {
		return ErrNoSelection
	}
	return e.run(command.MoveParams{Element: sel, Location: p})
}

// SelectTopmostAt selects the highest element under p. Pressing on empty
// canvas clears the selection. Pressing the element that is already
// selected records nothing.
func (e *Engine) SelectTopmostAt(p scene.Point) (*scene.Element, error) {
	hit := e.coll.FindTopmostAt(p)
	switch {
	case hit == nil && e.coll.Selected() == nil:
		return nil, nil
	case hit == nil:
		return nil, e.run(command.DeselectParams{})
	case hit == e.coll.Selected():
		return hit, nil
	}
	if err := e.run(command.SelectParams{Target: hit}); err != nil {
		return nil, err
	}
	return hit, nil
}

// --- Keyboard and menu operations ---

// Deselect clears the selection.
func (e *Engine) Deselect() error {
	if e.coll.Selected() == nil {
		return ErrNoSelection
	}
	return e.run(command.DeselectParams{})
}

// Duplicate copies the selected element, nudges the copy by the configured
// offset and selects it, all as one undo step.
func (e *Engine) Duplicate() (*scene.Element, error) {
	sel := e.coll.Selected()
	if sel == nil {
		return nil, ErrNoSelection
	}

	dup, err := e.factory.Create(command.DuplicateParams{Source: sel})
	if err != nil {
		return nil, err
	}
	copied := dup.(*command.Duplicate).Element()
	offset := scene.Pt(e.opts.DuplicateOffset, e.opts.DuplicateOffset)

	move, err := e.factory.Create(command.MoveParams{Element: copied, Location: sel.Location().Add(offset)})
	if err != nil {
		return nil, err
	}
	pick, err := e.factory.Create(command.SelectParams{Target: copied})
	if err != nil {
		return nil, err
	}

	if err := e.run(command.MacroParams{Commands: []command.Command{dup, move, pick}}); err != nil {
		return nil, err
	}
	return copied, nil
}

// RemoveSelected deletes the selected element.
func (e *Engine) RemoveSelected() error {
	sel := e.coll.Selected()
	if sel == nil {
		return ErrNoSelection
	}
	return e.run(command.RemoveParams{Element: sel})
}

// ScaleSelected resizes the selected element.
func (e *Engine) ScaleSelected(size scene.Size) error {
	sel := e.coll.Selected()
	if sel == nil {
		return ErrNoSelection
	}
	return e.run(command.ScaleParams{Element: sel, Size: size})
}

// BringToFront moves the selected element to the top of the render order.
func (e *Engine) BringToFront() error {
	return e.reorderSelected(func() int { return e.coll.Len() - 1 })
}

// SendToBack moves the selected element to the bottom of the render order.
func (e *Engine) SendToBack() error {
	return e.reorderSelected(func() int { return 0 })
}

func (e *Engine) reorderSelected(target func() int) error {
	sel := e.coll.Selected()
	if sel == nil {
		return ErrNoSelection
	}
	from, to := e.coll.IndexOf(sel), target()
	if from == to {
		return nil
	}
	return e.run(command.ReorderToParams{From: from, To: to})
}

// Undo reverses the most recent command.
func (e *Engine) Undo() error {
	cmd, err := e.history.Undo()
	if err != nil {
		return err
	}
	e.revision++
	e.settle()
	slog.Debug("undo command", "type", cmd.Type())
	return nil
}

// Redo re-applies the most recently undone command.
func (e *Engine) Redo() error {
	cmd, err := e.history.Redo()
	if err != nil {
		return err
	}
	e.revision++
	e.settle()
	slog.Debug("redo command", "type", cmd.Type())
	return nil
}

// NewDrawing discards every element and all history, then starts over on a
// fresh canvas.
func (e *Engine) NewDrawing(background image.Image, size scene.Size) {
	e.coll.Clear()
	e.history.Reset()
	e.compositor.Reset(background, size)
	e.revision++
	e.settle()
}

// Load replaces the drawing with doc over background. History is cleared.
func (e *Engine) Load(doc *document.Document, background image.Image) error {
	if err := doc.ValidateWithin(e.opts.MaxCanvas); err != nil {
		return err
	}
	e.coll.Clear()
	e.history.Reset()
	for _, el := range doc.SceneElements() {
		e.coll.Add(el)
	}
	e.compositor.Reset(background, doc.Size())
	e.revision++
	e.settle()
	return nil
}

// SetBackground swaps the background image. Elements and history are kept.
func (e *Engine) SetBackground(img image.Image) {
	e.compositor.SetBackground(img)
	e.settle()
}

// Resize changes the canvas size without touching elements or history.
func (e *Engine) Resize(size scene.Size) {
	e.compositor.Resize(size)
	e.revision++
	e.settle()
}

// --- Settings ---

func (e *Engine) Mode() Mode          { return e.mode }
func (e *Engine) SetMode(m Mode)      { e.mode = m }
func (e *Engine) AddKind() scene.Kind { return e.addKind }
func (e *Engine) AddSize() scene.Size { return e.addSize }

// SetAddKind chooses what ModeAdd presses place.
func (e *Engine) SetAddKind(k scene.Kind) { e.addKind = k }

// SetAddSize chooses the size of elements placed by ModeAdd presses.
func (e *Engine) SetAddSize(s scene.Size) { e.addSize = s }

// --- Queries ---

// Frame returns the rendered canvas. It is overwritten by the next edit.
func (e *Engine) Frame() *image.RGBA { return e.compositor.Frame() }

// LastRepaint reports everything the most recent operation repainted,
// across all the collection events it caused.
func (e *Engine) LastRepaint() render.Repaint { return e.repaint }

func (e *Engine) Collection() *scene.Collection { return e.coll }
func (e *Engine) Background() image.Image       { return e.compositor.Background() }
func (e *Engine) Size() scene.Size              { return e.compositor.Size() }
func (e *Engine) MaxCanvas() int                { return e.opts.MaxCanvas }
func (e *Engine) Selected() *scene.Element      { return e.coll.Selected() }
func (e *Engine) CanUndo() bool                 { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool                 { return e.history.CanRedo() }

// Revision increases with every change to the document: executed, undone
// and redone commands, loads, resizes and new drawings. Presses that record
// nothing leave it alone.
func (e *Engine) Revision() uint64 { return e.revision }

// Document projects the current drawing for persistence.
func (e *Engine) Document() *document.Document {
	return document.FromCollection(e.coll, e.Size())
}

func (e *Engine) run(p command.Params) error {
	cmd, err := e.factory.Create(p)
	if err != nil {
		return fmt.Errorf("create %s command: %w", p.Type(), err)
	}
	e.history.Execute(cmd)
	e.revision++
	e.settle()
	slog.Debug("execute command", "type", cmd.Type())
	return nil
}
