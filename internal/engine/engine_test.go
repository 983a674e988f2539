package engine

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/history"
	"github.com/artboard/artboard/internal/imagecache"
	"github.com/artboard/artboard/internal/scene"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Size = scene.Sz(200, 150)
	e := New(imagecache.New(nil), nil, opts)
	t.Cleanup(e.Close)
	return e
}

func TestAddAndUndo(t *testing.T) {
	e := newEngine(t)

	el, err := e.Add(scene.KindCloud, scene.Pt(50, 50), scene.Sz(75, 75))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Collection().Len())
	assert.True(t, e.CanUndo())

	require.NoError(t, e.Undo())
	assert.Zero(t, e.Collection().Len())
	assert.False(t, e.Collection().Contains(el))

	require.NoError(t, e.Redo())
	assert.True(t, e.Collection().Contains(el))
}

func TestUndoOnFreshEngine(t *testing.T) {
	e := newEngine(t)
	assert.ErrorIs(t, e.Undo(), history.ErrEmptyHistory)
	assert.ErrorIs(t, e.Redo(), history.ErrNothingToRedo)
}

func TestPointerModes(t *testing.T) {
	e := newEngine(t)
	e.SetAddKind(scene.KindPine)
	e.SetAddSize(scene.Sz(20, 30))

	require.NoError(t, e.HandlePointer(ModeAdd, scene.Pt(10, 10)))
	require.Equal(t, 1, e.Collection().Len())
	added := e.Collection().At(0)
	assert.Equal(t, scene.KindPine, added.Kind())
	assert.Equal(t, scene.Sz(20, 30), added.Size())

	assert.ErrorIs(t, e.HandlePointer(ModeMove, scene.Pt(0, 0)), ErrNoSelection)

	require.NoError(t, e.HandlePointer(ModeSelect, scene.Pt(30, 40)), "bottom-right corner is inside")
	assert.Same(t, added, e.Selected())

	require.NoError(t, e.HandlePointer(ModeMove, scene.Pt(100, 100)))
	assert.Equal(t, scene.Pt(100, 100), added.Location())

	require.NoError(t, e.HandlePointer(ModeNone, scene.Pt(100, 100)))
	assert.Error(t, e.HandlePointer(Mode(42), scene.Pt(0, 0)))
}

func TestSelectTopmostAt(t *testing.T) {
	e := newEngine(t)
	bottom, _ := e.Add(scene.KindMountain, scene.Pt(0, 0), scene.Sz(100, 100))
	top, _ := e.Add(scene.KindCloud, scene.Pt(40, 40), scene.Sz(20, 20))

	hit, err := e.SelectTopmostAt(scene.Pt(50, 50))
	require.NoError(t, err)
	assert.Same(t, top, hit)

	depth := e.history.Len()
	_, err = e.SelectTopmostAt(scene.Pt(45, 45))
	require.NoError(t, err)
	assert.Equal(t, depth, e.history.Len(), "reselecting records nothing")

	hit, err = e.SelectTopmostAt(scene.Pt(5, 5))
	require.NoError(t, err)
	assert.Same(t, bottom, hit)
	assert.False(t, top.Selected())

	hit, err = e.SelectTopmostAt(scene.Pt(150, 140))
	require.NoError(t, err)
	assert.Nil(t, hit)
	assert.Nil(t, e.Selected())

	require.NoError(t, e.Undo())
	assert.Same(t, bottom, e.Selected())

	depth = e.history.Len()
	require.NoError(t, e.Deselect())
	_, err = e.SelectTopmostAt(scene.Pt(150, 140))
	require.NoError(t, err)
	assert.Equal(t, depth+1, e.history.Len())
}

func TestDuplicateIsOneUndoStep(t *testing.T) {
	e := newEngine(t)
	src, _ := e.Add(scene.KindCloud, scene.Pt(30, 30), scene.Sz(75, 75))
	_, err := e.SelectTopmostAt(scene.Pt(31, 31))
	require.NoError(t, err)

	dup, err := e.Duplicate()
	require.NoError(t, err)
	assert.Equal(t, 2, e.Collection().Len())
	assert.Equal(t, scene.Pt(40, 40), dup.Location())
	assert.Equal(t, src.Size(), dup.Size())
	assert.Equal(t, src.Kind(), dup.Kind())
	assert.Same(t, dup, e.Selected())

	require.NoError(t, e.Undo())
	assert.Equal(t, 1, e.Collection().Len())
	assert.Same(t, src, e.Selected())
	assert.Equal(t, scene.Pt(30, 30), src.Location())
}

func TestSelectedOperations(t *testing.T) {
	e := newEngine(t)
	a, _ := e.Add(scene.KindCloud, scene.Pt(0, 0), scene.Sz(10, 10))
	b, _ := e.Add(scene.KindPond, scene.Pt(50, 50), scene.Sz(10, 10))
	c, _ := e.Add(scene.KindTree, scene.Pt(100, 100), scene.Sz(10, 10))

	for _, op := range []func() error{e.RemoveSelected, e.BringToFront, e.SendToBack, e.Deselect} {
		assert.ErrorIs(t, op(), ErrNoSelection)
	}
	assert.ErrorIs(t, e.ScaleSelected(scene.Sz(1, 1)), ErrNoSelection)
	_, err := e.Duplicate()
	assert.ErrorIs(t, err, ErrNoSelection)

	e.Collection().Select(a)
	require.NoError(t, e.BringToFront())
	assert.Equal(t, []*scene.Element{b, c, a}, e.Collection().Elements())

	depth := e.history.Len()
	require.NoError(t, e.BringToFront())
	assert.Equal(t, depth, e.history.Len(), "already in front")

	require.NoError(t, e.SendToBack())
	assert.Equal(t, []*scene.Element{a, b, c}, e.Collection().Elements())

	require.NoError(t, e.ScaleSelected(scene.Sz(40, 40)))
	assert.Equal(t, scene.Sz(40, 40), a.Size())

	require.NoError(t, e.RemoveSelected())
	assert.Equal(t, 2, e.Collection().Len())
	assert.Nil(t, e.Selected())

	require.NoError(t, e.Undo())
	assert.Equal(t, []*scene.Element{a, b, c}, e.Collection().Elements())
	assert.Same(t, a, e.Selected())

	require.NoError(t, e.Undo())
	assert.Equal(t, scene.Sz(10, 10), a.Size())
}

func TestFrameReflectsEdits(t *testing.T) {
	e := newEngine(t)

	el, _ := e.Add(scene.KindPond, scene.Pt(10, 10), scene.Sz(64, 64))
	frame := e.Frame()
	center := frame.RGBAAt(42, 42)
	assert.NotEqual(t, frame.RGBAAt(150, 10), center)
	assert.False(t, e.LastRepaint().Full)
	assert.Contains(t, e.LastRepaint().Redrawn, el.ID())
}

func TestRepaintCoversWholeCommand(t *testing.T) {
	e := newEngine(t)
	a, _ := e.Add(scene.KindCloud, scene.Pt(0, 0), scene.Sz(5, 5))
	b, _ := e.Add(scene.KindPond, scene.Pt(50, 50), scene.Sz(5, 5))
	c, _ := e.Add(scene.KindTree, scene.Pt(100, 100), scene.Sz(5, 5))
	e.Collection().Select(a)
	require.NoError(t, e.RemoveSelected())

	// Undo re-adds a on top, reorders it back to the bottom, then selects it.
	require.NoError(t, e.Undo())
	assert.Equal(t, []scene.ID{a.ID()}, e.compositor.LastRepaint().Redrawn)
	rp := e.LastRepaint()
	assert.ElementsMatch(t, []scene.ID{a.ID(), b.ID(), c.ID()}, rp.Redrawn)
	assert.False(t, rp.Full)
	assert.Equal(t, rp.Restored, e.View().Damage)
}

func TestRevision(t *testing.T) {
	e := newEngine(t)
	rev := e.Revision()

	require.NoError(t, e.HandlePointer(ModeNone, scene.Pt(5, 5)))
	require.NoError(t, e.HandlePointer(ModeSelect, scene.Pt(5, 5)))
	assert.Equal(t, rev, e.Revision(), "empty presses change nothing")

	el, _ := e.Add(scene.KindCloud, scene.Pt(0, 0), scene.Sz(10, 10))
	assert.Equal(t, rev+1, e.Revision())
	_, _ = e.SelectTopmostAt(scene.Pt(5, 5))
	rev = e.Revision()
	_, _ = e.SelectTopmostAt(scene.Pt(6, 6))
	assert.Equal(t, rev, e.Revision(), "reselecting changes nothing")
	assert.Same(t, el, e.Selected())

	require.NoError(t, e.Undo())
	require.NoError(t, e.Redo())
	assert.Equal(t, rev+2, e.Revision())
	assert.Error(t, e.Redo())
	assert.Equal(t, rev+2, e.Revision())
}

func TestNewDrawingResetsEverything(t *testing.T) {
	e := newEngine(t)
	_, _ = e.Add(scene.KindCloud, scene.Pt(0, 0), scene.Sz(10, 10))
	_, _ = e.Add(scene.KindCloud, scene.Pt(5, 5), scene.Sz(10, 10))

	bg := image.NewRGBA(image.Rect(0, 0, 4, 4))
	e.NewDrawing(bg, scene.Sz(320, 240))

	assert.Zero(t, e.Collection().Len())
	assert.False(t, e.CanUndo())
	assert.ErrorIs(t, e.Undo(), history.ErrEmptyHistory)
	assert.Equal(t, scene.Sz(320, 240), e.Size())
	assert.Equal(t, image.Rect(0, 0, 320, 240), e.Frame().Bounds())
	assert.Same(t, bg, e.Background())
	assert.True(t, e.LastRepaint().Full)
}

func TestLoadAndDocument(t *testing.T) {
	e := newEngine(t)
	doc := document.NewSampleDocument(scene.Sz(400, 300))
	doc.Elements[2].Selected = true

	require.NoError(t, e.Load(doc, nil))
	assert.Equal(t, len(doc.Elements), e.Collection().Len())
	assert.Equal(t, scene.Sz(400, 300), e.Size())
	assert.Equal(t, 2, e.Collection().IndexOf(e.Selected()))
	assert.False(t, e.CanUndo())

	assert.Equal(t, doc.Elements, e.Document().Elements)

	assert.ErrorIs(t, e.Load(&document.Document{Width: 0, Height: 1}, nil), document.ErrInvalidDocument)
	assert.Equal(t, len(doc.Elements), e.Collection().Len(), "failed load keeps the drawing")
}

func TestLoadRespectsMaxCanvas(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCanvas = 300
	e := New(imagecache.New(nil), nil, opts)
	t.Cleanup(e.Close)

	assert.ErrorIs(t, e.Load(document.NewEmptyDocument(scene.Sz(301, 10)), nil), document.ErrInvalidDocument)
	assert.Equal(t, opts.Size, e.Size())
	require.NoError(t, e.Load(document.NewEmptyDocument(scene.Sz(300, 300)), nil))
	assert.Equal(t, scene.Sz(300, 300), e.Size())
}

func TestView(t *testing.T) {
	e := newEngine(t)
	e.SetMode(ModeAdd)
	_, _ = e.Add(scene.KindRain, scene.Pt(1, 2), scene.Sz(3, 4))

	v := e.View()
	assert.Equal(t, ModeAdd, v.Mode)
	assert.Equal(t, -1, v.Selected)
	assert.True(t, v.CanUndo)
	require.Len(t, v.Elements, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.ViewJSON()), &decoded))
	assert.Equal(t, "add", decoded["mode"])
	assert.Equal(t, "Cloud", decoded["addKind"])
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{ModeNone, ModeAdd, ModeMove, ModeSelect} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("paint")
	assert.Error(t, err)
}
