package engine

import (
	"encoding/json"

	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/scene"
)

// View is the state a front end needs to draw its chrome around the
// canvas: which element is selected, what the next press will do, and
// whether undo and redo are available.
type View struct {
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Mode     Mode               `json:"mode"`
	AddKind  scene.Kind         `json:"addKind"`
	AddSize  scene.Size         `json:"addSize"`
	Elements []document.Element `json:"elements"`
	// Selected is the render index of the selected element, or -1.
	Selected int  `json:"selected"`
	CanUndo  bool `json:"canUndo"`
	CanRedo  bool `json:"canRedo"`
	// Damage is what the last edit repainted, in canvas pixels.
	Damage []scene.Rect `json:"damage,omitempty"`
	Full   bool         `json:"full"`
}

// View snapshots the engine for a front end.
func (e *Engine) View() View {
	size := e.Size()
	rp := e.LastRepaint()
	return View{
		Width:    size.Width,
		Height:   size.Height,
		Mode:     e.mode,
		AddKind:  e.addKind,
		AddSize:  e.addSize,
		Elements: e.Document().Elements,
		Selected: e.coll.IndexOf(e.coll.Selected()),
		CanUndo:  e.CanUndo(),
		CanRedo:  e.CanRedo(),
		Damage:   rp.Restored,
		Full:     rp.Full,
	}
}

// ViewJSON is View encoded as JSON.
func (e *Engine) ViewJSON() string {
	data, _ := json.Marshal(e.View())
	return string(data)
}
