//go:build js && wasm

package main

import (
	"bytes"
	"strings"
	"syscall/js"

	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/imagecache"
	"github.com/artboard/artboard/internal/scene"
)

var eng *engine.Engine

func main() {
	eng = engine.New(imagecache.New(nil), nil, engine.DefaultOptions())

	// Create the engine API object
	artboard := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	artboard.Set("loadDocument", js.FuncOf(loadDocument))
	artboard.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	artboard.Set("newDrawing", js.FuncOf(newDrawing))
	artboard.Set("setBackground", js.FuncOf(setBackground))
	artboard.Set("resize", js.FuncOf(resize))
	artboard.Set("pointer", js.FuncOf(pointer))
	artboard.Set("setMode", js.FuncOf(setMode))
	artboard.Set("setAddKind", js.FuncOf(setAddKind))
	artboard.Set("setAddSize", js.FuncOf(setAddSize))
	artboard.Set("undo", js.FuncOf(simple(eng.Undo)))
	artboard.Set("redo", js.FuncOf(simple(eng.Redo)))
	artboard.Set("remove", js.FuncOf(simple(eng.RemoveSelected)))
	artboard.Set("deselect", js.FuncOf(simple(eng.Deselect)))
	artboard.Set("bringToFront", js.FuncOf(simple(eng.BringToFront)))
	artboard.Set("sendToBack", js.FuncOf(simple(eng.SendToBack)))
	artboard.Set("duplicate", js.FuncOf(duplicate))
	artboard.Set("scale", js.FuncOf(scale))

	// --- Queries (frontend ← backend) ---
	artboard.Set("getView", js.FuncOf(getView))
	artboard.Set("getDocument", js.FuncOf(getDocument))
	artboard.Set("getFrame", js.FuncOf(getFrame))

	// Register on global scope
	js.Global().Set("artboardEngine", artboard)

	// Signal that WASM is ready
	js.Global().Set("artboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func failure(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func simple(op func() error) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		return result(op())
	}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failure("missing document JSON")
	}

	doc, err := document.Decode(strings.NewReader(args[0].String()))
	if err != nil {
		return result(err)
	}
	return result(eng.Load(doc, eng.Background()))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	return result(eng.Load(document.NewSampleDocument(eng.Size()), eng.Background()))
}

func newDrawing(this js.Value, args []js.Value) interface{} {
	eng.NewDrawing(eng.Background(), eng.Size())
	return result(nil)
}

// setBackground takes a Uint8Array of PNG, JPEG or BMP bytes. No argument
// clears the background.
func setBackground(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].IsNull() || args[0].IsUndefined() {
		eng.SetBackground(nil)
		return result(nil)
	}
	data := make([]byte, args[0].Length())
	js.CopyBytesToGo(data, args[0])
	img, _, err := document.DecodeBackground(bytes.NewReader(data), eng.MaxCanvas())
	if err != nil {
		return result(err)
	}
	eng.SetBackground(img)
	return result(nil)
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failure("resize requires width and height")
	}
	w, h := args[0].Int(), args[1].Int()
	if w <= 0 || h <= 0 {
		return failure("canvas size must be positive")
	}
	if w > eng.MaxCanvas() || h > eng.MaxCanvas() {
		return failure("canvas size exceeds the limit")
	}
	eng.Resize(scene.Sz(w, h))
	return result(nil)
}

// pointer(x, y[, mode]) presses the canvas in the current or given mode.
func pointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failure("pointer requires x and y")
	}
	mode := eng.Mode()
	if len(args) > 2 && args[2].Type() == js.TypeString {
		m, err := engine.ParseMode(args[2].String())
		if err != nil {
			return result(err)
		}
		mode = m
	}
	return result(eng.HandlePointer(mode, scene.Pt(args[0].Int(), args[1].Int())))
}

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failure("missing mode")
	}
	m, err := engine.ParseMode(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.SetMode(m)
	return result(nil)
}

func setAddKind(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failure("missing kind")
	}
	k, err := scene.ParseKind(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.SetAddKind(k)
	return result(nil)
}

func setAddSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failure("setAddSize requires width and height")
	}
	eng.SetAddSize(scene.Sz(args[0].Int(), args[1].Int()))
	return result(nil)
}

func duplicate(this js.Value, args []js.Value) interface{} {
	_, err := eng.Duplicate()
	return result(err)
}

func scale(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failure("scale requires width and height")
	}
	return result(eng.ScaleSelected(scene.Sz(args[0].Int(), args[1].Int())))
}

// --- Query Handlers ---

func getView(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ViewJSON())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	var buf bytes.Buffer
	if err := document.Encode(&buf, eng.Document()); err != nil {
		return failure(err.Error())
	}
	return js.ValueOf(buf.String())
}

// getFrame returns {width, height, pixels} with pixels as RGBA bytes ready
// for ImageData.
func getFrame(this js.Value, args []js.Value) interface{} {
	frame := eng.Frame()
	pixels := js.Global().Get("Uint8ClampedArray").New(len(frame.Pix))
	js.CopyBytesToJS(pixels, frame.Pix)
	return js.ValueOf(map[string]interface{}{
		"width":  frame.Bounds().Dx(),
		"height": frame.Bounds().Dy(),
		"pixels": pixels,
	})
}
