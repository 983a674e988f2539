package session

import (
	"encoding/json"

	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/scene"
)

type Message struct {
	Type      string          `json:"type"`
	DrawingID string          `json:"drawingId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypePointer = "pointer"
	TypeCommand = "command"

	// Server to client
	TypeWelcome = "welcome"
	TypeView    = "view"
	TypeFrame   = "frame"
	TypeSaved   = "saved"
	TypeError   = "error"
)

// Command ops carried by TypeCommand messages.
const (
	OpUndo         = "undo"
	OpRedo         = "redo"
	OpDuplicate    = "duplicate"
	OpRemove       = "remove"
	OpDeselect     = "deselect"
	OpBringToFront = "bringToFront"
	OpSendToBack   = "sendToBack"
	OpScale        = "scale"
	OpSetMode      = "setMode"
	OpSetAddKind   = "setAddKind"
	OpSetAddSize   = "setAddSize"
	OpNew          = "new"
	OpFrame        = "frame"
	OpSave         = "save"
)

// PointerPayload is a press on the canvas. Mode defaults to the engine's
// current mode.
type PointerPayload struct {
	Mode *engine.Mode `json:"mode,omitempty"`
	X    int          `json:"x"`
	Y    int          `json:"y"`
}

type CommandPayload struct {
	Op     string       `json:"op"`
	Mode   *engine.Mode `json:"mode,omitempty"`
	Kind   *scene.Kind  `json:"kind,omitempty"`
	Width  int          `json:"width,omitempty"`
	Height int          `json:"height,omitempty"`
}

type WelcomePayload struct {
	SessionID string      `json:"sessionId"`
	ClientID  string      `json:"clientId"`
	View      engine.View `json:"view"`
}

// FramePayload carries the whole canvas as PNG.
type FramePayload struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"png"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Seq     int64  `json:"seq,omitempty"`
}

func newMessage(typ string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
