// Package session runs live editing sessions over websockets. Each open
// drawing gets exactly one engine and one editor.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"sync"

	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/scene"
)

var (
	ErrSessionBusy = errors.New("drawing is already open in another session")
	ErrHubStopped  = errors.New("session hub stopped")
	ErrUnknownOp   = errors.New("unknown command op")
)

// Session is one open drawing. Its engine is guarded by mu because
// autosave and shutdown read it from outside the editor's read loop.
type Session struct {
	ID        string
	DrawingID string
	UserID    string

	saver Saver

	mu    sync.Mutex
	eng   *engine.Engine
	dirty bool
}

// Handle applies one client message and returns the replies to send back.
// A failed edit yields an error reply rather than an error; only malformed
// messages return err.
func (s *Session) Handle(ctx context.Context, msg *Message) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		replies []*Message
		err     error
	)
	switch msg.Type {
	case TypePointer:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode pointer: %w", err)
		}
		replies, err = s.pointer(p)
	case TypeCommand:
		var c CommandPayload
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}
		replies, err = s.command(ctx, c)
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		reply, merr := newMessage(TypeError, ErrorPayload{Message: err.Error(), Seq: msg.Seq})
		if merr != nil {
			return nil, merr
		}
		replies = []*Message{reply}
	}
	for _, r := range replies {
		r.DrawingID = s.DrawingID
		r.Seq = msg.Seq
	}
	return replies, nil
}

func (s *Session) pointer(p PointerPayload) ([]*Message, error) {
	mode := s.eng.Mode()
	if p.Mode != nil {
		mode = *p.Mode
	}
	rev := s.eng.Revision()
	if err := s.eng.HandlePointer(mode, scene.Pt(p.X, p.Y)); err != nil {
		return nil, err
	}
	s.markDirty(rev)
	return s.view()
}

func (s *Session) command(ctx context.Context, c CommandPayload) ([]*Message, error) {
	var err error
	rev := s.eng.Revision()
	switch c.Op {
	case OpUndo:
		err = s.eng.Undo()
	case OpRedo:
		err = s.eng.Redo()
	case OpDuplicate:
		_, err = s.eng.Duplicate()
	case OpRemove:
		err = s.eng.RemoveSelected()
	case OpDeselect:
		err = s.eng.Deselect()
	case OpBringToFront:
		err = s.eng.BringToFront()
	case OpSendToBack:
		err = s.eng.SendToBack()
	case OpScale:
		err = s.eng.ScaleSelected(scene.Sz(c.Width, c.Height))
	case OpNew:
		s.eng.NewDrawing(s.eng.Background(), s.eng.Size())
	case OpSetMode:
		if c.Mode == nil {
			return nil, errors.New("setMode requires mode")
		}
		s.eng.SetMode(*c.Mode)
	case OpSetAddKind:
		if c.Kind == nil || *c.Kind == scene.KindNone {
			return nil, errors.New("setAddKind requires kind")
		}
		s.eng.SetAddKind(*c.Kind)
	case OpSetAddSize:
		if c.Width < 0 || c.Height < 0 {
			return nil, errors.New("setAddSize requires a non-negative size")
		}
		s.eng.SetAddSize(scene.Sz(c.Width, c.Height))
	case OpFrame:
		return s.frame()
	case OpSave:
		if err := s.saveLocked(ctx, true); err != nil {
			return nil, err
		}
		msg, err := newMessage(TypeSaved, struct{}{})
		if err != nil {
			return nil, err
		}
		return []*Message{msg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, c.Op)
	}
	if err != nil {
		return nil, err
	}
	s.markDirty(rev)
	return s.view()
}

// markDirty flags unsaved edits when the engine moved past revision before.
func (s *Session) markDirty(before uint64) {
	if s.eng.Revision() != before {
		s.dirty = true
	}
}

func (s *Session) view() ([]*Message, error) {
	msg, err := newMessage(TypeView, s.eng.View())
	if err != nil {
		return nil, err
	}
	return []*Message{msg}, nil
}

func (s *Session) frame() ([]*Message, error) {
	img := s.eng.Frame()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	msg, err := newMessage(TypeFrame, FramePayload{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		PNG:    buf.Bytes(),
	})
	if err != nil {
		return nil, err
	}
	return []*Message{msg}, nil
}

// View snapshots the session's engine.
func (s *Session) View() engine.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.View()
}

// Dirty reports whether there are edits since the last save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Save writes the engine back if there are unsaved edits.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, false)
}

func (s *Session) saveLocked(ctx context.Context, force bool) error {
	if !s.dirty && !force {
		return nil
	}
	if err := s.saver.SaveEngine(ctx, s.DrawingID, s.eng); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
