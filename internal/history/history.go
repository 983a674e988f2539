// Package history keeps the undo and redo stacks for executed commands.
package history

import (
	"errors"

	"github.com/artboard/artboard/internal/command"
)

var (
	ErrEmptyHistory  = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History executes commands and records them for undo. With a positive
// limit the oldest entries are dropped once the undo stack grows past it.
type History struct {
	limit int
	undo  []command.Command
	redo  []command.Command
}

// New returns an empty history. limit <= 0 means unbounded.
func New(limit int) *History {
	return &History{limit: max(limit, 0)}
}

// Execute runs cmd and pushes it. Any undone commands waiting to be redone
// are discarded.
func (h *History) Execute(cmd command.Command) {
	cmd.Execute()
	h.push(cmd)
	clear(h.redo)
	h.redo = h.redo[:0]
}

// Undo pops the most recent command and reverses it.
func (h *History) Undo() (command.Command, error) {
	if len(h.undo) == 0 {
		return nil, ErrEmptyHistory
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo[len(h.undo)-1] = nil
	h.undo = h.undo[:len(h.undo)-1]

	cmd.Undo()
	h.redo = append(h.redo, cmd)
	return cmd, nil
}

// Redo re-executes the most recently undone command.
func (h *History) Redo() (command.Command, error) {
	if len(h.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo[len(h.redo)-1] = nil
	h.redo = h.redo[:len(h.redo)-1]

	cmd.Execute()
	h.push(cmd)
	return cmd, nil
}

// Reset forgets every command without undoing any of them.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
func (h *History) Len() int      { return len(h.undo) }

func (h *History) push(cmd command.Command) {
	h.undo = append(h.undo, cmd)
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		clear(h.undo[:drop])
		h.undo = append(h.undo[:0], h.undo[drop:]...)
	}
}
