// Package command reifies every collection mutation as a value that knows
// how to apply and invert itself.
package command

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is wrapped by every ParameterError.
var ErrInvalidParameters = errors.New("invalid command parameters")

// Type names a command variant.
type Type int

const (
	TypeAdd Type = iota + 1
	TypeRemove
	TypeSelect
	TypeDeselect
	TypeMove
	TypeScale
	TypeDuplicate
	TypeReorderTo
	TypeMacro
)

var typeNames = map[Type]string{
	TypeAdd:       "Add",
	TypeRemove:    "Remove",
	TypeSelect:    "Select",
	TypeDeselect:  "Deselect",
	TypeMove:      "Move",
	TypeScale:     "Scale",
	TypeDuplicate: "Duplicate",
	TypeReorderTo: "ReorderTo",
	TypeMacro:     "Macro",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Command is one undoable operation. Undo must restore the collection to
// the state Execute found it in; calling Undo without a prior Execute does
// nothing.
type Command interface {
	Type() Type
	Execute()
	Undo()
}

// ParameterError reports a parameter bundle that lacks a field its command
// needs.
type ParameterError struct {
	Command Type
	Field   string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s command: missing %s", e.Command, e.Field)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameters }

func missing(t Type, field string) error {
	return &ParameterError{Command: t, Field: field}
}
