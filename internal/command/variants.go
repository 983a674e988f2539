package command

import (
	"github.com/artboard/artboard/internal/scene"
)

// Add puts an element into the collection. An element that arrives
// selected takes over the selection, which undo hands back.
type Add struct {
	coll    *scene.Collection
	element *scene.Element

	added    bool
	previous *scene.Element
}

func (c *Add) Type() Type { return TypeAdd }

func (c *Add) Execute() {
	if c.coll.Contains(c.element) {
		return
	}
	c.previous = nil
	if c.element.Selected() {
		c.previous = c.coll.Selected()
	}
	c.coll.Add(c.element)
	c.added = true
}

func (c *Add) Undo() {
	if !c.added {
		return
	}
	c.coll.Remove(c.element)
	if c.previous != nil {
		c.coll.Select(c.previous)
	}
	c.added = false
}

// Element returns the element this command adds.
func (c *Add) Element() *scene.Element { return c.element }

// Remove takes an element out of the collection and, on undo, puts it back
// at its old render index with its old selection state.
type Remove struct {
	coll    *scene.Collection
	element *scene.Element

	removed     bool
	index       int
	wasSelected bool
}

func (c *Remove) Type() Type { return TypeRemove }

func (c *Remove) Execute() {
	c.index = c.coll.IndexOf(c.element)
	if c.index < 0 {
		return
	}
	c.wasSelected = c.element.Selected()
	c.coll.Remove(c.element)
	c.removed = true
}

func (c *Remove) Undo() {
	if !c.removed {
		return
	}
	c.coll.Add(c.element)
	c.coll.ReorderTo(c.coll.Len()-1, c.index)
	if c.wasSelected {
		c.coll.Select(c.element)
	}
	c.removed = false
}

// Select makes target the selected element.
type Select struct {
	coll     *scene.Collection
	target   *scene.Element
	previous *scene.Element
	executed bool
}

func (c *Select) Type() Type { return TypeSelect }

func (c *Select) Execute() {
	c.previous = c.coll.Selected()
	c.coll.Select(c.target)
	c.executed = true
}

func (c *Select) Undo() {
	if !c.executed {
		return
	}
	c.executed = false
	if c.previous != nil && c.coll.Contains(c.previous) {
		c.coll.Select(c.previous)
		return
	}
	if c.target.Selected() {
		c.target.Deselect()
	}
}

// Deselect clears the selection.
type Deselect struct {
	coll     *scene.Collection
	previous *scene.Element
}

func (c *Deselect) Type() Type { return TypeDeselect }

func (c *Deselect) Execute() {
	c.previous = c.coll.Selected()
	c.coll.Deselect()
}

func (c *Deselect) Undo() {
	if c.previous == nil {
		return
	}
	c.coll.Select(c.previous)
	c.previous = nil
}

// Move relocates an element.
type Move struct {
	element  *scene.Element
	location scene.Point
	previous scene.Point
	executed bool
}

func (c *Move) Type() Type { return TypeMove }

func (c *Move) Execute() {
	c.previous = c.element.Location()
	c.element.SetLocation(c.location)
	c.executed = true
}

func (c *Move) Undo() {
	if !c.executed {
		return
	}
	c.element.SetLocation(c.previous)
	c.executed = false
}

// Scale resizes an element.
type Scale struct {
	element  *scene.Element
	size     scene.Size
	previous scene.Size
	executed bool
}

func (c *Scale) Type() Type { return TypeScale }

func (c *Scale) Execute() {
	c.previous = c.element.Size()
	c.element.SetSize(c.size)
	c.executed = true
}

func (c *Scale) Undo() {
	if !c.executed {
		return
	}
	c.element.SetSize(c.previous)
	c.executed = false
}

// Duplicate adds a copy of a source element. The copy is created when the
// command is built, so repeated executions add it at most once.
type Duplicate struct {
	coll      *scene.Collection
	duplicate *scene.Element
}

func (c *Duplicate) Type() Type { return TypeDuplicate }

func (c *Duplicate) Execute() { c.coll.Add(c.duplicate) }

func (c *Duplicate) Undo() {
	if c.coll.Contains(c.duplicate) {
		c.coll.Remove(c.duplicate)
	}
}

// Element returns the copy this command adds.
func (c *Duplicate) Element() *scene.Element { return c.duplicate }

// ReorderTo moves the element at one render index to another.
type ReorderTo struct {
	coll     *scene.Collection
	from, to int
}

func (c *ReorderTo) Type() Type { return TypeReorderTo }

func (c *ReorderTo) Execute() { c.coll.ReorderTo(c.from, c.to) }

func (c *ReorderTo) Undo() { c.coll.ReorderTo(c.to, c.from) }

// Macro runs a sequence of commands as one step.
type Macro struct {
	commands []Command
}

func (c *Macro) Type() Type { return TypeMacro }

func (c *Macro) Execute() {
	for _, cmd := range c.commands {
		cmd.Execute()
	}
}

// Undo reverses the sub-commands last to first.
func (c *Macro) Undo() {
	for i := len(c.commands) - 1; i >= 0; i-- {
		c.commands[i].Undo()
	}
}

// Commands returns the macro's sub-commands in execution order.
func (c *Macro) Commands() []Command { return c.commands }
