package command

import "github.com/artboard/artboard/internal/scene"

// Params is the parameter bundle for one command variant. Each variant's
// struct carries exactly the fields its command consumes.
type Params interface {
	Type() Type
	validate() error
}

type AddParams struct {
	Element *scene.Element
}

type RemoveParams struct {
	Element *scene.Element
}

type SelectParams struct {
	Target *scene.Element
}

type DeselectParams struct{}

type MoveParams struct {
	Element  *scene.Element
	Location scene.Point
}

type ScaleParams struct {
	Element *scene.Element
	Size    scene.Size
}

type DuplicateParams struct {
	Source *scene.Element
}

type ReorderToParams struct {
	From, To int
}

type MacroParams struct {
	Commands []Command
}

func (AddParams) Type() Type       { return TypeAdd }
func (RemoveParams) Type() Type    { return TypeRemove }
func (SelectParams) Type() Type    { return TypeSelect }
func (DeselectParams) Type() Type  { return TypeDeselect }
func (MoveParams) Type() Type      { return TypeMove }
func (ScaleParams) Type() Type     { return TypeScale }
func (DuplicateParams) Type() Type { return TypeDuplicate }
func (ReorderToParams) Type() Type { return TypeReorderTo }
func (MacroParams) Type() Type     { return TypeMacro }

func (p AddParams) validate() error       { return requireElement(p, "Element", p.Element) }
func (p RemoveParams) validate() error    { return requireElement(p, "Element", p.Element) }
func (p SelectParams) validate() error    { return requireElement(p, "Target", p.Target) }
func (DeselectParams) validate() error    { return nil }
func (p MoveParams) validate() error      { return requireElement(p, "Element", p.Element) }
func (p ScaleParams) validate() error     { return requireElement(p, "Element", p.Element) }
func (p DuplicateParams) validate() error { return requireElement(p, "Source", p.Source) }
func (ReorderToParams) validate() error   { return nil }

func (p MacroParams) validate() error {
	if len(p.Commands) == 0 {
		return missing(TypeMacro, "Commands")
	}
	for _, c := range p.Commands {
		if c == nil {
			return missing(TypeMacro, "Commands")
		}
	}
	return nil
}

func requireElement(p Params, field string, e *scene.Element) error {
	if e == nil {
		return missing(p.Type(), field)
	}
	return nil
}
