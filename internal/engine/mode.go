package engine

import "fmt"

// Mode decides what a pointer press on the canvas does.
type Mode int

const (
	ModeNone Mode = iota
	ModeAdd
	ModeMove
	ModeSelect
)

var modeNames = [...]string{
	ModeNone:   "none",
	ModeAdd:    "add",
	ModeMove:   "move",
	ModeSelect: "select",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return ModeNone, fmt.Errorf("unknown mode: %q", name)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
