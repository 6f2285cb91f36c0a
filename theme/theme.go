package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Piano roll cells
	NoteStart rune // ■ note begins in this cell
	NoteHold  rune // ━ note sustains through this cell
	Empty     rune // · nothing sounding
	Octave    rune // ┄ empty cell on a C row
	Playhead  rune // │ empty cell under the playhead

	// Event list
	On  rune // ▶ note on
	Off rune // ◁ note off
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			NoteStart: '■',
			NoteHold:  '━',
			Empty:     '·',
			Octave:    '┄',
			Playhead:  '│',

			On:  '▶',
			Off: '◁',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.6
	RoleAccent  = 0.5
	RoleCursor  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color      { return rgbToLipgloss(t.Palette.Lookup(RoleBG)) }
func (t *Theme) FG() lipgloss.Color      { return rgbToLipgloss(t.Palette.Lookup(RoleFG)) }
func (t *Theme) Accent() lipgloss.Color  { return rgbToLipgloss(t.Palette.Lookup(RoleAccent)) }
func (t *Theme) Muted() lipgloss.Color   { return rgbToLipgloss(t.Palette.Lookup(RoleMuted)) }
func (t *Theme) Cursor() lipgloss.Color  { return rgbToLipgloss(t.Palette.Lookup(RoleCursor)) }
func (t *Theme) Warning() lipgloss.Color { return rgbToLipgloss(t.Palette.Lookup(RoleWarning)) }
func (t *Theme) Success() lipgloss.Color { return rgbToLipgloss(t.Palette.Lookup(RoleSuccess)) }

// Channel returns the color for a MIDI channel, spread over the bright half of the palette
func (t *Theme) Channel(ch uint8) lipgloss.Color {
	return t.Color(0.35 + 0.65*float64(ch&0x0F)/15)
}

// Velocity returns a color scaled by note velocity
func (t *Theme) Velocity(v uint8) lipgloss.Color {
	return t.Color(float64(v&0x7F) / 127)
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
