package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smfplay/theme"
)

// RollNote is a note as drawn by the piano roll
type RollNote struct {
	Key      uint8
	Channel  uint8
	Velocity uint8
	Start    uint32
	End      uint32 // exclusive; End <= Start draws a single cell
}

// Roll is a scrolling piano-roll viewport. Rows are keys (high at the top),
// columns are time.
type Roll struct {
	Width        int    // columns
	Height       int    // rows
	TicksPerCell uint32 // horizontal zoom
	StartTick    uint32 // tick of column 0
	TopKey       uint8  // key of row 0
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellStart
	cellHold
)

type cell struct {
	kind cellKind
	note RollNote
}

// grid lays out notes without styling; grid[row][col]
func (r Roll) grid(notes []RollNote) [][]cell {
	g := make([][]cell, r.Height)
	for i := range g {
		g[i] = make([]cell, r.Width)
	}
	if r.TicksPerCell == 0 {
		return g
	}
	viewEnd := r.StartTick + uint32(r.Width)*r.TicksPerCell

	for _, n := range notes {
		row := int(r.TopKey) - int(n.Key)
		if row < 0 || row >= r.Height {
			continue
		}
		end := n.End
		if end <= n.Start {
			end = n.Start + 1
		}
		if end <= r.StartTick || n.Start >= viewEnd {
			continue
		}

		first := 0
		if n.Start >= r.StartTick {
			first = int((n.Start - r.StartTick) / r.TicksPerCell)
		}
		last := min(int((end-1-r.StartTick)/r.TicksPerCell), r.Width-1)

		for col := first; col <= last; col++ {
			kind := cellHold
			if col == first && n.Start >= r.StartTick {
				kind = cellStart
			}
			// starts win over holds from overlapping notes
			if g[row][col].kind == cellStart && kind == cellHold {
				continue
			}
			g[row][col] = cell{kind: kind, note: n}
		}
	}
	return g
}

// View renders the roll with key labels on the left and a playhead column.
func (r Roll) View(th *theme.Theme, notes []RollNote, playhead uint32, keyLabel func(uint8) string) string {
	g := r.grid(notes)
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	head := lipgloss.NewStyle().Foreground(th.Cursor())

	playCol := -1
	if r.TicksPerCell > 0 && playhead >= r.StartTick {
		if c := int((playhead - r.StartTick) / r.TicksPerCell); c < r.Width {
			playCol = c
		}
	}

	var lines []string
	for row := 0; row < r.Height; row++ {
		key := int(r.TopKey) - row
		if key < 0 {
			break
		}
		var line strings.Builder
		line.WriteString(dim.Render(fmt.Sprintf("%4s ", keyLabel(uint8(key)))))
		for col, c := range g[row] {
			switch c.kind {
			case cellStart:
				line.WriteString(lipgloss.NewStyle().Foreground(th.Channel(c.note.Channel)).Render(string(th.Symbols.NoteStart)))
			case cellHold:
				line.WriteString(lipgloss.NewStyle().Foreground(th.Channel(c.note.Channel)).Render(string(th.Symbols.NoteHold)))
			default:
				switch {
				case col == playCol:
					line.WriteString(head.Render(string(th.Symbols.Playhead)))
				case key%12 == 0:
					line.WriteString(dim.Render(string(th.Symbols.Octave)))
				default:
					line.WriteString(dim.Render(string(th.Symbols.Empty)))
				}
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
