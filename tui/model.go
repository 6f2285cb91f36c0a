package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"smfplay/debug"
	"smfplay/sequencer"
	"smfplay/smf"
	"smfplay/theme"
	"smfplay/widgets"
)

// UI refresh rate while playing
const frameRate = 30

type viewMode int

const (
	viewRoll viewMode = iota
	viewEvents
)

var keySections = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "space / p", Desc: "play / stop"},
		{Key: "g", Desc: "back to start"},
		{Key: "+ / -", Desc: "tempo +/- 5 BPM"},
		{Key: "1-9", Desc: "mute / unmute track"},
	}},
	{Title: "View", Keys: []widgets.KeyBinding{
		{Key: "tab", Desc: "piano roll / event list"},
		{Key: "h / l", Desc: "scroll time"},
		{Key: "j / k", Desc: "scroll keys or events"},
		{Key: "z / x", Desc: "zoom in / out"},
		{Key: "f", Desc: "follow playhead"},
		{Key: "?", Desc: "this help"},
		{Key: "q", Desc: "quit"},
	}},
}

type Model struct {
	Doc    *smf.Document
	Player *sequencer.Player // nil when no output is available
	Theme  *theme.Theme

	title      string
	trackNames []string
	notes      []widgets.RollNote
	events     []smf.MidiEvent

	mode     viewMode
	roll     widgets.Roll
	follow   bool
	eventTop int
	showHelp bool
	width    int
	height   int
	quitting bool
	status   string
}

type UpdateMsg struct{}

type frameMsg time.Time

// NewModel builds a viewer for doc. Track names are decoded with textEncoding.
func NewModel(title string, doc *smf.Document, player *sequencer.Player, th *theme.Theme, textEncoding string) Model {
	names := make([]string, doc.TrackCount())
	for i := range names {
		raw := doc.TrackName(i)
		name, err := smf.DecodeText(raw, textEncoding)
		if err != nil {
			debug.Log("tui", "track %d name: %v", i, err)
			name = raw
		}
		names[i] = name
	}

	pairs := sequencer.PairNotes(doc)
	notes := make([]widgets.RollNote, len(pairs))
	top := uint8(0)
	for i, n := range pairs {
		notes[i] = widgets.RollNote{
			Key:      n.Key,
			Channel:  n.Channel,
			Velocity: n.Velocity,
			Start:    n.Start,
			End:      n.End(),
		}
		top = max(top, n.Key)
	}
	if len(notes) == 0 {
		top = 72
	}

	ppq := uint32(max(doc.TicksPerQuarterNote(), 1))
	return Model{
		Doc:        doc,
		Player:     player,
		Theme:      th,
		title:      title,
		trackNames: names,
		notes:      notes,
		events:     doc.Events(),
		follow:     true,
		roll: widgets.Roll{
			Width:        64,
			Height:       24,
			TicksPerCell: max(ppq/4, 1),
			TopKey:       min(top+2, 127),
		},
		width:  80,
		height: 32,
	}
}

func ListenForUpdates(player *sequencer.Player) tea.Cmd {
	return func() tea.Msg {
		<-player.UpdateChan
		return UpdateMsg{}
	}
}

func nextFrame() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	if m.Player == nil {
		return nil
	}
	return tea.Batch(ListenForUpdates(m.Player), nextFrame())
}

func (m Model) playhead() (tick uint32, playing bool, tempo int) {
	if m.Player == nil {
		return 0, false, 0
	}
	return m.Player.State()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.roll.Width = max(msg.Width-6, 8)
		m.roll.Height = max(msg.Height-8, 4)

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Player)

	case frameMsg:
		m.followPlayhead()
		return m, nextFrame()
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		if m.Player != nil {
			m.Player.Stop()
		}
		return m, tea.Quit

	case " ", "p":
		if m.Player == nil {
			m.status = "no MIDI output"
			break
		}
		m.Player.Toggle()

	case "g", "home":
		if m.Player != nil {
			m.Player.Seek(0)
		}
		m.roll.StartTick = 0
		m.eventTop = 0

	case "+", "=":
		if m.Player != nil {
			_, _, tempo := m.Player.State()
			m.Player.SetTempo(tempo + 5)
		}

	case "-", "_":
		if m.Player != nil {
			_, _, tempo := m.Player.State()
			m.Player.SetTempo(tempo - 5)
		}

	case "tab":
		if m.mode == viewRoll {
			m.mode = viewEvents
		} else {
			m.mode = viewRoll
		}

	case "f":
		m.follow = !m.follow

	case "?":
		m.showHelp = !m.showHelp

	case "h", "left":
		m.follow = false
		step := m.roll.TicksPerCell * uint32(max(m.roll.Width/4, 1))
		if m.roll.StartTick > step {
			m.roll.StartTick -= step
		} else {
			m.roll.StartTick = 0
		}

	case "l", "right":
		m.follow = false
		m.roll.StartTick += m.roll.TicksPerCell * uint32(max(m.roll.Width/4, 1))

	case "k", "up":
		if m.mode == viewEvents {
			m.eventTop = max(m.eventTop-1, 0)
		} else if m.roll.TopKey < 127 {
			m.roll.TopKey++
		}

	case "j", "down":
		if m.mode == viewEvents {
			m.eventTop = min(m.eventTop+1, max(len(m.events)-1, 0))
		} else if int(m.roll.TopKey) >= m.roll.Height {
			m.roll.TopKey--
		}

	case "z":
		m.roll.TicksPerCell = max(m.roll.TicksPerCell/2, 1)

	case "x":
		m.roll.TicksPerCell *= 2

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		track := int(key[0] - '1')
		if m.Player != nil && track < m.Doc.TrackCount() {
			muted := !m.Player.Muted(track)
			m.Player.SetMuted(track, muted)
			m.status = fmt.Sprintf("track %d muted: %v", track+1, muted)
		}
	}

	return m, nil
}

// followPlayhead pages the roll so the playhead stays visible
func (m *Model) followPlayhead() {
	tick, playing, _ := m.playhead()
	if !m.follow || !playing || m.roll.TicksPerCell == 0 {
		return
	}
	span := m.roll.TicksPerCell * uint32(m.roll.Width)
	if tick < m.roll.StartTick || tick >= m.roll.StartTick+span {
		m.roll.StartTick = tick - tick%span
	}
	for m.eventTop+1 < len(m.events) && m.events[m.eventTop+1].AbsoluteTicks <= tick {
		m.eventTop++
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	tick, playing, tempo := m.playhead()
	playState := "STOP"
	if playing {
		playState = "PLAY"
	}
	ppq := uint32(max(m.Doc.TicksPerQuarterNote(), 1))

	header := headerStyle.Render(fmt.Sprintf("%s  fmt:%d trk:%d ppq:%d notes:%d  %s %3dbpm  beat:%d.%03d",
		m.title, m.Doc.Format(), m.Doc.TrackCount(), m.Doc.TicksPerQuarterNote(), len(m.notes),
		playState, tempo, tick/ppq+1, tick%ppq))

	var body string
	if m.showHelp {
		body = widgets.RenderKeyHelp(keySections)
	} else if m.mode == viewRoll {
		body = m.roll.View(m.Theme, m.notes, tick, sequencer.NoteName)
	} else {
		body = m.eventList(tick)
	}

	help := dimStyle.Render(widgets.RenderKeyLine([]widgets.KeyBinding{
		{Key: "space", Desc: "play"},
		{Key: "g", Desc: "start"},
		{Key: "+/-", Desc: "tempo"},
		{Key: "hjkl", Desc: "scroll"},
		{Key: "z/x", Desc: "zoom"},
		{Key: "1-9", Desc: "mute"},
		{Key: "tab", Desc: "view"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	}))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.trackLine())
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(help)
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}
	return b.String()
}

func (m Model) trackLine() string {
	dim := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fg := lipgloss.NewStyle().Foreground(m.Theme.FG())
	var parts []string
	for i, name := range m.trackNames {
		if name == "" {
			name = "-"
		}
		label := fmt.Sprintf("%d:%s", i+1, name)
		if m.Player != nil && m.Player.Muted(i) {
			parts = append(parts, dim.Render(label+"(m)"))
		} else {
			parts = append(parts, fg.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) eventList(tick uint32) string {
	rows := max(m.height-8, 4)
	cursor := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	var lines []string
	for i := m.eventTop; i < len(m.events) && len(lines) < rows; i++ {
		e := m.events[i]
		sym := m.Theme.Symbols.Off
		if e.NoteOn {
			sym = m.Theme.Symbols.On
		}
		line := fmt.Sprintf("%c %8d  trk %-2d ch %-2d %-4s vel %3d",
			sym, e.AbsoluteTicks, e.Track+1, e.Channel+1, sequencer.NoteName(e.Key), e.Velocity)
		style := lipgloss.NewStyle().Foreground(m.Theme.Channel(e.Channel))
		if e.AbsoluteTicks <= tick && (i+1 == len(m.events) || m.events[i+1].AbsoluteTicks > tick) {
			style = cursor
		}
		lines = append(lines, style.Render(line))
	}
	if len(lines) == 0 {
		return "(no note events)"
	}
	return strings.Join(lines, "\n")
}
