package sequencer

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"smfplay/config"
	"smfplay/debug"
	"smfplay/midi"
	"smfplay/smf"
)

// Sink receives playback events. *midi.Output implements it.
type Sink interface {
	Send(evt midi.Event) error
	Silence() error
}

// Player streams a parsed document to a Sink at a fixed tempo
type Player struct {
	events []midi.Event
	out    Sink

	mu      sync.RWMutex
	clock   Clock
	playing bool
	pos     int // index of the next event to send
	loop    bool
	hold    bool // keep Run alive after the last event
	muted   map[int]bool // by track
	now     func() time.Time

	interruptChan chan struct{} // wake the dispatch loop (transport changed)
	done          chan struct{}

	// Notify UI of updates
	UpdateChan chan struct{}
}

// NewPlayer prepares doc for playback on out at tempo BPM
func NewPlayer(doc *smf.Document, out Sink, tempo int) *Player {
	return &Player{
		events:        midi.FromDocument(doc),
		out:           out,
		clock:         Clock{Tempo: config.ClampTempo(tempo), PPQ: doc.TicksPerQuarterNote()},
		muted:         make(map[int]bool),
		now:           time.Now,
		interruptChan: make(chan struct{}, 1),
		done:          make(chan struct{}),
		UpdateChan:    make(chan struct{}, 1),
	}
}

// SetLoop makes playback restart from tick 0 after the last event
func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	p.loop = loop
	p.mu.Unlock()
}

// SetHold keeps Run alive when playback reaches the end; the playhead
// returns to tick 0 and waits for Play
func (p *Player) SetHold(hold bool) {
	p.mu.Lock()
	p.hold = hold
	p.mu.Unlock()
}

// Play starts or resumes playback from the current position
func (p *Player) Play() {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.clock = p.clock.Rebase(p.now(), p.clock.Origin)
	p.mu.Unlock()

	p.interrupt()
}

// Stop pauses playback and silences the output
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	tick := p.clock.TimeToTick(p.now())
	p.playing = false
	p.clock = p.clock.Rebase(p.now(), tick)
	p.mu.Unlock()

	p.silence()
	p.interrupt()
}

// Toggle switches between Play and Stop
func (p *Player) Toggle() {
	if _, playing, _ := p.State(); playing {
		p.Stop()
	} else {
		p.Play()
	}
}

// Seek moves the playhead to tick
func (p *Player) Seek(tick uint32) {
	p.mu.Lock()
	p.pos = sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Tick >= tick
	})
	p.clock = p.clock.Rebase(p.now(), tick)
	playing := p.playing
	p.mu.Unlock()

	if playing {
		p.silence()
	}
	p.interrupt()
}

// SetTempo changes the playback BPM without moving the playhead
func (p *Player) SetTempo(bpm int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	tick := p.clock.Origin
	if p.playing {
		tick = p.clock.TimeToTick(now)
	}
	p.clock.Tempo = config.ClampTempo(bpm)
	p.clock = p.clock.Rebase(now, tick)
	p.interrupt()
}

// SetMuted mutes or unmutes a source track
func (p *Player) SetMuted(track int, muted bool) {
	p.mu.Lock()
	p.muted[track] = muted
	p.mu.Unlock()
}

// Muted reports whether track is muted
func (p *Player) Muted(track int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.muted[track]
}

// State returns the current tick, transport state and tempo
func (p *Player) State() (tick uint32, playing bool, tempo int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.playing {
		tick = p.clock.TimeToTick(p.now())
	} else {
		tick = p.clock.Origin
	}
	return tick, p.playing, p.clock.Tempo
}

// Done is closed when Run returns
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// interrupt signals the dispatch loop to recalculate
func (p *Player) interrupt() {
	select {
	case p.interruptChan <- struct{}{}:
	default:
	}
}

func (p *Player) notify() {
	select {
	case p.UpdateChan <- struct{}{}:
	default:
	}
}

func (p *Player) silence() {
	if err := p.out.Silence(); err != nil {
		debug.Log("dispatch", "silence failed: %v", err)
	}
}

// Run is the dispatch loop (blocking - run in goroutine). It returns when ctx
// is cancelled, or after the last event when not looping.
func (p *Player) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.done)

	for {
		p.mu.RLock()
		playing := p.playing
		pos := p.pos
		var next midi.Event
		if pos < len(p.events) {
			next = p.events[pos]
		}
		wait := time.Duration(0)
		if playing && pos < len(p.events) {
			wait = p.clock.TickToTime(next.Tick).Sub(p.now())
		}
		p.mu.RUnlock()

		if playing && pos >= len(p.events) {
			over, exit := p.finish()
			if over {
				p.silence()
				p.notify()
			}
			if exit {
				return
			}
			continue
		}

		if !playing {
			select {
			case <-ctx.Done():
				return
			case <-p.interruptChan:
			}
			continue
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				p.silence()
				return
			case <-p.interruptChan:
				// Transport changed, recalculate
				timer.Stop()
				continue
			case <-timer.C:
				// Ready
			}
		}

		if !p.advance(pos) {
			continue
		}
		if p.Muted(next.Track) && next.Type == midi.NoteOn {
			continue
		}
		if err := p.out.Send(next); err != nil {
			debug.Log("dispatch", "send failed: %v", err)
		}
		debug.LogEvery(64, "dispatch", "tick=%d track=%d ch=%d type=0x%02X note=%d", next.Tick, next.Track, next.Channel, next.Type, next.Note)
		p.notify()
	}
}

// advance consumes the event at pos unless the playhead moved meanwhile
func (p *Player) advance(pos int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.pos != pos {
		return false
	}
	p.pos++
	return true
}

// finish handles the end of the event list. over reports that playback
// stopped; exit that Run should return.
func (p *Player) finish() (over, exit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos < len(p.events) {
		return false, false
	}
	p.pos = 0
	p.clock = p.clock.Rebase(p.now(), 0)
	if p.loop && len(p.events) > 0 {
		return false, false
	}
	p.playing = false
	return true, !p.hold
}
