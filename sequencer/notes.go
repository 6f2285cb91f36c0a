package sequencer

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"smfplay/smf"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the human-readable version of a key, with middle C as C4.
func NoteName(key uint8) string {
	octave := int(key)/12 - 1
	return noteNames[int(key)%12] + strconv.Itoa(octave)
}

// Note is a complete note: a note on matched with its note off.
type Note struct {
	Track    int
	Channel  uint8
	Key      uint8
	Velocity uint8
	Start    uint32 // absolute ticks
	Duration uint32 // ticks; 0 if the note was never released
}

// End returns the tick at which the note is released.
func (n Note) End() uint32 {
	return n.Start + n.Duration
}

type noteKey struct {
	track   int
	channel uint8
	key     uint8
}

// PairNotes groups the note on and note off events of doc into notes, in
// order of their start. Re-triggered notes, note offs without a sounding note
// and notes never released are reported as warnings.
func PairNotes(doc *smf.Document) []Note {
	var all []Note
	active := make(map[noteKey]int)

	for i := 0; i < doc.Len(); i++ {
		e := doc.At(i)
		k := noteKey{e.Track, e.Channel, e.Key}
		if e.NoteOn {
			if _, ok := active[k]; ok {
				logrus.Warnf("note double pressed: %s ch=%d track=%d tick=%d", NoteName(e.Key), e.Channel, e.Track, e.AbsoluteTicks)
				continue
			}
			active[k] = len(all)
			all = append(all, Note{
				Track:    e.Track,
				Channel:  e.Channel,
				Key:      e.Key,
				Velocity: e.Velocity,
				Start:    e.AbsoluteTicks,
			})
			continue
		}

		idx, ok := active[k]
		if !ok {
			logrus.Warnf("note off for unpressed note: %s ch=%d track=%d tick=%d", NoteName(e.Key), e.Channel, e.Track, e.AbsoluteTicks)
			continue
		}
		delete(active, k)
		all[idx].Duration = e.AbsoluteTicks - all[idx].Start
	}

	// Report in start order, not map order
	for i, n := range all {
		if idx, ok := active[noteKey{n.Track, n.Channel, n.Key}]; ok && idx == i {
			logrus.Warnf("missing note off for note: %s ch=%d track=%d tick=%d", NoteName(n.Key), n.Channel, n.Track, n.Start)
		}
	}
	return all
}
