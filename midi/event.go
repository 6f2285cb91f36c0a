package midi

import "smfplay/smf"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Controller numbers used when silencing a port
const (
	CCAllSoundOff uint8 = 120
	CCAllNotesOff uint8 = 123
)

// Event represents a MIDI event scheduled for playback
type Event struct {
	Tick     uint32 // absolute tick in the source document
	Type     uint8  // NoteOn, NoteOff, CC
	Channel  uint8  // 0-15
	Note     uint8  // key, or controller number for CC
	Velocity uint8  // velocity, or controller value for CC
	Track    int
}

// FromSMF converts a decoded note event into a playback event
func FromSMF(e smf.MidiEvent) Event {
	typ := NoteOff
	if e.NoteOn {
		typ = NoteOn
	}
	return Event{
		Tick:     e.AbsoluteTicks,
		Type:     typ,
		Channel:  e.Channel,
		Note:     e.Key,
		Velocity: e.Velocity,
		Track:    e.Track,
	}
}

// FromDocument converts every note event of doc, preserving its order
func FromDocument(doc *smf.Document) []Event {
	out := make([]Event, doc.Len())
	for i := range out {
		out[i] = FromSMF(doc.At(i))
	}
	return out
}
