package smf

import "fmt"

// MidiEvent is a decoded note on or note off. A note on with velocity 0 is
// reported as a note off, so NoteOn is true only for sounding notes.
type MidiEvent struct {
	Track         int
	Channel       uint8
	NoteOn        bool
	DeltaTicks    uint32 // ticks since the previous event of any kind in the same track
	AbsoluteTicks uint32 // ticks since the start of the track
	Key           uint8
	Velocity      uint8
}

func (e MidiEvent) String() string {
	kind := "off"
	if e.NoteOn {
		kind = "on "
	}
	return fmt.Sprintf("%8d trk=%-2d ch=%-2d note %s key=%-3d vel=%d",
		e.AbsoluteTicks, e.Track, e.Channel, kind, e.Key, e.Velocity)
}
