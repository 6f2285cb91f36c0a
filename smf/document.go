package smf

import "sort"

// Document is the result of a successful parse. It is never modified after
// construction; accessors return copies.
type Document struct {
	format     uint16
	trackCount int
	division   uint16
	events     []MidiEvent
	trackNames []string
}

func (d *Document) Format() int              { return int(d.format) }
func (d *Document) TrackCount() int          { return d.trackCount }
func (d *Document) TicksPerQuarterNote() int { return int(d.division) }

// Len returns the number of note events.
func (d *Document) Len() int { return len(d.events) }

// At returns the i-th event in playback order.
func (d *Document) At(i int) MidiEvent { return d.events[i] }

// Events returns a copy of all note events in playback order.
func (d *Document) Events() []MidiEvent {
	out := make([]MidiEvent, len(d.events))
	copy(out, d.events)
	return out
}

// TrackEvents returns a copy of the events belonging to one track.
func (d *Document) TrackEvents(track int) []MidiEvent {
	var out []MidiEvent
	for _, e := range d.events {
		if e.Track == track {
			out = append(out, e)
		}
	}
	return out
}

// TrackName returns the raw bytes of the first sequence/track name meta event
// found in the track, or "" if there was none. Use DecodeText to interpret
// legacy encodings.
func (d *Document) TrackName(track int) string {
	if track < 0 || track >= len(d.trackNames) {
		return ""
	}
	return d.trackNames[track]
}

// LastTick returns the absolute tick of the final event, or 0 for an empty document.
func (d *Document) LastTick() uint32 {
	if len(d.events) == 0 {
		return 0
	}
	return d.events[len(d.events)-1].AbsoluteTicks
}

// Channels returns the set of channels that carry note events, ascending.
func (d *Document) Channels() []uint8 {
	var seen [16]bool
	for _, e := range d.events {
		seen[e.Channel&0x0F] = true
	}
	var out []uint8
	for ch, ok := range seen {
		if ok {
			out = append(out, uint8(ch))
		}
	}
	return out
}

// assemble orders events by absolute tick. The sort is stable so events on the
// same tick keep their track and emission order.
func assemble(h header, events []MidiEvent, names []string) *Document {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].AbsoluteTicks < events[j].AbsoluteTicks
	})
	return &Document{
		format:     h.format,
		trackCount: int(h.trackCount),
		division:   h.division,
		events:     events,
		trackNames: names,
	}
}
