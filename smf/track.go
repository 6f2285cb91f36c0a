package smf

import (
	"errors"
	"math"
)

// trackDecoder decodes one MTrk chunk. Running status is scoped to a single
// decoder, so every track starts without one.
type trackDecoder struct {
	r       *Reader
	index   int
	running uint8 // last channel voice status, 0 when none
	ticks   uint64 // wider than MidiEvent ticks so overflow is detectable
	events  []MidiEvent
	name    string
	named   bool
}

func newTrackDecoder(r *Reader, index int, events []MidiEvent) *trackDecoder {
	return &trackDecoder{r: r, index: index, events: events}
}

// decode reads the chunk header and then events until end of track. The
// declared chunk length is not used to bound the loop; the end-of-track meta
// event is authoritative.
func (d *trackDecoder) decode() error {
	if err := d.decodeChunk(); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Track = d.index
		}
		return err
	}
	return nil
}

func (d *trackDecoder) decodeChunk() error {
	r := d.r
	id, err := r.ReadString(4)
	if err != nil {
		return err
	}
	if id != trackChunkID {
		return newError(InvalidFormat, r.Offset()-4, "track chunk id %q, want %q", id, trackChunkID)
	}
	if _, err := r.ReadUint32(); err != nil {
		return err
	}
	r.MarkTrack()

	for {
		done, err := d.next()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// next decodes a single delta-time + event pair. It reports true once the
// end-of-track meta event has been consumed.
func (d *trackDecoder) next() (bool, error) {
	r := d.r

	delta, err := r.ReadVarint()
	if err != nil {
		return false, err
	}
	d.ticks += uint64(delta)
	if d.ticks > math.MaxUint32 {
		return false, newError(ProtocolViolation, r.Offset(), "absolute tick overflow")
	}

	status, err := d.readStatus()
	if err != nil {
		return false, err
	}

	switch {
	case isChannelVoice(status):
		return false, d.channelEvent(status, delta)
	case status == StatusSysEx || status == StatusSysExEscape:
		size, err := r.ReadVarint()
		if err != nil {
			return false, err
		}
		return false, r.Skip(int(size))
	case status == StatusMeta:
		return d.metaEvent()
	}
	return false, newError(ProtocolViolation, r.Offset()-1, "unknown event status 0x%02X", status)
}

// readStatus resolves the status of the next event. A data byte in status
// position reuses the running status and is left unread so it becomes the
// first data byte of the event.
func (d *trackDecoder) readStatus() (uint8, error) {
	r := d.r
	b, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if b <= maxDataByte {
		if d.running == 0 {
			return 0, newError(ProtocolViolation, r.Offset(), "running status without a previous channel event")
		}
		return d.running, nil
	}
	if err := r.Skip(1); err != nil {
		return 0, err
	}
	switch {
	case isChannelVoice(b):
		d.running = b
	case b == StatusSysEx, b == StatusSysExEscape, b == StatusMeta:
		d.running = 0
	}
	return b, nil
}

func (d *trackDecoder) channelEvent(status uint8, delta uint32) error {
	r := d.r
	kind := status & 0xF0
	if kind != StatusNoteOff && kind != StatusNoteOn {
		return r.Skip(dataLen(status))
	}

	key, err := d.dataByte()
	if err != nil {
		return err
	}
	velocity, err := d.dataByte()
	if err != nil {
		return err
	}
	d.events = append(d.events, MidiEvent{
		Track:         d.index,
		Channel:       status & 0x0F,
		NoteOn:        kind == StatusNoteOn && velocity > 0,
		DeltaTicks:    delta,
		AbsoluteTicks: uint32(d.ticks),
		Key:           key,
		Velocity:      velocity,
	})
	return nil
}

func (d *trackDecoder) dataByte() (uint8, error) {
	b, err := d.r.ReadUint8()
	if err != nil {
		return 0, err
	}
	if b > maxDataByte {
		return 0, newError(ProtocolViolation, d.r.Offset()-1, "status byte 0x%02X where data byte expected", b)
	}
	return b, nil
}

func (d *trackDecoder) metaEvent() (bool, error) {
	r := d.r
	typ, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	size, err := r.ReadVarint()
	if err != nil {
		return false, err
	}

	if want, ok := metaSizes[typ]; ok {
		if size != want {
			return false, newError(ProtocolViolation, r.Offset(), "%s meta event length %d, want %d", metaNames[typ], size, want)
		}
		if typ == MetaEndOfTrack {
			return true, nil
		}
		return false, r.Skip(int(size))
	}
	if !variableMeta[typ] {
		return false, newError(ProtocolViolation, r.Offset(), "unknown meta event type 0x%02X", typ)
	}
	if typ == MetaTrackName && !d.named {
		name, err := r.ReadString(int(size))
		if err != nil {
			return false, err
		}
		d.name, d.named = name, true
		return false, nil
	}
	return false, r.Skip(int(size))
}
