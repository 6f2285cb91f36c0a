package smf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestParseEndToEnd(t *testing.T) {
	data := file(0, 480, trackChunk(
		ev(0, 0x90, 60, 100),
		ev(480, 60, 0), // running status, velocity 0
		endOfTrack(0),
	))

	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Format() != 0 || doc.TrackCount() != 1 || doc.TicksPerQuarterNote() != 480 {
		t.Fatalf("header = %d/%d/%d", doc.Format(), doc.TrackCount(), doc.TicksPerQuarterNote())
	}
	want := []MidiEvent{
		{Track: 0, Channel: 0, NoteOn: true, DeltaTicks: 0, AbsoluteTicks: 0, Key: 60, Velocity: 100},
		{Track: 0, Channel: 0, NoteOn: false, DeltaTicks: 480, AbsoluteTicks: 480, Key: 60, Velocity: 0},
	}
	if got := doc.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events:\n got %v\nwant %v", got, want)
	}
	if doc.LastTick() != 480 {
		t.Errorf("LastTick = %d", doc.LastTick())
	}
}

func TestRunningStatusReuse(t *testing.T) {
	data := file(0, 96, trackChunk(
		ev(0, 0x91, 60, 100),
		ev(10, 64, 100),
		endOfTrack(0),
	))
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 2 {
		t.Fatalf("got %d events", doc.Len())
	}
	for i, key := range []uint8{60, 64} {
		e := doc.At(i)
		if !e.NoteOn || e.Channel != 1 || e.Key != key || e.Velocity != 100 {
			t.Errorf("event %d = %+v", i, e)
		}
	}
	if doc.At(1).AbsoluteTicks != 10 {
		t.Errorf("second event tick = %d", doc.At(1).AbsoluteTicks)
	}
}

func TestRunningStatusSurvivesNonNoteChannelEvents(t *testing.T) {
	data := file(0, 96, trackChunk(
		ev(0, 0xB0, 7, 100), // controller sets running status
		ev(0, 10, 64),       // reused controller
		ev(0, 0x92, 40, 90),
		ev(5, 41, 91),
		ev(0, 0xC3, 5), // program change, 1 data byte
		ev(0, 6),       // reused program change
		ev(0, 0xE0, 0, 64),
		ev(0, 0xD1, 30),
		ev(0, 0xA1, 40, 10),
		endOfTrack(0),
	))
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 2 || doc.At(1).Key != 41 || doc.At(1).Channel != 2 {
		t.Fatalf("events = %v", doc.Events())
	}
}

func TestNoteOnZeroVelocityIsNoteOff(t *testing.T) {
	data := file(0, 96, trackChunk(
		ev(7, 0x95, 72, 0),
		ev(1, 0x85, 72, 64),
		endOfTrack(0),
	))
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	first := doc.At(0)
	if first.NoteOn || first.Key != 72 || first.Channel != 5 || first.AbsoluteTicks != 7 {
		t.Errorf("note on vel 0 = %+v", first)
	}
	second := doc.At(1)
	if second.NoteOn || second.Velocity != 64 || second.AbsoluteTicks != 8 {
		t.Errorf("note off = %+v", second)
	}
}

func TestRunningStatusWithoutPredecessor(t *testing.T) {
	data := file(0, 96, trackChunk(ev(0, 60, 100), endOfTrack(0)))
	_, err := ParseBytes(data)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("got %v", err)
	}
}

func TestRunningStatusClearedBySysExAndMeta(t *testing.T) {
	for _, clear := range [][]byte{
		{0xF0, 0x02, 0x43, 0xF7},
		{0xF7, 0x01, 0x00},
		{0xFF, 0x01, 0x00},
	} {
		data := file(0, 96, trackChunk(
			ev(0, 0x90, 60, 100),
			ev(0, clear...),
			ev(0, 60, 0),
			endOfTrack(0),
		))
		if _, err := ParseBytes(data); !errors.Is(err, ErrProtocolViolation) {
			t.Errorf("after % x: got %v, want protocol violation", clear, err)
		}
	}
}

func TestRunningStatusResetPerTrack(t *testing.T) {
	data := file(1, 96,
		trackChunk(ev(0, 0x90, 60, 100), endOfTrack(0)),
		trackChunk(ev(0, 62, 100), endOfTrack(0)),
	)
	_, err := ParseBytes(data)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ProtocolViolation || pe.Track != 1 {
		t.Fatalf("got %v", err)
	}
}

func TestSysExSkipped(t *testing.T) {
	data := file(0, 96, trackChunk(
		ev(0, 0xF0, 0x05, 0x7E, 0x7F, 0x09, 0x01, 0xF7),
		ev(0, 0xF7, 0x81, 0x00), // escape with 128-byte payload
		bytes.Repeat([]byte{0x11}, 128),
		ev(3, 0x90, 50, 50),
		endOfTrack(0),
	))
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 1 || doc.At(0).AbsoluteTicks != 3 {
		t.Fatalf("events = %v", doc.Events())
	}
}

func TestMetaEvents(t *testing.T) {
	valid := [][]byte{
		{0xFF, 0x00, 0x02, 0x00, 0x01},
		{0xFF, 0x01, 0x03, 'a', 'b', 'c'},
		{0xFF, 0x02, 0x00},
		{0xFF, 0x04, 0x01, 'x'},
		{0xFF, 0x05, 0x01, 'x'},
		{0xFF, 0x06, 0x01, 'x'},
		{0xFF, 0x07, 0x01, 'x'},
		{0xFF, 0x08, 0x01, 'x'},
		{0xFF, 0x09, 0x01, 'x'},
		{0xFF, 0x20, 0x01, 0x00},
		{0xFF, 0x21, 0x01, 0x00},
		{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20},
		{0xFF, 0x54, 0x05, 0x60, 0x00, 0x00, 0x00, 0x00},
		{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08},
		{0xFF, 0x59, 0x02, 0x00, 0x00},
		{0xFF, 0x7F, 0x03, 0x00, 0x00, 0x41},
	}
	for _, meta := range valid {
		data := file(0, 96, trackChunk(ev(0, meta...), ev(0, 0x90, 1, 1), endOfTrack(0)))
		doc, err := ParseBytes(data)
		if err != nil {
			t.Errorf("% x: %v", meta, err)
			continue
		}
		if doc.Len() != 1 {
			t.Errorf("% x: %d events", meta, doc.Len())
		}
	}
}

func TestMetaEventWrongSize(t *testing.T) {
	bad := [][]byte{
		{0xFF, 0x00, 0x01, 0x00},
		{0xFF, 0x20, 0x02, 0x00, 0x00},
		{0xFF, 0x21, 0x00},
		{0xFF, 0x51, 0x02, 0x07, 0xA1},
		{0xFF, 0x54, 0x04, 0x00, 0x00, 0x00, 0x00},
		{0xFF, 0x58, 0x03, 0x04, 0x02, 0x18},
		{0xFF, 0x59, 0x01, 0x00},
	}
	for _, meta := range bad {
		data := file(0, 96, trackChunk(ev(0, meta...), endOfTrack(0)))
		if _, err := ParseBytes(data); !errors.Is(err, ErrProtocolViolation) {
			t.Errorf("% x: got %v, want protocol violation", meta, err)
		}
	}
}

func TestEndOfTrackWithPayload(t *testing.T) {
	track := trackChunk(ev(0, 0xFF, 0x2F, 0x01, 0x00))
	data := file(0, 96, track)
	_, err := ParseBytes(data)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ProtocolViolation {
		t.Fatalf("got %v", err)
	}
	// header 14 + chunk header 8 + delta 1 + FF 2F 01
	if want := 14 + 8 + 4; pe.Offset != want {
		t.Errorf("offset = %d, want %d (cursor must stop before the payload)", pe.Offset, want)
	}
}

func TestUnknownMetaAndStatus(t *testing.T) {
	for _, raw := range [][]byte{
		{0xFF, 0x60, 0x00},
		{0xF1, 0x00},
		{0xF8},
		{0xFE},
	} {
		data := file(0, 96, trackChunk(ev(0, raw...), endOfTrack(0)))
		if _, err := ParseBytes(data); !errors.Is(err, ErrProtocolViolation) {
			t.Errorf("% x: got %v, want protocol violation", raw, err)
		}
	}
}

func TestStatusByteInDataPosition(t *testing.T) {
	data := file(0, 96, trackChunk(ev(0, 0x90, 0x90, 0x40), endOfTrack(0)))
	if _, err := ParseBytes(data); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("got %v", err)
	}
}

func TestHeaderErrors(t *testing.T) {
	valid := headerChunk(0, 1, 96)
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad id", append([]byte("XYZh"), valid[4:]...), ErrInvalidFormat},
		{"bad length", append(append([]byte("MThd"), 0, 0, 0, 7), valid[8:]...), ErrInvalidFormat},
		{"format 2", headerChunk(2, 1, 96), ErrUnsupported},
		{"format 3", headerChunk(3, 1, 96), ErrUnsupported},
		{"format 0xFFFF", headerChunk(0xFFFF, 1, 96), ErrUnsupported},
		{"no tracks", headerChunk(1, 0, 96), ErrInvalidFormat},
		{"format 0 two tracks", headerChunk(0, 2, 96), ErrInvalidFormat},
		{"short header", valid[:10], ErrTruncatedInput},
		{"empty", nil, ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			var pe *ParseError
			if errors.As(err, &pe) && pe.Track != -1 {
				t.Errorf("header error attributed to track %d", pe.Track)
			}
		})
	}
}

func TestTrackChunkErrors(t *testing.T) {
	good := trackChunk(ev(0, 0x90, 60, 100), endOfTrack(0))

	badID := append([]byte("MTrx"), good[4:]...)
	if _, err := ParseBytes(file(0, 96, badID)); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("bad track id: %v", err)
	}

	missingEOT := trackChunk(ev(0, 0x90, 60, 100))
	if _, err := ParseBytes(file(0, 96, missingEOT)); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("missing end of track: %v", err)
	}

	// Header declares two tracks but only one is present.
	data := append(headerChunk(1, 2, 96), good...)
	if _, err := ParseBytes(data); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("missing track: %v", err)
	}

	longDelta := trackChunk(ev(0, 0x90, 60, 100), []byte{0xff, 0xff, 0xff, 0xff, 0x7f})
	if _, err := ParseBytes(file(0, 96, longDelta)); !errors.Is(err, ErrMalformedVarint) {
		t.Errorf("five byte delta: %v", err)
	}
}

func TestDeclaredTrackLengthIgnored(t *testing.T) {
	track := trackChunk(ev(0, 0x90, 60, 100), endOfTrack(10))
	track[7] = 0x02 // wrong length
	doc, err := ParseBytes(file(0, 96, track))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 1 {
		t.Fatalf("events = %v", doc.Events())
	}
}

func TestAbsoluteTickOverflow(t *testing.T) {
	var events [][]byte
	for i := 0; i < 16; i++ {
		events = append(events, ev(0x0FFFFFFF, 0x90, 60, 100))
	}
	fits := file(0, 96, trackChunk(append(events, endOfTrack(0))...))
	doc, err := ParseBytes(fits)
	if err != nil {
		t.Fatalf("16 maximal deltas: %v", err)
	}
	if last := doc.At(doc.Len() - 1).AbsoluteTicks; last != 16*0x0FFFFFFF {
		t.Errorf("last tick = %d", last)
	}

	events = append(events, ev(0x0FFFFFFF, 0x90, 60, 100), endOfTrack(0))
	_, err = ParseBytes(file(0, 96, trackChunk(events...)))
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("got %v, want protocol violation", err)
	}
	var pe *ParseError
	if errors.As(err, &pe) && (pe.Offset != 22+16*7+4 || pe.Track != 0) {
		t.Errorf("offset %d track %d", pe.Offset, pe.Track)
	}
}

func TestMultiTrackStableOrder(t *testing.T) {
	data := file(1, 480,
		trackChunk(
			ev(0, 0xFF, 0x03, 0x05, 'L', 'e', 'a', 'd', '1'),
			ev(0, 0xFF, 0x03, 0x05, 'L', 'e', 'a', 'd', '2'),
			ev(0, 0x90, 60, 100),
			ev(0, 0x90, 64, 100),
			ev(480, 0x80, 60, 0),
			endOfTrack(0),
		),
		trackChunk(
			ev(0, 0x91, 36, 90),
			ev(240, 0x81, 36, 0),
			ev(240, 0x91, 38, 90),
			endOfTrack(0),
		),
		trackChunk(
			ev(480, 0x92, 48, 70),
			endOfTrack(0),
		),
	)
	doc, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}

	type key struct {
		track int
		tick  uint32
		note  uint8
	}
	var got []key
	for _, e := range doc.Events() {
		got = append(got, key{e.Track, e.AbsoluteTicks, e.Key})
	}
	want := []key{
		{0, 0, 60}, {0, 0, 64}, {1, 0, 36},
		{1, 240, 36},
		{0, 480, 60}, {1, 480, 38}, {2, 480, 48},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order:\n got %v\nwant %v", got, want)
	}

	events := doc.Events()
	if !sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].AbsoluteTicks < events[j].AbsoluteTicks
	}) {
		t.Error("events not sorted")
	}

	if doc.TrackName(0) != "Lead1" || doc.TrackName(1) != "" || doc.TrackName(9) != "" {
		t.Errorf("track names = %q %q", doc.TrackName(0), doc.TrackName(1))
	}
	if got := doc.Channels(); !reflect.DeepEqual(got, []uint8{0, 1, 2}) {
		t.Errorf("channels = %v", got)
	}
	if n := len(doc.TrackEvents(1)); n != 3 {
		t.Errorf("track 1 has %d events", n)
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	doc, err := ParseBytes(file(0, 96, trackChunk(ev(0, 0x90, 60, 100), endOfTrack(0))))
	if err != nil {
		t.Fatal(err)
	}
	events := doc.Events()
	events[0].Key = 1
	if doc.At(0).Key != 60 {
		t.Fatal("document mutated through Events()")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	data := file(0, 96, trackChunk(ev(0, 0x90, 60, 100), endOfTrack(0)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 1 {
		t.Fatalf("events = %v", doc.Events())
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.mid")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestParseConcurrent(t *testing.T) {
	data := file(1, 96,
		trackChunk(ev(0, 0x90, 60, 100), ev(10, 60, 0), endOfTrack(0)),
		trackChunk(ev(5, 0x91, 62, 100), endOfTrack(0)),
	)
	done := make(chan error, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			doc, err := Parse(bytes.NewReader(data))
			if err == nil && doc.Len() != 3 {
				err = errors.New("wrong event count")
			}
			done <- err
		}()
	}
	for i := 0; i < cap(done); i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	err := newError(Unsupported, 8, "format %d", 2)
	if KindOf(err) != Unsupported {
		t.Fatal("KindOf")
	}
	if got := err.Error(); got != "smf: unsupported at offset 8: format 2" {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(errors.New("other")) != 0 {
		t.Error("KindOf on foreign error")
	}
	if errors.Is(err, ErrInvalidFormat) {
		t.Error("matched wrong sentinel")
	}
}
