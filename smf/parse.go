package smf

import (
	"fmt"
	"io"
	"os"

	"smfplay/debug"
)

// expectedEvents sizes the initial event buffer.
const expectedEvents = 1024

// Parse reads r to the end and decodes it as a Standard MIDI File.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("smf: read: %w", err)
	}
	return ParseBytes(data)
}

// ParseFile opens and decodes the file at path. The file is closed on every
// return path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("smf: open: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		debug.Log("smf", "parse %s failed: %v", path, err)
		return nil, err
	}
	debug.Log("smf", "parsed %s: format=%d tracks=%d division=%d events=%d",
		path, doc.Format(), doc.TrackCount(), doc.TicksPerQuarterNote(), doc.Len())
	return doc, nil
}

// ParseBytes decodes a complete Standard MIDI File held in memory. On failure
// no partial document is returned; the error is a *ParseError.
func ParseBytes(data []byte) (*Document, error) {
	r := NewReader(data)

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	events := make([]MidiEvent, 0, expectedEvents)
	names := make([]string, h.trackCount)
	for i := 0; i < int(h.trackCount); i++ {
		td := newTrackDecoder(r, i, events)
		if err := td.decode(); err != nil {
			return nil, err
		}
		events = td.events
		names[i] = td.name
	}

	return assemble(h, events, names), nil
}
