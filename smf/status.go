package smf

// Status bytes. Values are fixed by the MIDI and SMF specifications.
const (
	maxDataByte uint8 = 0x7F // 0x00 - 0x7F are data bytes

	StatusNoteOff         uint8 = 0x80 // 0x80 - 0x8F
	StatusNoteOn          uint8 = 0x90 // 0x90 - 0x9F
	StatusPolyPressure    uint8 = 0xA0 // 0xA0 - 0xAF
	StatusController      uint8 = 0xB0 // 0xB0 - 0xBF
	StatusProgramChange   uint8 = 0xC0 // 0xC0 - 0xCF
	StatusChannelPressure uint8 = 0xD0 // 0xD0 - 0xDF
	StatusPitchBend       uint8 = 0xE0 // 0xE0 - 0xEF
	StatusSysEx           uint8 = 0xF0
	StatusSysExEscape     uint8 = 0xF7
	StatusMeta            uint8 = 0xFF
)

// Meta event types.
const (
	MetaSequenceNumber    uint8 = 0x00
	MetaText              uint8 = 0x01
	MetaCopyright         uint8 = 0x02
	MetaTrackName         uint8 = 0x03
	MetaInstrumentName    uint8 = 0x04
	MetaLyric             uint8 = 0x05
	MetaMarker            uint8 = 0x06
	MetaCuePoint          uint8 = 0x07
	MetaProgramName       uint8 = 0x08
	MetaDeviceName        uint8 = 0x09
	MetaChannelPrefix     uint8 = 0x20
	MetaPort              uint8 = 0x21
	MetaEndOfTrack        uint8 = 0x2F
	MetaTempo             uint8 = 0x51
	MetaSMPTEOffset       uint8 = 0x54
	MetaTimeSignature     uint8 = 0x58
	MetaKeySignature      uint8 = 0x59
	MetaSequencerSpecific uint8 = 0x7F
)

// metaSizes holds the required payload size of fixed-length meta events.
var metaSizes = map[uint8]uint32{
	MetaSequenceNumber: 2,
	MetaChannelPrefix:  1,
	MetaPort:           1,
	MetaEndOfTrack:     0,
	MetaTempo:          3,
	MetaSMPTEOffset:    5,
	MetaTimeSignature:  4,
	MetaKeySignature:   2,
}

// variableMeta lists meta events whose payload length is free.
var variableMeta = map[uint8]bool{
	MetaText:              true,
	MetaCopyright:         true,
	MetaTrackName:         true,
	MetaInstrumentName:    true,
	MetaLyric:             true,
	MetaMarker:            true,
	MetaCuePoint:          true,
	MetaProgramName:       true,
	MetaDeviceName:        true,
	MetaSequencerSpecific: true,
}

var metaNames = map[uint8]string{
	MetaSequenceNumber:    "sequence number",
	MetaText:              "text",
	MetaCopyright:         "copyright notice",
	MetaTrackName:         "track name",
	MetaInstrumentName:    "instrument name",
	MetaLyric:             "lyric",
	MetaMarker:            "marker",
	MetaCuePoint:          "cue point",
	MetaProgramName:       "program name",
	MetaDeviceName:        "device name",
	MetaChannelPrefix:     "channel prefix",
	MetaPort:              "midi port",
	MetaEndOfTrack:        "end of track",
	MetaTempo:             "tempo",
	MetaSMPTEOffset:       "smpte offset",
	MetaTimeSignature:     "time signature",
	MetaKeySignature:      "key signature",
	MetaSequencerSpecific: "sequencer specific",
}

// dataLen returns the number of data bytes following a channel voice status.
func dataLen(status uint8) int {
	switch status & 0xF0 {
	case StatusProgramChange, StatusChannelPressure:
		return 1
	default:
		return 2
	}
}

func isChannelVoice(status uint8) bool {
	return status >= StatusNoteOff && status < StatusSysEx
}
