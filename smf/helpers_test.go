package smf

import "encoding/binary"

// encodeVarint is the inverse of Reader.ReadVarint for values up to 0x0FFFFFFF.
func encodeVarint(v uint32) []byte {
	out := []byte{byte(v & 0x7f)}
	for v >>= 7; v > 0; v >>= 7 {
		out = append([]byte{byte(v&0x7f) | 0x80}, out...)
	}
	return out
}

func headerChunk(format, tracks, division uint16) []byte {
	b := []byte("MThd")
	b = binary.BigEndian.AppendUint32(b, 6)
	b = binary.BigEndian.AppendUint16(b, format)
	b = binary.BigEndian.AppendUint16(b, tracks)
	b = binary.BigEndian.AppendUint16(b, division)
	return b
}

// trackChunk wraps raw event bytes in an MTrk chunk with a correct length.
func trackChunk(events ...[]byte) []byte {
	var body []byte
	for _, e := range events {
		body = append(body, e...)
	}
	b := []byte("MTrk")
	b = binary.BigEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}

// ev joins a delta time with the bytes that follow it.
func ev(delta uint32, data ...byte) []byte {
	return append(encodeVarint(delta), data...)
}

func endOfTrack(delta uint32) []byte {
	return ev(delta, 0xFF, 0x2F, 0x00)
}

func file(format, division uint16, tracks ...[]byte) []byte {
	b := headerChunk(format, uint16(len(tracks)), division)
	for _, t := range tracks {
		b = append(b, t...)
	}
	return b
}
