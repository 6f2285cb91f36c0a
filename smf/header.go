package smf

const (
	headerChunkID = "MThd"
	trackChunkID  = "MTrk"
	headerLength  = 6
)

type header struct {
	format     uint16
	trackCount uint16
	division   uint16
}

// readHeader validates the MThd chunk and leaves the cursor at the first track.
func readHeader(r *Reader) (header, error) {
	var h header

	id, err := r.ReadString(4)
	if err != nil {
		return h, err
	}
	if id != headerChunkID {
		return h, newError(InvalidFormat, r.Offset()-4, "header chunk id %q, want %q", id, headerChunkID)
	}

	size, err := r.ReadUint32()
	if err != nil {
		return h, err
	}
	if size != headerLength {
		return h, newError(InvalidFormat, r.Offset()-4, "header length %d, want %d", size, headerLength)
	}

	if h.format, err = r.ReadUint16(); err != nil {
		return h, err
	}
	switch h.format {
	case 0, 1:
	case 2:
		return h, newError(Unsupported, r.Offset()-2, "format 2 (asynchronous sequences) not supported")
	default:
		return h, newError(Unsupported, r.Offset()-2, "format %d not supported", h.format)
	}

	if h.trackCount, err = r.ReadUint16(); err != nil {
		return h, err
	}
	if h.trackCount == 0 {
		return h, newError(InvalidFormat, r.Offset()-2, "no tracks declared")
	}
	if h.format == 0 && h.trackCount != 1 {
		return h, newError(InvalidFormat, r.Offset()-2, "format 0 requires exactly one track, got %d", h.trackCount)
	}

	if h.division, err = r.ReadUint16(); err != nil {
		return h, err
	}
	return h, nil
}
