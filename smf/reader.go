package smf

// maxVarintBytes is the longest variable-length quantity an SMF may contain.
const maxVarintBytes = 4

// Reader is a sequential, bounds-checked cursor over an in-memory byte source.
// Multi-byte integers are big-endian.
type Reader struct {
	data       []byte
	pos        int
	trackStart int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// MarkTrack records the current position as the start of a track. Rewind never
// moves the cursor before the most recent mark.
func (r *Reader) MarkTrack() {
	r.trackStart = r.pos
}

func (r *Reader) need(n int) error {
	if n < 0 || n > r.Remaining() {
		return newError(TruncatedInput, r.pos, "need %d bytes, %d remain", n, r.Remaining())
	}
	return nil
}

// ReadFixed decodes an unsigned big-endian integer of width 1, 2 or 4 bytes.
func (r *Reader) ReadFixed(width int) (uint32, error) {
	switch width {
	case 1, 2, 4:
	default:
		return 0, newError(InvalidFormat, r.pos, "unsupported integer width %d", width)
	}
	if err := r.need(width); err != nil {
		return 0, err
	}
	b := r.data[r.pos : r.pos+width]
	r.pos += width

	switch width {
	case 1:
		return uint32(b[0]), nil
	case 2:
		return uint32(b[0])<<8 | uint32(b[1]), nil
	default:
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
	}
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadFixed(1)
	return uint8(v), err
}

// ReadUint16 reads a big-endian 16-bit value.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadFixed(2)
	return uint16(v), err
}

// ReadUint32 reads a big-endian 32-bit value.
func (r *Reader) ReadUint32() (uint32, error) {
	return r.ReadFixed(4)
}

// ReadVarint decodes a MIDI variable-length quantity: seven payload bits per
// byte, most significant group first, bit 7 set on every byte but the last.
// At most four bytes are accepted, so the result never exceeds 0x0FFFFFFF.
func (r *Reader) ReadVarint() (uint32, error) {
	start := r.pos
	var v uint32
	for i := 0; i < maxVarintBytes; i++ {
		if err := r.need(1); err != nil {
			return 0, err
		}
		b := r.data[r.pos]
		r.pos++
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, newError(MalformedVarint, start, "variable-length value longer than %d bytes", maxVarintBytes)
}

// ReadBytes returns the next n bytes. The slice aliases the source.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadString reads n bytes as a string.
func (r *Reader) ReadString(n int) (string, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.data[r.pos], nil
}

// Rewind moves the cursor back n bytes. Only a single byte may be un-read, and
// never past the start of the current track.
func (r *Reader) Rewind(n int) error {
	if n != 1 {
		return newError(ProtocolViolation, r.pos, "rewind by %d bytes not supported", n)
	}
	if r.pos-n < r.trackStart {
		return newError(ProtocolViolation, r.pos, "rewind before track start at offset %d", r.trackStart)
	}
	r.pos -= n
	return nil
}
