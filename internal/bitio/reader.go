package bitio

// Reader reads bits MSB first from a packed byte slice. Reads past the end
// return zero bits, matching the padding a decoder sees after the last
// byte of a slice payload; Overrun reports whether that happened.
type Reader struct {
	buf []byte
	pos uint64 // next bit to read
	end uint64 // number of valid bits in buf
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data, end: uint64(len(data)) * 8}
}

// NewReaderBits creates a Reader over the first nbits bits of data.
func NewReaderBits(data []byte, nbits uint64) *Reader {
	if max := uint64(len(data)) * 8; nbits > max {
		nbits = max
	}
	return &Reader{buf: data, end: nbits}
}

// ReadBit returns the next bit.
func (r *Reader) ReadBit() int {
	p := r.pos
	r.pos++
	if p >= r.end {
		return 0
	}
	return int(r.buf[p>>3]>>(7-p&7)) & 1
}

// ReadBits returns the next n bits (0..64) as an unsigned value, MSB first.
func (r *Reader) ReadBits(n int) uint64 {
	if n < 0 || n > wordBits {
		panic("bitio: read width out of range")
	}
	var v uint64
	for ; n > 0; n-- {
		v = v<<1 | uint64(r.ReadBit())
	}
	return v
}

// ByteAlign skips to the next byte boundary.
func (r *Reader) ByteAlign() {
	r.pos = (r.pos + 7) &^ 7
}

// Pos returns the number of bits consumed so far.
func (r *Reader) Pos() uint64 {
	return r.pos
}

// Remaining returns the number of unread valid bits.
func (r *Reader) Remaining() uint64 {
	if r.pos >= r.end {
		return 0
	}
	return r.end - r.pos
}

// Overrun reports whether more bits were read than the input holds.
func (r *Reader) Overrun() bool {
	return r.pos > r.end
}
