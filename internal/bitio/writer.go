// Package bitio provides the packed bit accumulator that the arithmetic
// coder writes into, and the MSB-first reader used to parse it back.
//
// Writer keeps completed 64-bit words in a slice and the partially filled
// word in a head register, so appending a field costs at most one shift,
// one OR and one slice append regardless of its width.
package bitio

import "encoding/binary"

// wordBits is the size of a retired word.
const wordBits = 64

// Writer is an append-only bit buffer. Bits are emitted MSB first and the
// total count never decreases.
type Writer struct {
	words []uint64 // retired words, each holding 64 bits MSB first
	head  uint64   // pending bits, right-aligned
	used  int      // number of valid bits in head (0..63)
	n     uint64   // total number of bits written
}

// NewWriter creates a Writer with room for expectedBits before the word
// slice has to grow. Pass 0 for a minimal default allocation.
func NewWriter(expectedBits int) *Writer {
	if expectedBits < 1024 {
		expectedBits = 1024
	}
	return &Writer{
		words: make([]uint64, 0, (expectedBits+wordBits-1)/wordBits),
	}
}

// Reset clears the accumulator for reuse, keeping the word buffer.
func (w *Writer) Reset() {
	w.words = w.words[:0]
	w.head = 0
	w.used = 0
	w.n = 0
}

// WriteBit appends a single bit. Any non-zero b is written as 1.
func (w *Writer) WriteBit(b int) {
	var v uint64
	if b != 0 {
		v = 1
	}
	w.WriteBits(v, 1)
}

// WriteBits appends the low width bits of v, most significant bit first.
// width must be in 1..64 and v must fit in width bits; anything else is a
// caller bug and panics.
func (w *Writer) WriteBits(v uint64, width int) {
	if width < 1 || width > wordBits {
		panic("bitio: field width out of range")
	}
	if width < wordBits && v>>uint(width) != 0 {
		panic("bitio: value does not fit in field width")
	}
	free := wordBits - w.used
	if width < free {
		w.head = w.head<<uint(width) | v
		w.used += width
	} else {
		rest := width - free
		w.words = append(w.words, w.head<<uint(free)|v>>uint(rest))
		if rest == 0 {
			w.head = 0
		} else {
			w.head = v & (1<<uint(rest) - 1)
		}
		w.used = rest
	}
	w.n += uint64(width)
}

// WriteByte appends eight bits. It always returns nil and exists so the
// Writer satisfies io.ByteWriter.
func (w *Writer) WriteByte(c byte) error {
	w.WriteBits(uint64(c), 8)
	return nil
}

// ByteAlign appends zero bits until Len is a multiple of 8. Calling it on
// an aligned writer is a no-op.
func (w *Writer) ByteAlign() {
	if pad := int((8 - w.n%8) % 8); pad > 0 {
		w.WriteBits(0, pad)
	}
}

// Aligned reports whether the bit count is a multiple of 8.
func (w *Writer) Aligned() bool {
	return w.n%8 == 0
}

// Len returns the total number of bits written.
func (w *Writer) Len() uint64 {
	return w.n
}

// Bytes returns the accumulated bits packed big-endian. A trailing partial
// byte is padded with zero bits; the writer itself is not modified.
func (w *Writer) Bytes() []byte {
	out := make([]byte, (w.n+7)/8)
	off := 0
	for _, word := range w.words {
		binary.BigEndian.PutUint64(out[off:], word)
		off += 8
	}
	if w.used > 0 {
		var tail [8]byte
		binary.BigEndian.PutUint64(tail[:], w.head<<uint(wordBits-w.used))
		copy(out[off:], tail[:(w.used+7)/8])
	}
	return out
}

// Bits returns the accumulated bits one per element (0 or 1), in the order
// they were written.
func (w *Writer) Bits() []uint8 {
	out := make([]uint8, 0, w.n)
	for _, word := range w.words {
		for i := wordBits - 1; i >= 0; i-- {
			out = append(out, uint8(word>>uint(i)&1))
		}
	}
	for i := w.used - 1; i >= 0; i-- {
		out = append(out, uint8(w.head>>uint(i)&1))
	}
	return out
}
