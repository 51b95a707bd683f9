package cabac

import "github.com/deepteams/vvc/internal/bitio"

// Encoder is the arithmetic encoding engine. The low register holds up to
// 32-bitsLeft pending bits; completed bytes are held back while they may
// still receive a carry (a leading byte plus a run of 0xff bytes) and are
// appended to the Writer once settled.
type Encoder struct {
	w            *bitio.Writer
	low          uint32
	rng          uint32
	bitsLeft     int
	bufferedByte uint32
	numBuffered  int
	bins         uint64
}

// NewEncoder creates an Encoder appending to w and starts it.
func NewEncoder(w *bitio.Writer) *Encoder {
	e := &Encoder{w: w}
	e.Start()
	return e
}

// Start initializes the engine registers for a new slice or substream.
// Context models are not touched.
func (e *Encoder) Start() {
	e.low = 0
	e.rng = 510
	e.bitsLeft = 23
	e.bufferedByte = 0xff
	e.numBuffered = 0
	e.bins = 0
}

// Writer returns the accumulator the engine writes into.
func (e *Encoder) Writer() *bitio.Writer {
	return e.w
}

// EncodeBin codes a context-coded bin.
func (e *Encoder) EncodeBin(m *Model, bin int) {
	e.bins++
	lps := uint32(rangeTabLPS[m.State][(e.rng>>6)&3])
	e.rng -= lps
	if bin != int(m.MPS) {
		nb := int(renormTable[lps>>3])
		e.low = (e.low + e.rng) << uint(nb)
		e.rng = lps << uint(nb)
		m.Update(bin)
		e.bitsLeft -= nb
	} else {
		m.Update(bin)
		if e.rng >= 256 {
			return
		}
		e.low <<= 1
		e.rng <<= 1
		e.bitsLeft--
	}
	e.testAndWriteOut()
}

// EncodeBypass codes an equiprobable bin.
func (e *Encoder) EncodeBypass(bin int) {
	e.bins++
	e.low <<= 1
	if bin != 0 {
		e.low += e.rng
	}
	e.bitsLeft--
	e.testAndWriteOut()
}

// EncodeBypassBins codes n bypass bins, eight at a time.
func (e *Encoder) EncodeBypassBins(value uint32, n int) {
	if n < 0 || n > 32 {
		panic("cabac: bypass run longer than 32 bins")
	}
	if n < 32 && value>>uint(n) != 0 {
		panic("cabac: bypass value does not fit in bin count")
	}
	e.bins += uint64(n)
	for n > 8 {
		n -= 8
		pattern := value >> uint(n)
		e.low <<= 8
		e.low += e.rng * pattern
		value -= pattern << uint(n)
		e.bitsLeft -= 8
		e.testAndWriteOut()
	}
	e.low <<= uint(n)
	e.low += e.rng * value
	e.bitsLeft -= n
	e.testAndWriteOut()
}

// EncodeTerminate codes the terminating bin. A 1 ends the arithmetic
// codeword; Finish must follow.
func (e *Encoder) EncodeTerminate(bin int) {
	e.bins++
	e.rng -= 2
	if bin != 0 {
		e.low += e.rng
		e.low <<= 7
		e.rng = 2 << 7
		e.bitsLeft -= 7
	} else {
		if e.rng >= 256 {
			return
		}
		e.low <<= 1
		e.rng <<= 1
		e.bitsLeft--
	}
	e.testAndWriteOut()
}

func (e *Encoder) testAndWriteOut() {
	if e.bitsLeft < 12 {
		e.writeOut()
	}
}

// writeOut moves the top byte of low into the carry buffer.
func (e *Encoder) writeOut() {
	lead := e.low >> uint(24-e.bitsLeft)
	e.bitsLeft += 8
	e.low &= 0xffffffff >> uint(e.bitsLeft)
	if lead == 0xff {
		e.numBuffered++
		return
	}
	if e.numBuffered > 0 {
		carry := lead >> 8
		b := e.bufferedByte + carry
		e.bufferedByte = lead & 0xff
		e.w.WriteBits(uint64(b&0xff), 8)
		b = (0xff + carry) & 0xff
		for e.numBuffered > 1 {
			e.w.WriteBits(uint64(b), 8)
			e.numBuffered--
		}
	} else {
		e.numBuffered = 1
		e.bufferedByte = lead
	}
}

// Finish flushes the engine: the pending bytes, with any final carry, and
// the remaining bits of low. The caller writes the stop bit and alignment.
func (e *Encoder) Finish() {
	if e.low>>uint(32-e.bitsLeft) != 0 {
		e.w.WriteBits(uint64((e.bufferedByte+1)&0xff), 8)
		for e.numBuffered > 1 {
			e.w.WriteBits(0x00, 8)
			e.numBuffered--
		}
		e.low -= 1 << uint(32-e.bitsLeft)
	} else {
		if e.numBuffered > 0 {
			e.w.WriteBits(uint64(e.bufferedByte), 8)
		}
		for e.numBuffered > 1 {
			e.w.WriteBits(0xff, 8)
			e.numBuffered--
		}
	}
	if n := 24 - e.bitsLeft; n > 0 {
		e.w.WriteBits(uint64(e.low>>8), n)
	}
	e.numBuffered = 0
}

// BitsWritten returns the number of bits produced so far, counting bits
// still held in the engine registers.
func (e *Encoder) BitsWritten() uint64 {
	return e.w.Len() + uint64(8*e.numBuffered) + uint64(23-e.bitsLeft)
}

// Bins returns the number of bins coded since Start.
func (e *Encoder) Bins() uint64 {
	return e.bins
}
