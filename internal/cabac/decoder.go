package cabac

import "github.com/deepteams/vvc/internal/bitio"

// Decoder is the arithmetic decoding engine matching Encoder. It keeps the
// 9-bit offset register of the normative decoding process and pulls one bit
// per renormalization step.
type Decoder struct {
	r      *bitio.Reader
	rng    uint32
	offset uint32
}

// NewDecoder creates a Decoder reading from r and starts it.
func NewDecoder(r *bitio.Reader) *Decoder {
	d := &Decoder{r: r}
	d.Start()
	return d
}

// Start initializes the registers from the next 9 bits.
func (d *Decoder) Start() {
	d.rng = 510
	d.offset = uint32(d.r.ReadBits(9))
}

// Reader returns the underlying bit reader.
func (d *Decoder) Reader() *bitio.Reader {
	return d.r
}

// DecodeBin decodes a context-coded bin and adapts m.
func (d *Decoder) DecodeBin(m *Model) int {
	lps := uint32(rangeTabLPS[m.State][(d.rng>>6)&3])
	d.rng -= lps
	var bin int
	if d.offset >= d.rng {
		bin = 1 - int(m.MPS)
		d.offset -= d.rng
		d.rng = lps
	} else {
		bin = int(m.MPS)
	}
	m.Update(bin)
	for d.rng < 256 {
		d.rng <<= 1
		d.offset = d.offset<<1 | uint32(d.r.ReadBit())
	}
	return bin
}

// DecodeBypass decodes an equiprobable bin.
func (d *Decoder) DecodeBypass() int {
	d.offset = d.offset<<1 | uint32(d.r.ReadBit())
	if d.offset >= d.rng {
		d.offset -= d.rng
		return 1
	}
	return 0
}

// DecodeBypassBins decodes n bypass bins, most significant first.
func (d *Decoder) DecodeBypassBins(n int) uint32 {
	var v uint32
	for ; n > 0; n-- {
		v = v<<1 | uint32(d.DecodeBypass())
	}
	return v
}

// DecodeTerminate decodes the terminating bin. After a 1 the arithmetic
// codeword is complete and the next bits belong to the trailing syntax.
func (d *Decoder) DecodeTerminate() int {
	d.rng -= 2
	if d.offset >= d.rng {
		return 1
	}
	for d.rng < 256 {
		d.rng <<= 1
		d.offset = d.offset<<1 | uint32(d.r.ReadBit())
	}
	return 0
}
