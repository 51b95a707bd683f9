// Package residual serializes quantized coefficient blocks with the
// residual_coding and residual_ts_coding syntax, and parses them back.
//
// Coding is multi-pass per sub-block. Context-coded flags (significance,
// greater-than, parity) are spent from a per-block budget; once it runs
// low the remaining magnitudes fall back to bypass-coded remainders. Every
// context index depends on already coded neighbours, so Encode and Decode
// share the derivations in context.go and fill the same bookkeeping planes
// in the same order.
package residual

import "github.com/deepteams/vvc/internal/scan"

// Channel identifies the colour component of a block.
type Channel uint8

const (
	Luma Channel = iota
	Cb
	Cr
)

// IsChroma reports whether c is a chroma component.
func (c Channel) IsChroma() bool { return c != Luma }

func (c Channel) String() string {
	switch c {
	case Luma:
		return "Y"
	case Cb:
		return "Cb"
	case Cr:
		return "Cr"
	}
	return "?"
}

// BDPCM is the block differential coding direction of a transform-skip
// block.
type BDPCM uint8

const (
	BDPCMOff BDPCM = iota
	BDPCMHorizontal
	BDPCMVertical
)

// MaxLevel bounds the magnitude of a level.
const MaxLevel = 1<<15 - 1

// Block is one transform block of quantized levels together with the flags
// that steer its coding. Levels is row major: Levels[y<<Log2W+x].
type Block struct {
	Levels       []int32
	Log2W, Log2H int
	Channel      Channel

	TransformSkip bool
	BDPCM         BDPCM // transform-skip blocks only

	DepQuant   bool
	SignHiding bool
}

// NewBlock returns a zeroed (1<<log2w) x (1<<log2h) block.
func NewBlock(log2w, log2h int, ch Channel) *Block {
	return &Block{
		Levels:  make([]int32, 1<<uint(log2w+log2h)),
		Log2W:   log2w,
		Log2H:   log2h,
		Channel: ch,
	}
}

// Width returns the block width.
func (b *Block) Width() int { return 1 << uint(b.Log2W) }

// Height returns the block height.
func (b *Block) Height() int { return 1 << uint(b.Log2H) }

// At returns the level at (x, y).
func (b *Block) At(x, y int) int32 { return b.Levels[y<<uint(b.Log2W)+x] }

// Set stores the level at (x, y).
func (b *Block) Set(x, y int, v int32) { b.Levels[y<<uint(b.Log2W)+x] = v }

// IsZero reports whether every level is zero.
func (b *Block) IsZero() bool {
	for _, v := range b.Levels {
		if v != 0 {
			return false
		}
	}
	return true
}

// ZeroOutSize returns the log2 dimensions of the region that may carry
// non-zero levels when the block goes through the ordinary residual
// syntax. Transforms of 64 samples keep only their first 32 coefficients.
func ZeroOutSize(log2w, log2h int) (int, int) {
	return min(log2w, 5), min(log2h, 5)
}

// InZeroOutRegion reports whether every non-zero level of b lies inside its
// zero-out region.
func (b *Block) InZeroOutRegion() bool {
	zw, zh := ZeroOutSize(b.Log2W, b.Log2H)
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if (x>>uint(zw) != 0 || y>>uint(zh) != 0) && b.At(x, y) != 0 {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of b.
func (b *Block) Clone() *Block {
	c := *b
	c.Levels = append([]int32(nil), b.Levels...)
	return &c
}

// lastPos returns the coordinate of the last non-zero level in the
// ordinary coding order, and false for an all-zero block.
func lastPos(b *Block, l *scan.Layout) (x, y int, ok bool) {
	sbSize := l.SubBlockSize()
	for i := l.NumSubBlocks() - 1; i >= 0; i-- {
		for n := sbSize - 1; n >= 0; n-- {
			x, y := l.Coeff(i, n)
			if b.At(x, y) != 0 {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
