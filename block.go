package vvc

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/deepteams/vvc/internal/residual"
)

// Channel identifies the colour component of a block.
type Channel = residual.Channel

// Colour components.
const (
	Luma = residual.Luma
	Cb   = residual.Cb
	Cr   = residual.Cr
)

// BDPCM is the differential coding direction of a transform-skip block.
type BDPCM = residual.BDPCM

// BDPCM directions.
const (
	BDPCMOff        = residual.BDPCMOff
	BDPCMHorizontal = residual.BDPCMHorizontal
	BDPCMVertical   = residual.BDPCMVertical
)

// Observations holds the flags transform selection reads back after a
// coding unit's residuals are coded. See NewObservations.
type Observations = residual.Observations

// Block size limits.
const (
	MaxBlockSize   = 64
	MaxTSBlockSize = 32
	MaxLevel       = residual.MaxLevel
)

// Block is a transform block of quantized levels, row major.
type Block struct {
	Width, Height int
	Channel       Channel
	Levels        []int32

	TransformSkip bool
	BDPCM         BDPCM
}

// NewBlock returns a zeroed block.
func NewBlock(width, height int, ch Channel) *Block {
	return &Block{
		Width:   width,
		Height:  height,
		Channel: ch,
		Levels:  make([]int32, width*height),
	}
}

// At returns the level at (x, y).
func (b *Block) At(x, y int) int32 { return b.Levels[y*b.Width+x] }

// Set stores the level at (x, y).
func (b *Block) Set(x, y int, v int32) { b.Levels[y*b.Width+x] = v }

func log2Size(v int) (int, bool) {
	if v < 1 || v > MaxBlockSize || v&(v-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(v)), true
}

// shape validates the geometry and flags of b and returns the internal
// block header without levels.
func (b *Block) shape(cfg *SliceConfig) (*residual.Block, error) {
	lw, okw := log2Size(b.Width)
	lh, okh := log2Size(b.Height)
	if !okw || !okh {
		return nil, errors.Wrapf(ErrBlockSize, "%dx%d", b.Width, b.Height)
	}
	if b.TransformSkip && (b.Width > MaxTSBlockSize || b.Height > MaxTSBlockSize) {
		return nil, errors.Wrapf(ErrBlockSize, "%dx%d transform skip", b.Width, b.Height)
	}
	if b.BDPCM != BDPCMOff && !b.TransformSkip {
		return nil, ErrBDPCM
	}
	if b.Channel > Cr {
		return nil, errors.Errorf("vvc: invalid channel %d", b.Channel)
	}
	return &residual.Block{
		Log2W:         lw,
		Log2H:         lh,
		Channel:       b.Channel,
		TransformSkip: b.TransformSkip,
		BDPCM:         b.BDPCM,
		DepQuant:      cfg.DepQuant,
		SignHiding:    cfg.SignHiding,
	}, nil
}

// internal validates b for encoding and returns the internal block. Levels
// are shared, not copied.
func (b *Block) internal(cfg *SliceConfig) (*residual.Block, error) {
	rb, err := b.shape(cfg)
	if err != nil {
		return nil, err
	}
	if len(b.Levels) != b.Width*b.Height {
		return nil, errors.Wrapf(ErrLevelCount, "%d levels for %dx%d", len(b.Levels), b.Width, b.Height)
	}
	rb.Levels = b.Levels
	for i, v := range b.Levels {
		if v > MaxLevel || v < -MaxLevel {
			return nil, errors.Wrapf(ErrLevelRange, "level %d at (%d,%d)", v, i%b.Width, i/b.Width)
		}
	}
	if rb.IsZero() {
		return nil, ErrEmptyBlock
	}
	regular := !b.TransformSkip || cfg.TSResidualCodingDisabled
	if regular && !rb.InZeroOutRegion() {
		return nil, errors.Wrapf(ErrZeroOut, "%dx%d", b.Width, b.Height)
	}
	if n := residual.SignParityMismatches(rb, cfg.TSResidualCodingDisabled); n > 0 {
		return nil, errors.Wrapf(ErrSignParity, "%d sub-blocks", n)
	}
	return rb, nil
}

// PrepareSignHiding adjusts b in place so that every hidden sign agrees
// with the level parity the decoder infers it from, and returns the number
// of levels changed. Each change moves one magnitude by one. Blocks whose
// signs are not hidden under cfg are left alone.
func PrepareSignHiding(cfg SliceConfig, b *Block) (int, error) {
	rb, err := b.shape(&cfg)
	if err != nil {
		return 0, err
	}
	if len(b.Levels) != b.Width*b.Height {
		return 0, errors.Wrapf(ErrLevelCount, "%d levels for %dx%d", len(b.Levels), b.Width, b.Height)
	}
	rb.Levels = b.Levels
	return residual.ConditionSignParity(rb, cfg.TSResidualCodingDisabled), nil
}

// Reconstruct returns the reconstruction indices of b: the levels
// themselves, or under dependent quantization the index on the quantizer
// lattice the state machine selects for each level.
func Reconstruct(cfg SliceConfig, b *Block) ([]int32, error) {
	rb, err := b.shape(&cfg)
	if err != nil {
		return nil, err
	}
	if len(b.Levels) != b.Width*b.Height {
		return nil, errors.Wrapf(ErrLevelCount, "%d levels for %dx%d", len(b.Levels), b.Width, b.Height)
	}
	rb.Levels = b.Levels
	return residual.Reconstruct(rb), nil
}

// NewObservations returns observations with every flag set, ready for a
// new coding unit.
func NewObservations() Observations {
	return residual.NewObservations()
}
