package vvc

import "github.com/pkg/errors"

// Errors returned by the encoder and decoder. Returned errors wrap these
// with context; test with errors.Is.
var (
	ErrEmptyBlock = errors.New("vvc: block has no non-zero level")
	ErrBlockSize  = errors.New("vvc: unsupported block size")
	ErrLevelCount = errors.New("vvc: level count does not match block size")
	ErrLevelRange = errors.New("vvc: level magnitude out of range")
	ErrZeroOut    = errors.New("vvc: non-zero level outside the zero-out region")
	ErrSignParity = errors.New("vvc: hidden sign disagrees with level parity")
	ErrBDPCM      = errors.New("vvc: BDPCM without transform skip")
	ErrSliceType  = errors.New("vvc: invalid slice type")
	ErrQP         = errors.New("vvc: QP out of range")
	ErrFinished   = errors.New("vvc: slice already finished")
	ErrTruncated  = errors.New("vvc: bitstream truncated")
	ErrCorrupt    = errors.New("vvc: corrupt bitstream")
)
