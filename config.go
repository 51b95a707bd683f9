package vvc

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvc/internal/syntax"
)

// SliceType is the slice type, numbered as in the slice header.
type SliceType int

const (
	SliceB SliceType = syntax.SliceB
	SliceP SliceType = syntax.SliceP
	SliceI SliceType = syntax.SliceI
)

func (t SliceType) String() string {
	switch t {
	case SliceB:
		return "B"
	case SliceP:
		return "P"
	case SliceI:
		return "I"
	}
	return "invalid"
}

// MaxQP is the largest slice QP accepted.
const MaxQP = 63

// SliceConfig carries the slice and parameter-set state the residual coder
// depends on.
type SliceConfig struct {
	// Type selects the context initialization row together with
	// CabacInitFlag.
	Type SliceType

	// QP is the slice QP the contexts are initialized for (0-63).
	QP int

	// CabacInitFlag swaps the initialization rows of P and B slices.
	CabacInitFlag bool

	// DepQuant enables dependent quantization. It switches off sign
	// hiding.
	DepQuant bool

	// SignHiding enables sign data hiding.
	SignHiding bool

	// TSResidualCodingDisabled codes transform-skip blocks with the
	// ordinary residual syntax.
	TSResidualCodingDisabled bool
}

// DefaultSliceConfig returns an intra slice at QP 32 with sign hiding on.
func DefaultSliceConfig() SliceConfig {
	return SliceConfig{
		Type:       SliceI,
		QP:         32,
		SignHiding: true,
	}
}

func (c *SliceConfig) validate() error {
	if c.Type != SliceB && c.Type != SliceP && c.Type != SliceI {
		return errors.Wrapf(ErrSliceType, "type %d", int(c.Type))
	}
	if c.QP < 0 || c.QP > MaxQP {
		return errors.Wrapf(ErrQP, "qp %d", c.QP)
	}
	return nil
}

func (c *SliceConfig) initType() int {
	return syntax.InitType(int(c.Type), c.CabacInitFlag)
}
