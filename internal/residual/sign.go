package residual

import (
	"github.com/deepteams/vvc/internal/dq"
	"github.com/deepteams/vvc/internal/scan"
)

// SignHidden reports whether b goes through the ordinary residual syntax
// with sign hiding in effect.
func SignHidden(b *Block, tsCodingDisabled bool) bool {
	if b.TransformSkip && !tsCodingDisabled {
		return false
	}
	return b.SignHiding && !b.DepQuant
}

// ConditionSignParity adjusts b so that every sub-block whose sign is
// hidden carries a level sum whose parity matches the sign of its first
// significant level: odd for negative, even for positive. The magnitude of
// that first level moves by one where needed. It returns the number of
// sub-blocks changed.
func ConditionSignParity(b *Block, tsCodingDisabled bool) int {
	return signParity(b, tsCodingDisabled, true)
}

// SignParityMismatches counts the sub-blocks of b whose hidden sign the
// decoder would infer wrongly.
func SignParityMismatches(b *Block, tsCodingDisabled bool) int {
	return signParity(b, tsCodingDisabled, false)
}

func signParity(b *Block, tsCodingDisabled, fix bool) int {
	if !SignHidden(b, tsCodingDisabled) {
		return 0
	}
	zw, zh := ZeroOutSize(b.Log2W, b.Log2H)
	l := scan.For(zw, zh)
	sbSize := l.SubBlockSize()
	changed := 0
	for i := 0; i < l.NumSubBlocks(); i++ {
		first, last, sum := -1, -1, 0
		for n := 0; n < sbSize; n++ {
			x, y := l.Coeff(i, n)
			a := abs32(b.At(x, y))
			if a == 0 {
				continue
			}
			if first < 0 {
				first = n
			}
			last = n
			sum += a
		}
		if first < 0 || last-first <= 3 {
			continue
		}
		x, y := l.Coeff(i, first)
		v := b.At(x, y)
		if (sum&1 == 1) == (v < 0) {
			continue
		}
		changed++
		if !fix {
			continue
		}
		step := int32(1)
		if abs32(v) == MaxLevel {
			step = -1
		}
		if v < 0 {
			step = -step
		}
		b.Set(x, y, v+step)
	}
	return changed
}

// Reconstruct returns the reconstruction indices of b's levels: the levels
// themselves, or with dependent quantization the index on the lattice the
// state machine selects at each position, walked in coding order.
func Reconstruct(b *Block) []int32 {
	out := append([]int32(nil), b.Levels...)
	if !b.DepQuant || b.TransformSkip {
		return out
	}
	zw, zh := ZeroOutSize(b.Log2W, b.Log2H)
	l := scan.For(zw, zh)
	sbSize := l.SubBlockSize()
	var st dq.State
	for i := l.NumSubBlocks() - 1; i >= 0; i-- {
		for n := sbSize - 1; n >= 0; n-- {
			x, y := l.Coeff(i, n)
			v := b.At(x, y)
			out[y<<uint(b.Log2W)+x] = int32(st.Reconstruct(int(v)))
			st = st.Next(abs32(v))
		}
	}
	return out
}
