package residual

import (
	"math/bits"

	"github.com/deepteams/vvc/internal/binarize"
	"github.com/deepteams/vvc/internal/cabac"
	"github.com/deepteams/vvc/internal/dq"
	"github.com/deepteams/vvc/internal/scan"
	"github.com/deepteams/vvc/internal/syntax"
)

// Coder writes the residual syntax of blocks through a bin encoder. The
// engine and context table belong to the enclosing slice; the Coder only
// borrows them for the duration of each call.
type Coder struct {
	Engine   cabac.BinEncoder
	Contexts *cabac.ContextTable
	Tracer   Tracer

	// TSCodingDisabled sends transform-skip blocks through the ordinary
	// residual syntax.
	TSCodingDisabled bool
}

// Encode codes one block. obs may be nil. An all-zero block, a level
// outside the zero-out region or a hidden sign that disagrees with the
// level parity is a caller bug and panics.
func (c *Coder) Encode(b *Block, obs *Observations) {
	if b.TransformSkip && !c.TSCodingDisabled {
		c.encodeTS(b)
		return
	}
	c.encodeRegular(b, obs)
}

func (c *Coder) bin(id syntax.ElementID, inc, bin int) {
	c.Engine.EncodeBin(c.Contexts.At(id, inc), bin)
}

// bypass emits a bin string as bypass bins.
func (c *Coder) bypass(b binarize.Bins) {
	for n := b.N; n > 0; {
		k := min(n, 32)
		n -= k
		c.Engine.EncodeBypassBins(uint32(b.Value>>uint(n)&(1<<uint(k)-1)), k)
	}
}

func (c *Coder) encodeRegular(b *Block, obs *Observations) {
	tr := orNop(c.Tracer)
	chroma := b.Channel.IsChroma()
	zw, zh := ZeroOutSize(b.Log2W, b.Log2H)
	if !b.InZeroOutRegion() {
		panic("residual: level outside the zero-out region")
	}
	l := scan.For(zw, zh)
	lastX, lastY, ok := lastPos(b, l)
	if !ok {
		panic("residual: empty block")
	}
	c.encodeLastPos(chroma, b.Log2W, b.Log2H, zw, zh, lastX, lastY, tr)

	p := newPlanes(zw, zh, false)
	defer p.release()

	sbSize := l.SubBlockSize()
	sbCols, sbRows := l.SubBlockCols(), l.SubBlockRows()
	lastSubBlock, lastScanPos := l.Locate(lastX, lastY)
	obs.observeLast(b, zw, zh, lastSubBlock, lastScanPos)

	remBins := (1 << uint(zw+zh)) * 7 >> 2
	qs := dq.NewTracker(b.DepQuant)
	var lv [16]int

	for i := lastSubBlock; i >= 0; i-- {
		xS, yS := int(l.SubBlocks[i].X), int(l.SubBlocks[i].Y)
		sbIdx := yS*sbCols + xS

		nonZero := false
		for n := 0; n < sbSize; n++ {
			x, y := l.Coeff(i, n)
			lv[n] = abs32(b.At(x, y))
			if lv[n] > MaxLevel {
				panic("residual: level magnitude out of range")
			}
			nonZero = nonZero || lv[n] != 0
		}

		coded := true
		inferDC := false
		if i < lastSubBlock && i > 0 {
			right := xS+1 < sbCols && p.sb[sbIdx+1]
			below := yS+1 < sbRows && p.sb[sbIdx+sbCols]
			flag := boolInt(nonZero)
			c.bin(syntax.SbCodedFlag, sbCodedCtx(chroma, right, below), flag)
			tr.Element(syntax.SbCodedFlag, xS, yS, flag)
			coded = nonZero
			inferDC = true
		}
		p.sb[sbIdx] = coded
		if coded {
			obs.observeSubBlock(b, xS, yS)
		}

		firstPos0 := sbSize - 1
		if i == lastSubBlock {
			firstPos0 = lastScanPos
		}
		firstPos1 := firstPos0
		firstSig, lastSig := sbSize, -1

		// Pass 1: significance, greater-than-1, parity, greater-than-3.
		for n := firstPos0; n >= 0 && remBins >= 4; n-- {
			x, y := l.Coeff(i, n)
			a := lv[n]
			isLast := i == lastSubBlock && n == lastScanPos
			numSig, sumPass1, _ := p.template(x, y)
			d := x + y
			sig := boolInt(a > 0)
			if coded && (n > 0 || !inferDC) && !isLast {
				c.bin(syntax.SigCoeffFlag, sigCtx(chroma, qs.State(), sumPass1, d), sig)
				tr.Element(syntax.SigCoeffFlag, x, y, sig)
				remBins--
				if sig == 1 {
					inferDC = false
				}
			}
			pass1 := 0
			if sig == 1 {
				ctx := gtxCtx(chroma, isLast, numSig, sumPass1, d)
				gt1 := boolInt(a > 1)
				c.bin(syntax.AbsLevelGtxFlag, ctx, gt1)
				tr.Element(syntax.AbsLevelGtxFlag, x, y, gt1)
				remBins--
				pass1 = 1 + gt1
				if gt1 == 1 {
					par := (a - 2) & 1
					c.bin(syntax.ParLevelFlag, ctx, par)
					tr.Element(syntax.ParLevelFlag, x, y, par)
					gt3 := boolInt(a > 3)
					c.bin(syntax.AbsLevelGtxFlag, ctx+gtx1Offset, gt3)
					tr.Element(syntax.AbsLevelGtxFlag, x, y, gt3)
					remBins -= 2
					pass1 += par + 2*gt3
				}
				if lastSig < 0 {
					lastSig = n
				}
				firstSig = n
			}
			p.pass1[p.idx(x, y)] = int32(pass1)
			qs.Advance(pass1)
			firstPos1 = n - 1
		}

		// Pass 2: remainders of the positions whose greater-than-3 flag
		// was set.
		for n := firstPos0; n > firstPos1; n-- {
			x, y := l.Coeff(i, n)
			a := lv[n]
			pass1 := int(p.pass1[p.idx(x, y)])
			if pass1 >= 4 {
				_, _, sumAbs := p.template(x, y)
				rem := (a - pass1) >> 1
				c.bypass(binarize.AbsRemainder(uint32(rem), riceParam(sumAbs, remainderBase)))
				tr.Element(syntax.AbsRemainder, x, y, rem)
			}
			p.abs[p.idx(x, y)] = int32(a)
		}

		// Pass 3: whole magnitudes of the positions pass 1 never reached.
		for n := firstPos1; n >= 0; n-- {
			x, y := l.Coeff(i, n)
			a := lv[n]
			if coded {
				_, _, sumAbs := p.template(x, y)
				rice := riceParam(sumAbs, decAbsBase)
				v := decAbsLevel(a, qs.State().ZeroPos(rice))
				c.bypass(binarize.AbsRemainder(uint32(v), rice))
				tr.Element(syntax.DecAbsLevel, x, y, v)
			}
			p.abs[p.idx(x, y)] = int32(a)
			if a > 0 {
				if lastSig < 0 {
					lastSig = n
				}
				firstSig = n
			}
			qs.Advance(a)
		}

		hidden := !b.DepQuant && b.SignHiding && lastSig-firstSig > 3
		if hidden {
			sum := 0
			for n := 0; n < sbSize; n++ {
				sum += lv[n]
			}
			x, y := l.Coeff(i, firstSig)
			if (sum&1 == 1) != (b.At(x, y) < 0) {
				panic("residual: hidden sign does not match the level parity")
			}
		}
		var signs binarize.Bins
		for n := sbSize - 1; n >= 0; n-- {
			if lv[n] == 0 || (hidden && n == firstSig) {
				continue
			}
			x, y := l.Coeff(i, n)
			s := boolInt(b.At(x, y) < 0)
			signs = signs.Append(binarize.Bins{Value: uint64(s), N: 1})
			tr.Element(syntax.CoeffSignFlag, x, y, s)
		}
		c.bypass(signs)
	}
}

// decAbsLevel maps a magnitude to dec_abs_level: zeroPos stands for zero
// and the values below it are shifted up by one.
func decAbsLevel(a, zeroPos int) int {
	switch {
	case a == 0:
		return zeroPos
	case a <= zeroPos:
		return a - 1
	}
	return a
}

func (c *Coder) encodeLastPos(chroma bool, log2w, log2h, zw, zh, x, y int, tr Tracer) {
	px, sx := lastPrefix(x)
	py, sy := lastPrefix(y)
	if log2w > 0 {
		c.lastPrefixBins(syntax.LastSigCoeffXPrefix, chroma, log2w, zw, px)
		tr.Element(syntax.LastSigCoeffXPrefix, -1, -1, px)
	}
	if log2h > 0 {
		c.lastPrefixBins(syntax.LastSigCoeffYPrefix, chroma, log2h, zh, py)
		tr.Element(syntax.LastSigCoeffYPrefix, -1, -1, py)
	}
	if px > 3 {
		c.bypass(binarize.Bins{Value: uint64(sx), N: px>>1 - 1})
		tr.Element(syntax.LastSigCoeffXSuffix, -1, -1, sx)
	}
	if py > 3 {
		c.bypass(binarize.Bins{Value: uint64(sy), N: py>>1 - 1})
		tr.Element(syntax.LastSigCoeffYSuffix, -1, -1, sy)
	}
}

// lastPrefixBins codes a last position prefix as a truncated unary string
// whose bins share contexts in groups of 1<<shift.
func (c *Coder) lastPrefixBins(id syntax.ElementID, chroma bool, log2, zo, prefix int) {
	off, shift := lastPrefixCtx(chroma, log2)
	cMax := zo<<1 - 1
	for k := 0; k < prefix; k++ {
		c.bin(id, off+k>>uint(shift), 1)
	}
	if prefix < cMax {
		c.bin(id, off+prefix>>uint(shift), 0)
	}
}

// lastPrefix splits a last position coordinate into its prefix and suffix.
func lastPrefix(v int) (prefix, suffix int) {
	if v < 4 {
		return v, 0
	}
	k := bits.Len(uint(v)) - 2
	return (k+1)<<1 + (v>>uint(k))&1, v & (1<<uint(k) - 1)
}

// lastCoord rebuilds a coordinate from its prefix and suffix.
func lastCoord(prefix, suffix int) int {
	if prefix < 4 {
		return prefix
	}
	k := prefix>>1 - 1
	return (2+prefix&1)<<uint(k) + suffix
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
