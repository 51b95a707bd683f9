package residual

import (
	"github.com/deepteams/vvc/internal/binarize"
	"github.com/deepteams/vvc/internal/scan"
	"github.com/deepteams/vvc/internal/syntax"
)

// encodeTS codes a transform-skip block with residual_ts_coding. Sub-blocks
// go in forward order and every position of a coded sub-block is visited.
// Unless BDPCM is on, the magnitudes reached by pass 1 are coded relative
// to the larger of their left and above neighbours.
func (c *Coder) encodeTS(b *Block) {
	tr := orNop(c.Tracer)
	if b.IsZero() {
		panic("residual: empty block")
	}
	l := scan.For(b.Log2W, b.Log2H)
	p := newPlanes(b.Log2W, b.Log2H, true)
	defer p.release()
	for i, v := range b.Levels {
		a := abs32(v)
		if a > MaxLevel {
			panic("residual: level magnitude out of range")
		}
		p.abs[i] = int32(a)
	}

	bdpcm := b.BDPCM != BDPCMOff
	sbSize := l.SubBlockSize()
	sbCols := l.SubBlockCols()
	lastSubBlock := l.NumSubBlocks() - 1
	remCcbs := (1 << uint(b.Log2W+b.Log2H)) * 7 >> 2
	inferSbCbf := true

	var cv, pass2 [16]int
	for i := 0; i <= lastSubBlock; i++ {
		xS, yS := int(l.SubBlocks[i].X), int(l.SubBlocks[i].Y)
		sbIdx := yS*sbCols + xS

		coded := false
		for n := 0; n < sbSize; n++ {
			x, y := l.Coeff(i, n)
			coded = coded || b.At(x, y) != 0
		}
		if i != lastSubBlock || !inferSbCbf {
			ctx := tsSbCodedCtx
			if xS > 0 && p.sb[sbIdx-1] {
				ctx++
			}
			if yS > 0 && p.sb[sbIdx-sbCols] {
				ctx++
			}
			flag := boolInt(coded)
			c.bin(syntax.SbCodedFlag, ctx, flag)
			tr.Element(syntax.SbCodedFlag, xS, yS, flag)
		}
		p.sb[sbIdx] = coded
		if coded && i < lastSubBlock {
			inferSbCbf = false
		}

		// Pass 1: significance, sign, greater-than-1, parity.
		inferSig := true
		lastPass1 := -1
		for n := 0; n < sbSize && remCcbs >= 4; n++ {
			x, y := l.Coeff(i, n)
			idx := p.idx(x, y)
			level := b.At(x, y)
			cv[n] = int(p.abs[idx])
			if !bdpcm {
				cv[n] = tsMapLevel(cv[n], p.tsPredictor(x, y))
			}
			sig := boolInt(cv[n] > 0)
			if coded && (n != sbSize-1 || !inferSig) {
				left, above := p.tsNeighbours(x, y)
				c.bin(syntax.SigCoeffFlag, tsSigCtx+left+above, sig)
				tr.Element(syntax.SigCoeffFlag, x, y, sig)
				remCcbs--
				if sig == 1 {
					inferSig = false
				}
			}
			pass1 := 0
			if sig == 1 {
				neg := boolInt(level < 0)
				c.bin(syntax.CoeffSignFlag, p.tsSignCtx(x, y, bdpcm), neg)
				tr.Element(syntax.CoeffSignFlag, x, y, neg)
				p.signLv[idx] = int32(1 - 2*neg)

				ctx := tsGtx0BdpcmCtx
				if !bdpcm {
					left, above := p.tsNeighbours(x, y)
					ctx = tsGtx0Ctx + left + above
				}
				gt1 := boolInt(cv[n] > 1)
				c.bin(syntax.AbsLevelGtxFlag, ctx, gt1)
				tr.Element(syntax.AbsLevelGtxFlag, x, y, gt1)
				remCcbs -= 2
				pass1 = 1 + gt1
				if gt1 == 1 {
					par := (cv[n] - 2) & 1
					c.bin(syntax.ParLevelFlag, tsParCtx, par)
					tr.Element(syntax.ParLevelFlag, x, y, par)
					remCcbs--
					pass1 += par
				}
			}
			p.pass1[idx] = int32(pass1)
			lastPass1 = n
		}

		// Pass 2: greater-than-5, 7, 9 and 11.
		lastPass2 := -1
		for n := 0; n < sbSize && remCcbs >= 4; n++ {
			x, y := l.Coeff(i, n)
			v := int(p.pass1[p.idx(x, y)])
			more := v >= 2
			for j := 1; j < tsNumGtx && more; j++ {
				g := boolInt(cv[n] >= v+2)
				c.bin(syntax.AbsLevelGtxFlag, tsGtxCtx+j-1, g)
				tr.Element(syntax.AbsLevelGtxFlag, x, y, g)
				remCcbs--
				v += 2 * g
				more = g == 1
			}
			pass2[n] = v
			lastPass2 = n
		}

		// Remainder pass.
		for n := 0; n < sbSize; n++ {
			x, y := l.Coeff(i, n)
			idx := p.idx(x, y)
			switch {
			case n <= lastPass2:
				if pass2[n] >= 10 {
					c.tsRemainder(x, y, (cv[n]-pass2[n])>>1, tr)
				}
			case n <= lastPass1:
				if v := int(p.pass1[idx]); v >= 2 {
					c.tsRemainder(x, y, (cv[n]-v)>>1, tr)
				}
			case coded:
				a := int(p.abs[idx])
				c.tsRemainder(x, y, a, tr)
				if a > 0 {
					s := boolInt(b.At(x, y) < 0)
					c.Engine.EncodeBypass(s)
					tr.Element(syntax.CoeffSignFlag, x, y, s)
				}
			}
		}
	}
}

func (c *Coder) tsRemainder(x, y, v int, tr Tracer) {
	c.bypass(binarize.AbsRemainder(uint32(v), tsRice))
	tr.Element(syntax.AbsRemainder, x, y, v)
}
