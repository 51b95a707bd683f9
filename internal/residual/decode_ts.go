package residual

import (
	"github.com/deepteams/vvc/internal/scan"
	"github.com/deepteams/vvc/internal/syntax"
)

func (p *Parser) decodeTS(b *Block) {
	tr := orNop(p.Tracer)
	l := scan.For(b.Log2W, b.Log2H)
	pl := newPlanes(b.Log2W, b.Log2H, true)
	defer pl.release()

	bdpcm := b.BDPCM != BDPCMOff
	sbSize := l.SubBlockSize()
	sbCols := l.SubBlockCols()
	lastSubBlock := l.NumSubBlocks() - 1
	remCcbs := (1 << uint(b.Log2W+b.Log2H)) * 7 >> 2
	inferSbCbf := true

	var pass2, neg [16]int
	for i := 0; i <= lastSubBlock; i++ {
		xS, yS := int(l.SubBlocks[i].X), int(l.SubBlocks[i].Y)
		sbIdx := yS*sbCols + xS
		clear(neg[:])

		coded := true
		if i != lastSubBlock || !inferSbCbf {
			ctx := tsSbCodedCtx
			if xS > 0 && pl.sb[sbIdx-1] {
				ctx++
			}
			if yS > 0 && pl.sb[sbIdx-sbCols] {
				ctx++
			}
			flag := p.bin(syntax.SbCodedFlag, ctx)
			tr.Element(syntax.SbCodedFlag, xS, yS, flag)
			coded = flag == 1
		}
		pl.sb[sbIdx] = coded
		if coded && i < lastSubBlock {
			inferSbCbf = false
		}

		inferSig := true
		lastPass1 := -1
		for n := 0; n < sbSize && remCcbs >= 4; n++ {
			x, y := l.Coeff(i, n)
			idx := pl.idx(x, y)
			sig := 0
			if coded && (n != sbSize-1 || !inferSig) {
				left, above := pl.tsNeighbours(x, y)
				sig = p.bin(syntax.SigCoeffFlag, tsSigCtx+left+above)
				tr.Element(syntax.SigCoeffFlag, x, y, sig)
				remCcbs--
				if sig == 1 {
					inferSig = false
				}
			} else if coded {
				sig = 1
			}
			pass1 := 0
			if sig == 1 {
				neg[n] = p.bin(syntax.CoeffSignFlag, pl.tsSignCtx(x, y, bdpcm))
				tr.Element(syntax.CoeffSignFlag, x, y, neg[n])
				pl.signLv[idx] = int32(1 - 2*neg[n])

				ctx := tsGtx0BdpcmCtx
				if !bdpcm {
					left, above := pl.tsNeighbours(x, y)
					ctx = tsGtx0Ctx + left + above
				}
				gt1 := p.bin(syntax.AbsLevelGtxFlag, ctx)
				tr.Element(syntax.AbsLevelGtxFlag, x, y, gt1)
				remCcbs -= 2
				pass1 = 1 + gt1
				if gt1 == 1 {
					par := p.bin(syntax.ParLevelFlag, tsParCtx)
					tr.Element(syntax.ParLevelFlag, x, y, par)
					remCcbs--
					pass1 += par
				}
			}
			pl.pass1[idx] = int32(pass1)
			lastPass1 = n
		}

		lastPass2 := -1
		for n := 0; n < sbSize && remCcbs >= 4; n++ {
			x, y := l.Coeff(i, n)
			v := int(pl.pass1[pl.idx(x, y)])
			more := v >= 2
			for j := 1; j < tsNumGtx && more; j++ {
				g := p.bin(syntax.AbsLevelGtxFlag, tsGtxCtx+j-1)
				tr.Element(syntax.AbsLevelGtxFlag, x, y, g)
				remCcbs--
				v += 2 * g
				more = g == 1
			}
			pass2[n] = v
			lastPass2 = n
		}

		for n := 0; n < sbSize; n++ {
			x, y := l.Coeff(i, n)
			idx := pl.idx(x, y)
			var a int
			switch {
			case n <= lastPass2:
				a = pass2[n]
				if a >= 10 {
					a += 2 * p.tsRemainder(x, y, tr)
				}
			case n <= lastPass1:
				a = int(pl.pass1[idx])
				if a >= 2 {
					a += 2 * p.tsRemainder(x, y, tr)
				}
			case coded:
				a = p.tsRemainder(x, y, tr)
				if a > 0 {
					neg[n] = p.bypass()
					tr.Element(syntax.CoeffSignFlag, x, y, neg[n])
				}
			}
			if !bdpcm && n <= lastPass1 {
				a = tsUnmapLevel(a, pl.tsPredictor(x, y))
			}
			pl.abs[idx] = int32(a)
			b.Set(x, y, int32((1-2*neg[n])*a))
		}
	}
}

func (p *Parser) tsRemainder(x, y int, tr Tracer) int {
	v := p.remainder(tsRice)
	tr.Element(syntax.AbsRemainder, x, y, v)
	return v
}
