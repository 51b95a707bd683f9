package residual

import (
	"github.com/deepteams/vvc/internal/binarize"
	"github.com/deepteams/vvc/internal/cabac"
	"github.com/deepteams/vvc/internal/dq"
	"github.com/deepteams/vvc/internal/scan"
	"github.com/deepteams/vvc/internal/syntax"
)

// Parser reads residual syntax back through a bin decoder. It mirrors
// Coder step for step.
type Parser struct {
	Engine   cabac.BinDecoder
	Contexts *cabac.ContextTable
	Tracer   Tracer

	TSCodingDisabled bool
}

// Decode fills b.Levels from the bitstream. The size, channel and coding
// flags of b must match the ones the block was coded with. obs may be nil.
func (p *Parser) Decode(b *Block, obs *Observations) {
	if len(b.Levels) != 1<<uint(b.Log2W+b.Log2H) {
		b.Levels = make([]int32, 1<<uint(b.Log2W+b.Log2H))
	} else {
		clear(b.Levels)
	}
	if b.TransformSkip && !p.TSCodingDisabled {
		p.decodeTS(b)
		return
	}
	p.decodeRegular(b, obs)
}

func (p *Parser) bin(id syntax.ElementID, inc int) int {
	return p.Engine.DecodeBin(p.Contexts.At(id, inc))
}

func (p *Parser) bypass() int {
	return p.Engine.DecodeBypass()
}

func (p *Parser) decodeRegular(b *Block, obs *Observations) {
	tr := orNop(p.Tracer)
	chroma := b.Channel.IsChroma()
	zw, zh := ZeroOutSize(b.Log2W, b.Log2H)
	l := scan.For(zw, zh)
	lastX, lastY := p.decodeLastPos(chroma, b.Log2W, b.Log2H, zw, zh, tr)

	pl := newPlanes(zw, zh, false)
	defer pl.release()

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
		clear(lv[:])

		coded := true
		inferDC := false
		if i < lastSubBlock && i > 0 {
			right := xS+1 < sbCols && pl.sb[sbIdx+1]
			below := yS+1 < sbRows && pl.sb[sbIdx+sbCols]
			flag := p.bin(syntax.SbCodedFlag, sbCodedCtx(chroma, right, below))
			tr.Element(syntax.SbCodedFlag, xS, yS, flag)
			coded = flag == 1
			inferDC = true
		}
		pl.sb[sbIdx] = coded
		if coded {
			obs.observeSubBlock(b, xS, yS)
		}

		firstPos0 := sbSize - 1
		if i == lastSubBlock {
			firstPos0 = lastScanPos
		}
		firstPos1 := firstPos0
		firstSig, lastSig := sbSize, -1

		for n := firstPos0; n >= 0 && remBins >= 4; n-- {
			x, y := l.Coeff(i, n)
			isLast := i == lastSubBlock && n == lastScanPos
			numSig, sumPass1, _ := pl.template(x, y)
			d := x + y
			sig := 0
			switch {
			case isLast:
				sig = 1
			case coded && (n > 0 || !inferDC):
				sig = p.bin(syntax.SigCoeffFlag, sigCtx(chroma, qs.State(), sumPass1, d))
				tr.Element(syntax.SigCoeffFlag, x, y, sig)
				remBins--
				if sig == 1 {
					inferDC = false
				}
			case coded:
				sig = 1
			}
			pass1 := 0
			if sig == 1 {
				ctx := gtxCtx(chroma, isLast, numSig, sumPass1, d)
				gt1 := p.bin(syntax.AbsLevelGtxFlag, ctx)
				tr.Element(syntax.AbsLevelGtxFlag, x, y, gt1)
				remBins--
				pass1 = 1 + gt1
				if gt1 == 1 {
					par := p.bin(syntax.ParLevelFlag, ctx)
					tr.Element(syntax.ParLevelFlag, x, y, par)
					gt3 := p.bin(syntax.AbsLevelGtxFlag, ctx+gtx1Offset)
					tr.Element(syntax.AbsLevelGtxFlag, x, y, gt3)
					remBins -= 2
					pass1 += par + 2*gt3
				}
				if lastSig < 0 {
					lastSig = n
				}
				firstSig = n
			}
			pl.pass1[pl.idx(x, y)] = int32(pass1)
			qs.Advance(pass1)
			firstPos1 = n - 1
		}

		for n := firstPos0; n > firstPos1; n-- {
			x, y := l.Coeff(i, n)
			a := int(pl.pass1[pl.idx(x, y)])
			if a >= 4 {
				_, _, sumAbs := pl.template(x, y)
				rem := p.remainder(riceParam(sumAbs, remainderBase))
				tr.Element(syntax.AbsRemainder, x, y, rem)
				a += 2 * rem
			}
			lv[n] = a
			pl.abs[pl.idx(x, y)] = int32(a)
		}

		for n := firstPos1; n >= 0; n-- {
			x, y := l.Coeff(i, n)
			a := 0
			if coded {
				_, _, sumAbs := pl.template(x, y)
				rice := riceParam(sumAbs, decAbsBase)
				v := p.remainder(rice)
				tr.Element(syntax.DecAbsLevel, x, y, v)
				zeroPos := qs.State().ZeroPos(rice)
				switch {
				case v == zeroPos:
					a = 0
				case v < zeroPos:
					a = v + 1
				default:
					a = v
				}
			}
			lv[n] = a
			pl.abs[pl.idx(x, y)] = int32(a)
			if a > 0 {
				if lastSig < 0 {
					lastSig = n
				}
				firstSig = n
			}
			qs.Advance(a)
		}

		hidden := !b.DepQuant && b.SignHiding && lastSig-firstSig > 3
		sum := 0
		for n := sbSize - 1; n >= 0; n-- {
			a := lv[n]
			if a == 0 {
				continue
			}
			x, y := l.Coeff(i, n)
			sum += a
			level := int32(a)
			if !hidden || n != firstSig {
				s := p.bypass()
				tr.Element(syntax.CoeffSignFlag, x, y, s)
				if s == 1 {
					level = -level
				}
			} else if sum&1 == 1 {
				level = -level
			}
			b.Set(x, y, level)
		}
	}
}

// remainder parses an abs_remainder or dec_abs_level bin string.
func (p *Parser) remainder(rice uint) int {
	return int(binarize.ParseAbsRemainder(p.bypass, rice))
}

func (p *Parser) decodeLastPos(chroma bool, log2w, log2h, zw, zh int, tr Tracer) (x, y int) {
	var px, py, sx, sy int
	if log2w > 0 {
		px = p.lastPrefixBins(syntax.LastSigCoeffXPrefix, chroma, log2w, zw)
		tr.Element(syntax.LastSigCoeffXPrefix, -1, -1, px)
	}
	if log2h > 0 {
		py = p.lastPrefixBins(syntax.LastSigCoeffYPrefix, chroma, log2h, zh)
		tr.Element(syntax.LastSigCoeffYPrefix, -1, -1, py)
	}
	if px > 3 {
		sx = int(p.Engine.DecodeBypassBins(px>>1 - 1))
		tr.Element(syntax.LastSigCoeffXSuffix, -1, -1, sx)
	}
	if py > 3 {
		sy = int(p.Engine.DecodeBypassBins(py>>1 - 1))
		tr.Element(syntax.LastSigCoeffYSuffix, -1, -1, sy)
	}
	return lastCoord(px, sx), lastCoord(py, sy)
}

func (p *Parser) lastPrefixBins(id syntax.ElementID, chroma bool, log2, zo int) int {
	off, shift := lastPrefixCtx(chroma, log2)
	cMax := zo<<1 - 1
	v := 0
	for v < cMax && p.bin(id, off+v>>uint(shift)) == 1 {
		v++
	}
	return v
}
