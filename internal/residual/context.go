package residual

import (
	"github.com/deepteams/vvc/internal/dq"
	"github.com/deepteams/vvc/internal/pool"
)

// planes holds the per-block bookkeeping both coders maintain: what a
// decoder knows about each position at the current point of the parse.
type planes struct {
	log2w  int
	w, h   int
	abs    []int32 // AbsLevel once final
	pass1  []int32 // AbsLevelPass1
	signLv []int32 // CoeffSignLevel, transform-skip only
	sb     [256]bool
}

func newPlanes(log2w, log2h int, ts bool) *planes {
	n := 1 << uint(log2w+log2h)
	p := &planes{
		log2w: log2w,
		w:     1 << uint(log2w),
		h:     1 << uint(log2h),
		abs:   pool.Get(n),
		pass1: pool.Get(n),
	}
	if ts {
		p.signLv = pool.Get(n)
	}
	return p
}

func (p *planes) release() {
	pool.Put(p.abs)
	pool.Put(p.pass1)
	if p.signLv != nil {
		pool.Put(p.signLv)
	}
}

func (p *planes) idx(x, y int) int { return y<<uint(p.log2w) + x }

// templ is the neighbourhood used by the ordinary residual contexts and
// the Rice parameter: two to the right, two below and one diagonal.
var templ = [5][2]int{{1, 0}, {2, 0}, {1, 1}, {0, 1}, {0, 2}}

// template sums the neighbourhood of (x, y). numSig counts significant
// neighbours, sumPass1 adds their pass-1 magnitudes and sumAbs their final
// magnitudes.
func (p *planes) template(x, y int) (numSig, sumPass1, sumAbs int) {
	for _, d := range templ {
		nx, ny := x+d[0], y+d[1]
		if nx >= p.w || ny >= p.h {
			continue
		}
		i := p.idx(nx, ny)
		if v := int(p.pass1[i]); v > 0 {
			numSig++
			sumPass1 += v
		}
		sumAbs += int(p.abs[i])
	}
	return numSig, sumPass1, sumAbs
}

// Context increments of the ordinary residual syntax.

func sigCtx(chroma bool, st dq.State, sumPass1, d int) int {
	m := min((sumPass1+1)>>1, 3)
	if !chroma {
		ctx := 12*st.SigCtxSet() + m
		if d < 2 {
			ctx += 8
		} else if d < 5 {
			ctx += 4
		}
		return ctx
	}
	ctx := 36 + 8*st.SigCtxSet() + m
	if d < 2 {
		ctx += 4
	}
	return ctx
}

// gtxCtx is shared by par_level_flag and abs_level_gtx_flag; the second
// greater-than flag adds gtx1Offset.
func gtxCtx(chroma, last bool, numSig, sumPass1, d int) int {
	if last {
		if chroma {
			return 21
		}
		return 0
	}
	off := min(sumPass1-numSig, 4)
	if chroma {
		if d == 0 {
			off += 5
		}
		return 22 + off
	}
	switch {
	case d == 0:
		off += 15
	case d < 3:
		off += 10
	case d < 10:
		off += 5
	}
	return 1 + off
}

const gtx1Offset = 32

func sbCodedCtx(chroma bool, right, below bool) int {
	ctx := 0
	if right || below {
		ctx = 1
	}
	if chroma {
		ctx += 2
	}
	return ctx
}

// lastPrefixLumaOffset is the first luma context of the last position
// prefix, indexed by log2 of the block side.
var lastPrefixLumaOffset = [7]int{0, 0, 0, 3, 6, 10, 15}

// lastPrefixCtx returns the context offset and shift of the last position
// prefix for a side of 1<<log2 coefficients.
func lastPrefixCtx(chroma bool, log2 int) (offset, shift int) {
	if chroma {
		return 20, clip3(0, 2, (1<<uint(log2))>>3)
	}
	return lastPrefixLumaOffset[log2], (log2 + 1) >> 2
}

var riceTable = [32]uint8{
	0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3,
}

// riceParam derives the Rice parameter of abs_remainder (baseLevel 4) and
// dec_abs_level (baseLevel 0) from the template sum of final magnitudes.
func riceParam(sumAbs, baseLevel int) uint {
	return uint(riceTable[clip3(0, 31, sumAbs-5*baseLevel)])
}

const (
	remainderBase = 4
	decAbsBase    = 0
)

// Context increments of the transform-skip residual syntax.
const (
	tsSigCtx       = 60
	tsSbCodedCtx   = 4
	tsParCtx       = 32
	tsGtx0Ctx      = 64
	tsGtx0BdpcmCtx = 67
	tsGtxCtx       = 68 // abs_level_gtx_flag[j] at tsGtxCtx+j-1
	tsRice         = 1
	tsNumGtx       = 5
)

// tsNeighbours returns the significance of the left and above positions.
func (p *planes) tsNeighbours(x, y int) (left, above int) {
	if x > 0 && p.pass1[p.idx(x-1, y)] > 0 {
		left = 1
	}
	if y > 0 && p.pass1[p.idx(x, y-1)] > 0 {
		above = 1
	}
	return left, above
}

func (p *planes) tsSignCtx(x, y int, bdpcm bool) int {
	var left, above int32
	if x > 0 {
		left = p.signLv[p.idx(x-1, y)]
	}
	if y > 0 {
		above = p.signLv[p.idx(x, y-1)]
	}
	ctx := 0
	switch {
	case (left == 0 && above == 0) || left == -above:
		ctx = 0
	case left >= 0 && above >= 0:
		ctx = 1
	default:
		ctx = 2
	}
	if bdpcm {
		ctx += 3
	}
	return ctx
}

// tsPredictor is the larger of the left and above final magnitudes.
func (p *planes) tsPredictor(x, y int) int {
	pred := 0
	if x > 0 {
		pred = int(p.abs[p.idx(x-1, y)])
	}
	if y > 0 {
		pred = max(pred, int(p.abs[p.idx(x, y-1)]))
	}
	return pred
}

// tsMapLevel turns a magnitude into the value coded for it when the
// predictor is active. tsUnmapLevel is its inverse.
func tsMapLevel(abs, pred int) int {
	switch {
	case pred == 0:
		return abs
	case abs == pred:
		return 1
	case abs > 0 && abs < pred:
		return abs + 1
	}
	return abs
}

func tsUnmapLevel(c, pred int) int {
	switch {
	case c == 1 && pred > 0:
		return pred
	case c > 0 && c <= pred:
		return c - 1
	}
	return c
}

func clip3(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v int32) int {
	if v < 0 {
		return int(-v)
	}
	return int(v)
}
