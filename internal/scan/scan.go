// Package scan builds the up-right diagonal scan orders and the sub-block
// decomposition used by residual coding.
//
// All tables are computed once, on first use, for every block shape with
// log2 width and log2 height in 0..MaxLog2Size, and shared read-only after
// that.
package scan

import "sync"

// MaxLog2Size is the largest supported log2 block dimension (64 samples).
const MaxLog2Size = 6

// Pos is a coefficient (or sub-block) coordinate inside a block.
type Pos struct {
	X, Y uint8
}

var (
	diagOnce sync.Once
	diag     [MaxLog2Size + 1][MaxLog2Size + 1][]Pos

	layoutOnce sync.Once
	layouts    [MaxLog2Size + 1][MaxLog2Size + 1]Layout
)

// buildDiagonal walks the anti-diagonals x+y = k in increasing k, each one
// starting on the left edge and moving up and to the right, skipping
// coordinates outside the block.
func buildDiagonal(w, h int) []Pos {
	out := make([]Pos, 0, w*h)
	x, y := 0, 0
	for len(out) < w*h {
		for y >= 0 {
			if x < w && y < h {
				out = append(out, Pos{X: uint8(x), Y: uint8(y)})
			}
			y--
			x++
		}
		y = x
		x = 0
	}
	return out
}

func checkLog2(log2w, log2h int) {
	if log2w < 0 || log2w > MaxLog2Size || log2h < 0 || log2h > MaxLog2Size {
		panic("scan: block size out of range")
	}
}

// Diagonal returns the diagonal scan of a (1<<log2w) x (1<<log2h) block:
// element i is the coordinate visited at scan index i. The returned slice is
// shared and must not be modified.
func Diagonal(log2w, log2h int) []Pos {
	checkLog2(log2w, log2h)
	diagOnce.Do(func() {
		for lw := 0; lw <= MaxLog2Size; lw++ {
			for lh := 0; lh <= MaxLog2Size; lh++ {
				diag[lw][lh] = buildDiagonal(1<<uint(lw), 1<<uint(lh))
			}
		}
	})
	return diag[log2w][log2h]
}

// SubBlockShape returns the log2 dimensions of the coefficient sub-blocks of
// a block. Blocks whose smaller side is below 4 use 2x2 sub-blocks, except
// that a block with more than 8 coefficients and one side narrower than 4
// keeps 16-coefficient sub-blocks stretched along the other side. The
// result never exceeds the block itself.
func SubBlockShape(log2w, log2h int) (log2SbW, log2SbH int) {
	checkLog2(log2w, log2h)
	log2SbW = 2
	if min(log2w, log2h) < 2 {
		log2SbW = 1
	}
	log2SbH = log2SbW
	if log2w+log2h > 3 {
		if log2w < 2 {
			log2SbW = log2w
			log2SbH = 4 - log2w
		} else if log2h < 2 {
			log2SbH = log2h
			log2SbW = 4 - log2h
		}
	}
	return min(log2SbW, log2w), min(log2SbH, log2h)
}
