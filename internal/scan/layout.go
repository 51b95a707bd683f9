package scan

// Layout describes how a block is split into sub-blocks and in what order
// its coefficients are visited.
type Layout struct {
	Log2W, Log2H     int
	Log2SbW, Log2SbH int

	// SubBlocks holds sub-block coordinates in diagonal order.
	SubBlocks []Pos
	// Inner holds coefficient coordinates inside one sub-block, in diagonal
	// order.
	Inner []Pos
}

// For returns the cached layout of a (1<<log2w) x (1<<log2h) block.
func For(log2w, log2h int) *Layout {
	checkLog2(log2w, log2h)
	layoutOnce.Do(func() {
		for lw := 0; lw <= MaxLog2Size; lw++ {
			for lh := 0; lh <= MaxLog2Size; lh++ {
				sw, sh := SubBlockShape(lw, lh)
				layouts[lw][lh] = Layout{
					Log2W:     lw,
					Log2H:     lh,
					Log2SbW:   sw,
					Log2SbH:   sh,
					SubBlocks: Diagonal(lw-sw, lh-sh),
					Inner:     Diagonal(sw, sh),
				}
			}
		}
	})
	return &layouts[log2w][log2h]
}

// Width returns the block width in coefficients.
func (l *Layout) Width() int { return 1 << uint(l.Log2W) }

// Height returns the block height in coefficients.
func (l *Layout) Height() int { return 1 << uint(l.Log2H) }

// NumSubBlocks returns the number of sub-blocks.
func (l *Layout) NumSubBlocks() int { return len(l.SubBlocks) }

// SubBlockSize returns the number of coefficients per sub-block.
func (l *Layout) SubBlockSize() int { return len(l.Inner) }

// SubBlockCols returns the number of sub-blocks per row.
func (l *Layout) SubBlockCols() int { return 1 << uint(l.Log2W-l.Log2SbW) }

// SubBlockRows returns the number of sub-blocks per column.
func (l *Layout) SubBlockRows() int { return 1 << uint(l.Log2H-l.Log2SbH) }

// Coeff returns the block coordinate of coefficient n inside sub-block i.
func (l *Layout) Coeff(i, n int) (x, y int) {
	s := l.SubBlocks[i]
	c := l.Inner[n]
	return int(s.X)<<uint(l.Log2SbW) + int(c.X), int(s.Y)<<uint(l.Log2SbH) + int(c.Y)
}

// Locate returns the sub-block index and the index inside that sub-block of
// coordinate (x, y). It is the inverse of Coeff.
func (l *Layout) Locate(x, y int) (i, n int) {
	sx, sy := x>>uint(l.Log2SbW), y>>uint(l.Log2SbH)
	cx, cy := x&(1<<uint(l.Log2SbW)-1), y&(1<<uint(l.Log2SbH)-1)
	return indexOf(l.SubBlocks, sx, sy), indexOf(l.Inner, cx, cy)
}

// ScanIndex returns the overall position of (x, y) in the block's coefficient
// order, numbering sub-blocks in sequence.
func (l *Layout) ScanIndex(x, y int) int {
	i, n := l.Locate(x, y)
	return i*l.SubBlockSize() + n
}

// indexOf uses the anti-diagonal structure of the scan: every coordinate on
// earlier diagonals precedes (x, y), and inside its diagonal the walk starts
// at the largest in-range y.
func indexOf(order []Pos, x, y int) int {
	d := x + y
	lo := 0
	for lo < len(order) && int(order[lo].X)+int(order[lo].Y) < d {
		lo++
	}
	for k := lo; k < len(order); k++ {
		if int(order[k].X) == x && int(order[k].Y) == y {
			return k
		}
	}
	panic("scan: coordinate outside block")
}
