package residual

// Observations collects the flags the transform selection upstream reads
// after the residuals of a coding unit have been coded. They start out true
// and are only ever cleared, so one value spans every transform block of a
// coding unit.
type Observations struct {
	LfnstDCOnly  bool // no LFNST-eligible block has a non-DC level
	LfnstZeroOut bool // every level lies where LFNST can produce one
	MtsDCOnly    bool // luma holds at most a DC level
	MtsZeroOut   bool // luma levels stay inside the 16x16 MTS region
}

// NewObservations returns observations with every flag set.
func NewObservations() Observations {
	return Observations{
		LfnstDCOnly:  true,
		LfnstZeroOut: true,
		MtsDCOnly:    true,
		MtsZeroOut:   true,
	}
}

// observeLast applies the rules that depend on the last position: the
// sub-block holding it and its index inside that sub-block.
func (o *Observations) observeLast(b *Block, log2w, log2h, lastSubBlock, lastScanPos int) {
	if o == nil {
		return
	}
	big := log2w >= 2 && log2h >= 2
	if lastSubBlock == 0 && big && !b.TransformSkip && lastScanPos > 0 {
		o.LfnstDCOnly = false
	}
	if (lastSubBlock > 0 && big) ||
		(lastScanPos > 7 && (log2w == 2 || log2w == 3) && log2w == log2h) {
		o.LfnstZeroOut = false
	}
	if (lastSubBlock > 0 || lastScanPos > 0) && b.Channel == Luma {
		o.MtsDCOnly = false
	}
}

// observeSubBlock applies the rule for a coded sub-block at (xS, yS).
func (o *Observations) observeSubBlock(b *Block, xS, yS int) {
	if o == nil {
		return
	}
	if (xS > 3 || yS > 3) && b.Channel == Luma {
		o.MtsZeroOut = false
	}
}
