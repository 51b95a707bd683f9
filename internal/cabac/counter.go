package cabac

import "math"

// fracBits is the fixed-point scale of Counter costs.
const fracBits = 15

// entropyBits[state][lps] is the cost, in 1/32768 bit units, of coding the
// MPS (lps=0) or the LPS (lps=1) from a context in the given state.
var entropyBits = buildEntropyBits()

// The LPS probability of state s follows p(s) = 0.5 * alpha^s with
// alpha = (0.01875/0.5)^(1/63).
func buildEntropyBits() [64][2]uint32 {
	var t [64][2]uint32
	alpha := math.Pow(0.01875/0.5, 1.0/63)
	for s := range t {
		p := 0.5 * math.Pow(alpha, float64(s))
		t[s][0] = uint32(math.Round(-math.Log2(1-p) * (1 << fracBits)))
		t[s][1] = uint32(math.Round(-math.Log2(p) * (1 << fracBits)))
	}
	return t
}

// Counter is a BinEncoder that produces no bits. It accumulates the
// estimated cost of every bin and adapts context models exactly as Encoder
// does, so a block can be costed against the live context state.
type Counter struct {
	frac uint64
	bins uint64
}

// Reset clears the accumulated cost.
func (c *Counter) Reset() {
	c.frac = 0
	c.bins = 0
}

// EncodeBin adds the cost of bin under m and adapts m.
func (c *Counter) EncodeBin(m *Model, bin int) {
	lps := 0
	if bin != int(m.MPS) {
		lps = 1
	}
	c.frac += uint64(entropyBits[m.State][lps])
	c.bins++
	m.Update(bin)
}

// EncodeBypass adds one bit.
func (c *Counter) EncodeBypass(bin int) {
	c.frac += 1 << fracBits
	c.bins++
}

// EncodeBypassBins adds n bits.
func (c *Counter) EncodeBypassBins(value uint32, n int) {
	c.frac += uint64(n) << fracBits
	c.bins += uint64(n)
}

// EncodeTerminate adds the cost of the terminating bin. A 0 is nearly free;
// a 1 closes the codeword and costs the seven bits the flush emits.
func (c *Counter) EncodeTerminate(bin int) {
	if bin != 0 {
		c.frac += 7 << fracBits
	}
	c.bins++
}

// Bits returns the estimated cost in bits.
func (c *Counter) Bits() float64 {
	return float64(c.frac) / (1 << fracBits)
}

// Frac returns the estimated cost in 1/32768 bit units.
func (c *Counter) Frac() uint64 {
	return c.frac
}

// Bins returns the number of bins counted.
func (c *Counter) Bins() uint64 {
	return c.bins
}
