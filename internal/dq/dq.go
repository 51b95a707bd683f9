// Package dq implements the dependent-quantization state machine. The state
// selects one of two scalar quantizers and, through the residual coder,
// the context sets of the significance and remainder bins.
package dq

// State is a dependent-quantization state in 0..3. States 0 and 1 use
// quantizer Q0; states 2 and 3 use Q1.
type State uint8

// transition[s][k] is the state following s after a level of parity k.
var transition = [4][2]State{{0, 2}, {2, 0}, {1, 3}, {3, 1}}

// Next returns the state after coding absLevel.
func (s State) Next(absLevel int) State {
	return transition[s][absLevel&1]
}

// Quantizer returns 0 for Q0 and 1 for Q1.
func (s State) Quantizer() int {
	return int(s >> 1)
}

// SigCtxSet returns the significance context set selected by the state:
// 0 for states 0 and 1, then 1 and 2 for states 2 and 3.
func (s State) SigCtxSet() int {
	return max(0, int(s)-1)
}

// ZeroPos returns the value of dec_abs_level that stands for a zero level
// under the given Rice parameter.
func (s State) ZeroPos(rice uint) int {
	if s < 2 {
		return 1 << rice
	}
	return 2 << rice
}

// Reconstruct maps a signed quantization index to its reconstruction
// level, in units of the quantization step: 2k under Q0 and 2k-sgn(k)
// under Q1.
func (s State) Reconstruct(level int) int {
	switch {
	case level > 0:
		return 2*level - s.Quantizer()
	case level < 0:
		return 2*level + s.Quantizer()
	}
	return 0
}

// Tracker follows the state through a scan. A disabled Tracker stays in
// state 0, which is what every derivation expects without dependent
// quantization.
type Tracker struct {
	state   State
	enabled bool
}

// NewTracker returns a Tracker in state 0.
func NewTracker(enabled bool) Tracker {
	return Tracker{enabled: enabled}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Advance moves past a coded position holding absLevel.
func (t *Tracker) Advance(absLevel int) {
	if t.enabled {
		t.state = t.state.Next(absLevel)
	}
}

// Enabled reports whether the tracker changes state.
func (t *Tracker) Enabled() bool {
	return t.enabled
}
