package vvc

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/cabac"
	"github.com/deepteams/vvc/internal/residual"
)

// ContextState is a saved copy of every context model of a coder.
type ContextState struct {
	t cabac.ContextTable
}

// Encoder codes the residual blocks of one slice. It is not safe for
// concurrent use.
type Encoder struct {
	cfg      SliceConfig
	w        *bitio.Writer
	engine   *cabac.Encoder
	ctx      *cabac.ContextTable
	coder    residual.Coder
	obs      Observations
	tracer   Tracer
	blocks   int
	finished bool
}

// NewEncoder returns an Encoder with its contexts initialized for cfg.
func NewEncoder(cfg SliceConfig) (*Encoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	w := bitio.NewWriter(0)
	e := &Encoder{
		cfg:    cfg,
		w:      w,
		engine: cabac.NewEncoder(w),
		ctx:    cabac.NewContextTable(cfg.initType(), cfg.QP),
		obs:    NewObservations(),
	}
	e.coder = residual.Coder{
		Engine:           e.engine,
		Contexts:         e.ctx,
		TSCodingDisabled: cfg.TSResidualCodingDisabled,
	}
	return e, nil
}

// Config returns the slice configuration of e.
func (e *Encoder) Config() SliceConfig { return e.cfg }

// SetTracer routes every coded syntax element to t. A nil t stops tracing.
func (e *Encoder) SetTracer(t Tracer) {
	e.tracer = t
	e.coder.Tracer = adaptTracer(t)
}

// EncodeBlock codes the residual of b. The block must hold at least one
// non-zero level, keep every level within MaxLevel and, unless it takes the
// transform-skip path, inside its zero-out region. When sign hiding
// applies, each hidden sign must agree with the parity of its sub-block;
// see PrepareSignHiding.
func (e *Encoder) EncodeBlock(b *Block) error {
	if e.finished {
		return ErrFinished
	}
	rb, err := b.internal(&e.cfg)
	if err != nil {
		return err
	}
	if e.tracer != nil {
		beginBlock(e.tracer, b)
	}
	e.coder.Encode(rb, &e.obs)
	e.blocks++
	return nil
}

// EstimateBits returns the cost in bits of coding b in the current context
// state, without writing anything or adapting the contexts.
func (e *Encoder) EstimateBits(b *Block) (float64, error) {
	rb, err := b.internal(&e.cfg)
	if err != nil {
		return 0, err
	}
	snap := e.ctx.Snapshot()
	var cnt cabac.Counter
	c := residual.Coder{
		Engine:           &cnt,
		Contexts:         &snap,
		TSCodingDisabled: e.cfg.TSResidualCodingDisabled,
	}
	c.Encode(rb, nil)
	return cnt.Bits(), nil
}

// Observations returns the transform selection flags gathered since the
// last ResetObservations.
func (e *Encoder) Observations() Observations { return e.obs }

// ResetObservations sets every observation flag, starting a new coding
// unit.
func (e *Encoder) ResetObservations() { e.obs = NewObservations() }

// SaveContexts returns a copy of the context models.
func (e *Encoder) SaveContexts() ContextState {
	return ContextState{t: e.ctx.Snapshot()}
}

// RestoreContexts replaces the context models with s.
func (e *Encoder) RestoreContexts(s ContextState) {
	e.ctx.Restore(s.t)
}

// ResetContexts reinitializes the context models for the slice type and QP.
func (e *Encoder) ResetContexts() {
	e.ctx.Reset()
}

// Blocks returns the number of blocks coded so far.
func (e *Encoder) Blocks() int { return e.blocks }

// BitCount returns the number of bits produced so far, including bits still
// held inside the arithmetic coder.
func (e *Encoder) BitCount() uint64 {
	return e.engine.BitsWritten()
}

// Finish codes the end of the slice data, flushes the arithmetic coder and
// returns the byte-aligned payload. The Encoder accepts no further blocks.
func (e *Encoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, ErrFinished
	}
	e.finished = true
	e.engine.EncodeTerminate(1)
	e.engine.Finish()
	e.w.WriteBit(1)
	e.w.ByteAlign()
	return e.w.Bytes(), nil
}

// EncodeSlice is a convenience wrapper that codes blocks into one slice
// payload.
func EncodeSlice(cfg SliceConfig, blocks []*Block) ([]byte, error) {
	e, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	for i, b := range blocks {
		if err := e.EncodeBlock(b); err != nil {
			return nil, errors.Wrapf(err, "block %d", i)
		}
	}
	return e.Finish()
}
