package vvc

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/cabac"
	"github.com/deepteams/vvc/internal/residual"
)

// Decoder parses the residual blocks of one slice payload. It is not safe
// for concurrent use.
type Decoder struct {
	cfg    SliceConfig
	r      *bitio.Reader
	engine *cabac.Decoder
	ctx    *cabac.ContextTable
	parser residual.Parser
	obs    Observations
	tracer Tracer
	blocks int
	ended  bool
}

// NewDecoder returns a Decoder over the slice payload data, with its
// contexts initialized for cfg.
func NewDecoder(data []byte, cfg SliceConfig) (*Decoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := bitio.NewReader(data)
	d := &Decoder{
		cfg:    cfg,
		r:      r,
		engine: cabac.NewDecoder(r),
		ctx:    cabac.NewContextTable(cfg.initType(), cfg.QP),
		obs:    NewObservations(),
	}
	d.parser = residual.Parser{
		Engine:           d.engine,
		Contexts:         d.ctx,
		TSCodingDisabled: cfg.TSResidualCodingDisabled,
	}
	return d, nil
}

// SetTracer routes every parsed syntax element to t. A nil t stops tracing.
func (d *Decoder) SetTracer(t Tracer) {
	d.tracer = t
	d.parser.Tracer = adaptTracer(t)
}

// DecodeBlock parses the residual of one block. Width, Height, Channel,
// TransformSkip and BDPCM of b describe the block and must match the ones
// it was encoded with; Levels is overwritten, and reallocated if its
// length does not fit.
func (d *Decoder) DecodeBlock(b *Block) (err error) {
	if d.ended {
		return ErrFinished
	}
	rb, err := b.shape(&d.cfg)
	if err != nil {
		return err
	}
	if len(b.Levels) == b.Width*b.Height {
		rb.Levels = b.Levels
	}
	if d.tracer != nil {
		beginBlock(d.tracer, b)
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(ErrCorrupt, fmt.Sprint(r))
		}
	}()
	d.parser.Decode(rb, &d.obs)
	b.Levels = rb.Levels
	d.blocks++
	if d.r.Overrun() {
		return errors.Wrapf(ErrTruncated, "block %d", d.blocks-1)
	}
	return nil
}

// End parses the end of the slice data. It fails if the terminating bin is
// not there or the payload ran out before it.
func (d *Decoder) End() error {
	if d.ended {
		return ErrFinished
	}
	d.ended = true
	if d.engine.DecodeTerminate() != 1 {
		return errors.Wrap(ErrCorrupt, "end of slice data not found")
	}
	if d.r.Overrun() {
		return ErrTruncated
	}
	return nil
}

// Observations returns the transform selection flags gathered since the
// last ResetObservations.
func (d *Decoder) Observations() Observations { return d.obs }

// ResetObservations sets every observation flag, starting a new coding
// unit.
func (d *Decoder) ResetObservations() { d.obs = NewObservations() }

// SaveContexts returns a copy of the context models.
func (d *Decoder) SaveContexts() ContextState {
	return ContextState{t: d.ctx.Snapshot()}
}

// RestoreContexts replaces the context models with s.
func (d *Decoder) RestoreContexts(s ContextState) {
	d.ctx.Restore(s.t)
}

// ResetContexts reinitializes the context models for the slice type and QP.
func (d *Decoder) ResetContexts() {
	d.ctx.Reset()
}

// Blocks returns the number of blocks parsed so far.
func (d *Decoder) Blocks() int { return d.blocks }

// BitPos returns the number of payload bits consumed so far.
func (d *Decoder) BitPos() uint64 { return d.r.Pos() }

// DecodeSlice parses one payload whose blocks have the shapes of the given
// blocks, filling their levels in place.
func DecodeSlice(data []byte, cfg SliceConfig, blocks []*Block) error {
	d, err := NewDecoder(data, cfg)
	if err != nil {
		return err
	}
	for i, b := range blocks {
		if err := d.DecodeBlock(b); err != nil {
			return errors.Wrapf(err, "block %d", i)
		}
	}
	return d.End()
}
