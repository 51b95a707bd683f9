package residual

import "github.com/deepteams/vvc/internal/syntax"

// Tracer receives every syntax element as it is coded or parsed. X and Y
// locate the coefficient the element belongs to; block-level elements such
// as the last position report (-1, -1), and sb_coded_flag reports the
// sub-block coordinate.
type Tracer interface {
	Element(id syntax.ElementID, x, y, value int)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(id syntax.ElementID, x, y, value int)

// Element calls f.
func (f TracerFunc) Element(id syntax.ElementID, x, y, value int) { f(id, x, y, value) }

type nopTracer struct{}

func (nopTracer) Element(syntax.ElementID, int, int, int) {}

func orNop(t Tracer) Tracer {
	if t == nil {
		return nopTracer{}
	}
	return t
}
