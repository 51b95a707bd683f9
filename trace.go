package vvc

import (
	"fmt"

	"github.com/deepteams/vvc/internal/residual"
	"github.com/deepteams/vvc/internal/syntax"
)

// Tracer receives every syntax element as it is coded or parsed. x and y
// are the block position the element refers to, or -1 for elements that
// belong to the block as a whole. If a Tracer also has a
// Begin(label string) method, it is called before each block.
type Tracer interface {
	Element(name string, x, y, value int)
}

type blockBeginner interface {
	Begin(label string)
}

func adaptTracer(t Tracer) residual.Tracer {
	if t == nil {
		return nil
	}
	return residual.TracerFunc(func(id syntax.ElementID, x, y, value int) {
		t.Element(id.String(), x, y, value)
	})
}

func beginBlock(t Tracer, b *Block) {
	bb, ok := t.(blockBeginner)
	if !ok {
		return
	}
	ts := ""
	if b.TransformSkip {
		ts = " ts"
	}
	bb.Begin(fmt.Sprintf("%s%s %dx%d", b.Channel, ts, b.Width, b.Height))
}
