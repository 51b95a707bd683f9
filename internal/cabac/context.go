package cabac

import "github.com/deepteams/vvc/internal/syntax"

// Model is the adaptive probability state of one context: a state index in
// 0..62 (63 is reserved for the terminating bin) and the most probable
// symbol.
type Model struct {
	State uint8
	MPS   uint8
}

// Init derives the state from an 8-bit initialization value and the slice
// QP.
func (m *Model) Init(initValue uint8, qp int) {
	slope := int(initValue>>4)*5 - 45
	offset := int(initValue&15)<<3 - 16
	pre := clip3(1, 126, (slope*clip3(0, 51, qp))>>4+offset)
	if pre <= 63 {
		m.State = uint8(63 - pre)
		m.MPS = 0
	} else {
		m.State = uint8(pre - 64)
		m.MPS = 1
	}
}

// Update applies the state transition for a coded bin.
func (m *Model) Update(bin int) {
	if bin == int(m.MPS) {
		m.State = transIdxMPS[m.State]
		return
	}
	if m.State == 0 {
		m.MPS = 1 - m.MPS
	}
	m.State = transIdxLPS[m.State]
}

// ContextTable holds every context model of a coding session. It is a plain
// value: copying it is a complete snapshot, which is how wavefront row
// starts save and restore state.
type ContextTable struct {
	models   [syntax.NumContexts]Model
	initType int
	qp       int
}

// NewContextTable returns a table initialized for the given init type
// (syntax.InitI/InitP/InitB) and slice QP.
func NewContextTable(initType, qp int) *ContextTable {
	t := &ContextTable{}
	t.Init(initType, qp)
	return t
}

// Init resets every model from the static initialization tables.
func (t *ContextTable) Init(initType, qp int) {
	if initType < 0 || initType >= syntax.NumInitTypes {
		panic("cabac: init type out of range")
	}
	t.initType = initType
	t.qp = qp
	for i := range syntax.Elements {
		e := &syntax.Elements[i]
		row := e.Init[initType]
		for k := 0; k < e.NumCtx; k++ {
			t.models[e.Offset+k].Init(row[k], qp)
		}
	}
}

// Reset re-initializes the table with the init type and QP it was last
// initialized with.
func (t *ContextTable) Reset() {
	t.Init(t.initType, t.qp)
}

// At returns the model for increment inc of element id.
func (t *ContextTable) At(id syntax.ElementID, inc int) *Model {
	return &t.models[syntax.Ctx(id, inc)]
}

// Snapshot returns a copy of the table.
func (t *ContextTable) Snapshot() ContextTable {
	return *t
}

// Restore overwrites the table with a snapshot.
func (t *ContextTable) Restore(s ContextTable) {
	*t = s
}

// Equal reports whether two tables hold identical model states.
func (t *ContextTable) Equal(o *ContextTable) bool {
	return t.models == o.models
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
