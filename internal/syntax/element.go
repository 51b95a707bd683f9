// Package syntax describes the residual-coding syntax elements: how each one
// is binarized, how its bins pick a context, and how many contexts it owns.
//
// Descriptors are selected once per element from Elements and are never
// mutated; the context table in package cabac is laid out from them.
package syntax

// ElementID identifies a syntax element.
type ElementID uint8

const (
	LastSigCoeffXPrefix ElementID = iota
	LastSigCoeffYPrefix
	LastSigCoeffXSuffix
	LastSigCoeffYSuffix
	SbCodedFlag
	SigCoeffFlag
	ParLevelFlag
	AbsLevelGtxFlag
	AbsRemainder
	DecAbsLevel
	CoeffSignFlag
	EndOfSliceOneBit
	NumElements
)

// CtxMode says how the bins of an element select their probability model.
type CtxMode uint8

const (
	// CtxFixed bins always use the same context increment.
	CtxFixed CtxMode = iota
	// CtxBypass bins are equiprobable and never adapt.
	CtxBypass
	// CtxTerminate is the end-of-slice / end-of-subset bin.
	CtxTerminate
	// CtxDerived bins compute their increment from already coded syntax.
	CtxDerived
)

var ctxModeNames = [...]string{"fixed", "bypass", "terminate", "derived"}

func (m CtxMode) String() string {
	if int(m) < len(ctxModeNames) {
		return ctxModeNames[m]
	}
	return "unknown"
}

// Kind tags a Binarization variant.
type Kind uint8

const (
	KindFixedLength Kind = iota
	KindTruncatedRice
	KindTruncatedBinary
	KindExpGolomb
	KindCustom
)

// Binarization is the closed set of binarization schemes. The concrete types
// are FixedLength, TruncatedRice, TruncatedBinary, ExpGolomb and Custom.
type Binarization interface {
	Kind() Kind
}

// FixedLength is an unsigned code of ceil(log2(CMax+1)) bins.
type FixedLength struct{ CMax uint32 }

// TruncatedRice is a capped unary prefix plus a Rice suffix. A zero CMax
// means the bound is derived from the block being coded.
type TruncatedRice struct {
	CMax uint32
	Rice uint
}

// TruncatedBinary is the near-balanced code over [0, CMax].
type TruncatedBinary struct{ CMax uint32 }

// ExpGolomb is the k-th order Exp-Golomb code.
type ExpGolomb struct{ K uint }

// Custom marks element-specific multi-part schemes.
type Custom struct{ Scheme string }

func (FixedLength) Kind() Kind     { return KindFixedLength }
func (TruncatedRice) Kind() Kind   { return KindTruncatedRice }
func (TruncatedBinary) Kind() Kind { return KindTruncatedBinary }
func (ExpGolomb) Kind() Kind       { return KindExpGolomb }
func (Custom) Kind() Kind          { return KindCustom }

// Init types select the context-initialization row. I slices always use
// InitI; P and B slices use InitP and InitB, swapped when the slice header
// sets cabac_init_flag.
const (
	InitI = iota
	InitP
	InitB
	NumInitTypes
)

// Element is the static descriptor of one syntax element.
type Element struct {
	ID   ElementID
	Name string
	Bin  Binarization
	Mode CtxMode
	// NumCtx is the number of context models owned by the element and
	// Offset the index of the first one in the flattened table.
	NumCtx int
	Offset int
	Init   [NumInitTypes][]uint8
}

// Context counts per element.
const (
	NumLastPrefixCtx = 23 // 20 luma + 3 chroma
	NumSbCodedCtx    = 7  // 2 luma + 2 chroma + 3 transform skip
	NumSigCtx        = 63 // 36 luma + 24 chroma + 3 transform skip
	NumParCtx        = 33 // 21 luma + 11 chroma + 1 transform skip
	NumGtxCtx        = 72 // 2 x (21 luma + 11 chroma) + 8 transform skip
	NumSignCtx       = 6  // transform skip only

	NumContexts = 2*NumLastPrefixCtx + NumSbCodedCtx + NumSigCtx + NumParCtx + NumGtxCtx + NumSignCtx
)

// Elements lists every descriptor, indexed by ElementID.
var Elements = buildElements()

func buildElements() [NumElements]Element {
	e := [NumElements]Element{
		LastSigCoeffXPrefix: {Name: "last_sig_coeff_x_prefix", Bin: Custom{"last-prefix"}, Mode: CtxDerived, NumCtx: NumLastPrefixCtx, Init: initLastPrefix},
		LastSigCoeffYPrefix: {Name: "last_sig_coeff_y_prefix", Bin: Custom{"last-prefix"}, Mode: CtxDerived, NumCtx: NumLastPrefixCtx, Init: initLastPrefix},
		LastSigCoeffXSuffix: {Name: "last_sig_coeff_x_suffix", Bin: Custom{"last-suffix"}, Mode: CtxBypass},
		LastSigCoeffYSuffix: {Name: "last_sig_coeff_y_suffix", Bin: Custom{"last-suffix"}, Mode: CtxBypass},
		SbCodedFlag:         {Name: "sb_coded_flag", Bin: FixedLength{1}, Mode: CtxDerived, NumCtx: NumSbCodedCtx, Init: initSbCodedFlag},
		SigCoeffFlag:        {Name: "sig_coeff_flag", Bin: FixedLength{1}, Mode: CtxDerived, NumCtx: NumSigCtx, Init: initSigCoeffFlag},
		ParLevelFlag:        {Name: "par_level_flag", Bin: FixedLength{1}, Mode: CtxDerived, NumCtx: NumParCtx, Init: initParLevelFlag},
		AbsLevelGtxFlag:     {Name: "abs_level_gtx_flag", Bin: FixedLength{1}, Mode: CtxDerived, NumCtx: NumGtxCtx, Init: initAbsLevelGtxFlag},
		AbsRemainder:        {Name: "abs_remainder", Bin: Custom{"rice-egk"}, Mode: CtxBypass},
		DecAbsLevel:         {Name: "dec_abs_level", Bin: Custom{"rice-egk"}, Mode: CtxBypass},
		CoeffSignFlag:       {Name: "coeff_sign_flag", Bin: FixedLength{1}, Mode: CtxDerived, NumCtx: NumSignCtx, Init: initCoeffSignFlag},
		EndOfSliceOneBit:    {Name: "end_of_slice_one_bit", Bin: FixedLength{1}, Mode: CtxTerminate},
	}
	off := 0
	for id := range e {
		e[id].ID = ElementID(id)
		e[id].Offset = off
		off += e[id].NumCtx
	}
	if off != NumContexts {
		panic("syntax: context layout does not match NumContexts")
	}
	return e
}

// String returns the element's syntax name.
func (id ElementID) String() string {
	if id < NumElements {
		return Elements[id].Name
	}
	return "unknown"
}

// Ctx returns the flattened context index of increment inc of element id.
func Ctx(id ElementID, inc int) int {
	e := &Elements[id]
	if inc < 0 || inc >= e.NumCtx {
		panic("syntax: context increment out of range for " + e.Name)
	}
	return e.Offset + inc
}

// InitType maps a slice type to its context-initialization row.
func InitType(sliceType int, cabacInitFlag bool) int {
	switch sliceType {
	case SliceI:
		return InitI
	case SliceP:
		if cabacInitFlag {
			return InitB
		}
		return InitP
	default:
		if cabacInitFlag {
			return InitP
		}
		return InitB
	}
}

// Slice types as numbered by the slice header.
const (
	SliceB = 0
	SliceP = 1
	SliceI = 2
)
