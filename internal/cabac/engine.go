// Package cabac implements context-adaptive binary arithmetic coding: the
// context models and their table, the encoding engine that writes into a
// bitio.Writer, the mirror decoding engine, and a bit-cost counter that
// shares the encoder's interface.
package cabac

// BinEncoder is the sink a syntax coder writes bins into. Encoder produces
// bits; Counter only measures them.
type BinEncoder interface {
	// EncodeBin codes one context-coded bin and adapts m.
	EncodeBin(m *Model, bin int)
	// EncodeBypass codes one equiprobable bin.
	EncodeBypass(bin int)
	// EncodeBypassBins codes the n low bits of value as bypass bins, most
	// significant first. n is in 0..32.
	EncodeBypassBins(value uint32, n int)
	// EncodeTerminate codes the terminating bin.
	EncodeTerminate(bin int)
}

// BinDecoder is the parsing counterpart of BinEncoder.
type BinDecoder interface {
	DecodeBin(m *Model) int
	DecodeBypass() int
	DecodeBypassBins(n int) uint32
	DecodeTerminate() int
}
