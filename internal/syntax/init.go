package syntax

// Context initialization values, one row per init type (InitI, InitP,
// InitB). Each value packs a slope index in the high nibble and an offset
// index in the low nibble.
//
// The values are the HEVC residual tables (H.265 section 9.3.2.2, as
// carried by HM), placed on the contexts that play the same role here.
// Contexts HEVC has no counterpart for start from cnu.

// cnu is the HM value for a context without a trained initialization. It
// yields state 0 with MPS 1 at every QP.
const cnu = 154

var hevcLastLuma = [NumInitTypes][15]uint8{
	{110, 110, 124, 125, 140, 153, 125, 127, 140, 109, 111, 143, 127, 111, 79},
	{125, 110, 94, 110, 95, 79, 125, 111, 110, 78, 110, 111, 111, 95, 94},
	{125, 110, 124, 110, 95, 94, 125, 111, 111, 79, 125, 126, 111, 111, 79},
}

var hevcLastChroma = [NumInitTypes][3]uint8{
	{108, 123, 63},
	{108, 123, 108},
	{108, 123, 93},
}

var hevcCodedSubBlock = [NumInitTypes][4]uint8{
	{91, 171, 134, 141},
	{121, 140, 61, 154},
	{121, 140, 61, 154},
}

var hevcSigLuma = [NumInitTypes][27]uint8{
	{
		111, 111, 125, 110, 110, 94, 124, 108, 124, 107, 125, 141, 179, 153,
		125, 107, 125, 141, 179, 153, 125, 107, 125, 141, 179, 153, 125,
	},
	{
		155, 154, 139, 153, 139, 123, 123, 63, 153, 166, 183, 140, 136, 153,
		154, 166, 183, 140, 136, 153, 154, 166, 183, 140, 136, 153, 154,
	},
	{
		170, 154, 139, 153, 139, 123, 123, 63, 124, 166, 183, 140, 136, 153,
		154, 166, 183, 140, 136, 153, 154, 166, 183, 140, 136, 153, 154,
	},
}

var hevcSigChroma = [NumInitTypes][15]uint8{
	{140, 139, 182, 182, 152, 136, 152, 136, 153, 136, 139, 111, 136, 139, 111},
	{170, 153, 123, 123, 107, 121, 107, 121, 167, 151, 183, 140, 151, 183, 140},
	{170, 153, 138, 138, 122, 121, 122, 121, 167, 151, 183, 140, 151, 183, 140},
}

var hevcGreater1Luma = [NumInitTypes][16]uint8{
	{140, 92, 137, 138, 140, 152, 138, 139, 153, 74, 149, 92, 139, 107, 122, 152},
	{154, 196, 196, 167, 154, 152, 167, 182, 182, 134, 149, 136, 153, 121, 136, 137},
	{154, 196, 167, 167, 154, 152, 167, 182, 182, 134, 149, 136, 153, 121, 136, 122},
}

var hevcGreater1Chroma = [NumInitTypes][8]uint8{
	{140, 179, 166, 182, 140, 227, 122, 197},
	{169, 194, 166, 167, 154, 167, 137, 182},
	{169, 208, 166, 167, 154, 152, 167, 182},
}

var hevcGreater2 = [NumInitTypes][6]uint8{
	{138, 153, 136, 167, 152, 152},
	{107, 167, 91, 122, 107, 167},
	{107, 167, 91, 107, 107, 167},
}

// span places HEVC values at offset at of a context range.
type span struct {
	at   int
	vals []uint8
}

// buildRows returns n contexts per init type, cnu except where a span
// from spans(initType) covers them.
func buildRows(n int, spans func(it int) []span) [NumInitTypes][]uint8 {
	var rows [NumInitTypes][]uint8
	for it := range rows {
		r := make([]uint8, n)
		for i := range r {
			r[i] = cnu
		}
		for _, s := range spans(it) {
			copy(r[s.at:], s.vals)
		}
		rows[it] = r
	}
	return rows
}

// Last position prefix: luma 0..19 (15..19 serve 64-point sides), chroma
// 20..22. Both axes share the table.
var initLastPrefix = buildRows(NumLastPrefixCtx, func(it int) []span {
	return []span{{0, hevcLastLuma[it][:]}, {20, hevcLastChroma[it][:]}}
})

// sb_coded_flag: luma 0..1, chroma 2..3, transform skip 4..6.
var initSbCodedFlag = buildRows(NumSbCodedCtx, func(it int) []span {
	return []span{{0, hevcCodedSubBlock[it][:]}}
})

// sig_coeff_flag: luma 0..35, chroma 36..59, transform skip 60..62. Each
// component takes the HEVC values of its own component in order.
var initSigCoeffFlag = buildRows(NumSigCtx, func(it int) []span {
	return []span{{0, hevcSigLuma[it][:]}, {36, hevcSigChroma[it][:]}}
})

// par_level_flag has no HEVC counterpart.
var initParLevelFlag = buildRows(NumParCtx, func(int) []span { return nil })

// abs_level_gtx_flag: the first flag (0..31, luma then chroma) takes the
// greater1 values, the second (32..63) the greater2 values, transform
// skip (64..71) none.
var initAbsLevelGtxFlag = buildRows(NumGtxCtx, func(it int) []span {
	g2 := hevcGreater2[it]
	return []span{
		{0, hevcGreater1Luma[it][:]},
		{21, hevcGreater1Chroma[it][:]},
		{32, g2[:4]},
		{32 + 21, g2[4:]},
	}
})

// coeff_sign_flag is context coded only in transform-skip blocks; HEVC
// codes signs in bypass.
var initCoeffSignFlag = buildRows(NumSignCtx, func(int) []span { return nil })
