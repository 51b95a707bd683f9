// Package binarize maps syntax element values to bin strings and back.
//
// Every function here is pure: the encoder side returns a Bins value that
// the caller feeds to the arithmetic coder bin by bin, and the Parse side
// pulls bins one at a time from a Source and rebuilds the value.
package binarize

import "math/bits"

// MaxBins is the longest bin string a Bins value can hold.
const MaxBins = 64

// Bins is a bin string. The first bin sits in the most significant of the N
// low bits of Value.
type Bins struct {
	Value uint64
	N     int
}

// At returns bin i (0 = first emitted).
func (b Bins) At(i int) int {
	return int(b.Value>>uint(b.N-1-i)) & 1
}

// Append concatenates o after b.
func (b Bins) Append(o Bins) Bins {
	if b.N+o.N > MaxBins {
		panic("binarize: bin string longer than 64 bins")
	}
	if o.N == 0 {
		return b
	}
	return Bins{Value: b.Value<<uint(o.N) | o.Value, N: b.N + o.N}
}

// String renders the bins as 0/1 characters.
func (b Bins) String() string {
	buf := make([]byte, b.N)
	for i := range buf {
		buf[i] = '0' + byte(b.At(i))
	}
	return string(buf)
}

func ones(n int) Bins {
	if n > MaxBins {
		panic("binarize: bin string longer than 64 bins")
	}
	if n == 0 {
		return Bins{}
	}
	return Bins{Value: 1<<uint(n) - 1, N: n}
}

func field(v uint64, n int) Bins {
	if n == 0 {
		return Bins{}
	}
	return Bins{Value: v & (1<<uint(n) - 1), N: n}
}

// FixedLengthWidth returns the number of bins used by FixedLength for cMax:
// ceil(log2(cMax+1)).
func FixedLengthWidth(cMax uint32) int {
	return bits.Len32(cMax)
}

// FixedLength codes v in [0, cMax] as an unsigned FixedLengthWidth(cMax)-bin
// number, most significant bin first.
func FixedLength(v, cMax uint32) Bins {
	if v > cMax {
		panic("binarize: fixed-length value above cMax")
	}
	return field(uint64(v), FixedLengthWidth(cMax))
}

// TruncatedRice codes v in [0, cMax]: a unary prefix of v>>rice capped at
// cMax>>rice ones, followed by the rice low bits of v unless the prefix hit
// the cap. cMax must be a multiple of 1<<rice.
func TruncatedRice(v, cMax uint32, rice uint) Bins {
	if v > cMax {
		panic("binarize: truncated-rice value above cMax")
	}
	if cMax&(1<<rice-1) != 0 {
		panic("binarize: truncated-rice cMax not aligned to rice parameter")
	}
	prefix := v >> rice
	capVal := cMax >> rice
	if prefix == capVal {
		return ones(int(capVal))
	}
	out := ones(int(prefix)).Append(Bins{Value: 0, N: 1})
	return out.Append(field(uint64(v), int(rice)))
}

// TruncatedUnary is TruncatedRice with a zero rice parameter.
func TruncatedUnary(v, cMax uint32) Bins {
	return TruncatedRice(v, cMax, 0)
}

// TruncatedBinary codes v in [0, cMax] with floor(log2(cMax+1)) bins for the
// first u values and one more bin for the rest, where u makes the code
// complete.
func TruncatedBinary(v, cMax uint32) Bins {
	if v > cMax {
		panic("binarize: truncated-binary value above cMax")
	}
	n := cMax + 1
	k := bits.Len32(n) - 1
	u := uint32(1)<<uint(k+1) - n
	if v < u {
		return field(uint64(v), k)
	}
	return field(uint64(v+u), k+1)
}

// ExpGolomb codes v with the k-th order Exp-Golomb code: p leading ones and
// a zero select a suffix of p+k bins, and v = ((1<<p)-1)<<k + suffix.
func ExpGolomb(v uint32, k uint) Bins {
	var out Bins
	rem := uint64(v)
	for rem >= 1<<k {
		out = out.Append(Bins{Value: 1, N: 1})
		rem -= 1 << k
		k++
	}
	out = out.Append(Bins{Value: 0, N: 1})
	return out.Append(field(rem, int(k)))
}

// LimitedExpGolomb codes v with the k-th order Exp-Golomb code whose
// prefix is capped at maxPrefix ones. A capped prefix has no terminating
// zero and is followed by an escape field of escapeBits bins instead of
// the usual p+k.
func LimitedExpGolomb(v uint32, k uint, maxPrefix, escapeBits int) Bins {
	code := uint64(v) >> k
	p := 0
	for p < maxPrefix && code > uint64(2)<<uint(p)-2 {
		p++
	}
	out := ones(p)
	n := p + int(k)
	if p == maxPrefix {
		n = escapeBits
	} else {
		out = out.Append(Bins{Value: 0, N: 1})
	}
	rem := uint64(v) - (uint64(1)<<uint(p)-1)<<k
	if rem>>uint(n) != 0 {
		panic("binarize: value exceeds the escape range")
	}
	return out.Append(field(rem, n))
}

// RemainderCutoff is the number of truncated-rice prefix steps before an
// abs_remainder switches to its Exp-Golomb escape.
const RemainderCutoff = 4

// Escape limits of the residual magnitude suffix: the Exp-Golomb prefix
// stops after MaxPrefixExtLen ones and a Log2TransformRange-bin field
// follows.
const (
	Log2TransformRange = 15
	MaxPrefixExtLen    = 26 - Log2TransformRange
)

// AbsRemainder codes the residual magnitude syntax (abs_remainder and
// dec_abs_level): a truncated-rice prefix with cMax = 4<<rice and, when v
// reaches cMax, a limited Exp-Golomb suffix of order rice+1 carrying
// v-cMax.
func AbsRemainder(v uint32, rice uint) Bins {
	cMax := uint32(RemainderCutoff) << rice
	if v < cMax {
		return TruncatedRice(v, cMax, rice)
	}
	return TruncatedRice(cMax, cMax, rice).Append(
		LimitedExpGolomb(v-cMax, rice+1, MaxPrefixExtLen, Log2TransformRange))
}
