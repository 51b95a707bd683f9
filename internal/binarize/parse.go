package binarize

// Source supplies decoded bins one at a time.
type Source func() int

// ParseFixedLength reads a FixedLength bin string.
func ParseFixedLength(next Source, cMax uint32) uint32 {
	var v uint32
	for i := FixedLengthWidth(cMax); i > 0; i-- {
		v = v<<1 | uint32(next())
	}
	return v
}

// ParseTruncatedRice reads a TruncatedRice bin string.
func ParseTruncatedRice(next Source, cMax uint32, rice uint) uint32 {
	capVal := cMax >> rice
	var prefix uint32
	for prefix < capVal && next() == 1 {
		prefix++
	}
	if prefix == capVal {
		return cMax
	}
	v := prefix
	for i := uint(0); i < rice; i++ {
		v = v<<1 | uint32(next())
	}
	return v
}

// ParseTruncatedBinary reads a TruncatedBinary bin string.
func ParseTruncatedBinary(next Source, cMax uint32) uint32 {
	n := cMax + 1
	k := 0
	for n>>uint(k+1) != 0 {
		k++
	}
	u := uint32(1)<<uint(k+1) - n
	var v uint32
	for i := 0; i < k; i++ {
		v = v<<1 | uint32(next())
	}
	if v < u {
		return v
	}
	return (v<<1 | uint32(next())) - u
}

// ParseExpGolomb reads a k-th order Exp-Golomb bin string.
func ParseExpGolomb(next Source, k uint) uint32 {
	var base uint64
	for next() == 1 {
		base += 1 << k
		k++
		if k > 32 {
			panic("binarize: exp-golomb prefix too long")
		}
	}
	var suffix uint64
	for i := uint(0); i < k; i++ {
		suffix = suffix<<1 | uint64(next())
	}
	return uint32(base + suffix)
}

// ParseLimitedExpGolomb reads a LimitedExpGolomb bin string.
func ParseLimitedExpGolomb(next Source, k uint, maxPrefix, escapeBits int) uint32 {
	p := 0
	for p < maxPrefix && next() == 1 {
		p++
	}
	n := p + int(k)
	if p == maxPrefix {
		n = escapeBits
	}
	var suffix uint64
	for i := 0; i < n; i++ {
		suffix = suffix<<1 | uint64(next())
	}
	return uint32((uint64(1)<<uint(p)-1)<<k + suffix)
}

// ParseAbsRemainder reads an AbsRemainder bin string.
func ParseAbsRemainder(next Source, rice uint) uint32 {
	cMax := uint32(RemainderCutoff) << rice
	v := ParseTruncatedRice(next, cMax, rice)
	if v < cMax {
		return v
	}
	return cMax + ParseLimitedExpGolomb(next, rice+1, MaxPrefixExtLen, Log2TransformRange)
}
