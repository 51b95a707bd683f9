// Package pool provides bucketed sync.Pool instances for the per-block
// scratch planes of the residual coder. Buffers are organized by transform
// block area so a 4x4 block never holds a 64x64 plane.
package pool

import "sync"

// Size classes, in elements, for bucketed pools.
const (
	Size4x4   = 16
	Size8x8   = 64
	Size16x16 = 256
	Size32x32 = 1024
	Size64x64 = 4096
)

// bucketIndex returns the pool index for a given element count.
func bucketIndex(size int) int {
	switch {
	case size <= Size4x4:
		return 0
	case size <= Size8x8:
		return 1
	case size <= Size16x16:
		return 2
	case size <= Size32x32:
		return 3
	default:
		return 4
	}
}

var sizes = [5]int{Size4x4, Size8x8, Size16x16, Size32x32, Size64x64}

var pools [5]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]int32, sz)
				return &b
			},
		}
	}
}

// Get returns a zeroed int32 plane of the requested size from the pool.
// The returned slice has length == size and may have a larger capacity.
// The caller must call Put when done.
func Get(size int) []int32 {
	idx := bucketIndex(size)
	bp := pools[idx].Get().(*[]int32)
	b := *bp
	if cap(b) < size {
		return make([]int32, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put returns a plane to the pool. The slice must have been obtained from
// Get. Planes larger than Size64x64 are dropped.
func Put(b []int32) {
	c := cap(b)
	if c < Size4x4 || c > Size64x64 {
		return
	}
	idx := bucketIndex(c)
	if sizes[idx] != c {
		// Not one of ours (or a reallocation): file it under the class it
		// fully covers.
		if idx == 0 {
			return
		}
		idx--
	}
	b = b[:c]
	pools[idx].Put(&b)
}
