package scan

import (
	"fmt"
	"testing"
)

func TestDiagonal_Coverage(t *testing.T) {
	for lw := 0; lw <= MaxLog2Size; lw++ {
		for lh := 0; lh <= MaxLog2Size; lh++ {
			w, h := 1<<uint(lw), 1<<uint(lh)
			order := Diagonal(lw, lh)
			if len(order) != w*h {
				t.Fatalf("%dx%d: len = %d, want %d", w, h, len(order), w*h)
			}
			seen := make([]bool, w*h)
			for i, p := range order {
				if int(p.X) >= w || int(p.Y) >= h {
					t.Fatalf("%dx%d: index %d out of block: %+v", w, h, i, p)
				}
				k := int(p.Y)*w + int(p.X)
				if seen[k] {
					t.Fatalf("%dx%d: %+v visited twice", w, h, p)
				}
				seen[k] = true
			}
		}
	}
}

func TestDiagonal_4x4Order(t *testing.T) {
	want := []Pos{
		{0, 0},
		{0, 1}, {1, 0},
		{0, 2}, {1, 1}, {2, 0},
		{0, 3}, {1, 2}, {2, 1}, {3, 0},
		{1, 3}, {2, 2}, {3, 1},
		{2, 3}, {3, 2},
		{3, 3},
	}
	got := Diagonal(2, 2)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDiagonal_AntiDiagonalsNonDecreasing(t *testing.T) {
	for lw := 0; lw <= MaxLog2Size; lw++ {
		for lh := 0; lh <= MaxLog2Size; lh++ {
			order := Diagonal(lw, lh)
			for i := 1; i < len(order); i++ {
				prev := int(order[i-1].X) + int(order[i-1].Y)
				cur := int(order[i].X) + int(order[i].Y)
				if cur < prev {
					t.Fatalf("%dx%d: diagonal decreases at %d", lw, lh, i)
				}
			}
		}
	}
}

func TestDiagonal_Cached(t *testing.T) {
	a := Diagonal(3, 2)
	b := Diagonal(3, 2)
	if &a[0] != &b[0] {
		t.Error("Diagonal rebuilt the table on a second call")
	}
}

func TestSubBlockShape(t *testing.T) {
	tests := []struct {
		lw, lh       int
		wantW, wantH int
	}{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{1, 2, 1, 1},
		{2, 1, 1, 1},
		{2, 2, 2, 2},
		{3, 3, 2, 2},
		{6, 6, 2, 2},
		{5, 2, 2, 2},
		{1, 3, 1, 3},
		{3, 1, 3, 1},
		{0, 4, 0, 4},
		{6, 0, 4, 0},
		{1, 6, 1, 3},
		{0, 2, 0, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", 1<<uint(tt.lw), 1<<uint(tt.lh)), func(t *testing.T) {
			w, h := SubBlockShape(tt.lw, tt.lh)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("SubBlockShape(%d,%d) = (%d,%d), want (%d,%d)", tt.lw, tt.lh, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSubBlockShape_SixteenWhenDegenerate(t *testing.T) {
	for lw := 0; lw <= MaxLog2Size; lw++ {
		for lh := 0; lh <= MaxLog2Size; lh++ {
			if lw+lh < 4 || min(lw, lh) >= 2 {
				continue
			}
			w, h := SubBlockShape(lw, lh)
			if w+h != 4 {
				t.Errorf("%dx%d: sub-block holds %d coefficients, want 16", lw, lh, 1<<uint(w+h))
			}
		}
	}
}

func TestLayout_Coverage(t *testing.T) {
	for lw := 0; lw <= MaxLog2Size; lw++ {
		for lh := 0; lh <= MaxLog2Size; lh++ {
			l := For(lw, lh)
			w, h := l.Width(), l.Height()
			if l.NumSubBlocks()*l.SubBlockSize() != w*h {
				t.Fatalf("%dx%d: %d sub-blocks of %d do not tile the block", w, h, l.NumSubBlocks(), l.SubBlockSize())
			}
			seen := make([]bool, w*h)
			for i := 0; i < l.NumSubBlocks(); i++ {
				for n := 0; n < l.SubBlockSize(); n++ {
					x, y := l.Coeff(i, n)
					if x >= w || y >= h {
						t.Fatalf("%dx%d: (%d,%d) outside block", w, h, x, y)
					}
					if seen[y*w+x] {
						t.Fatalf("%dx%d: (%d,%d) visited twice", w, h, x, y)
					}
					seen[y*w+x] = true
					if gi, gn := l.Locate(x, y); gi != i || gn != n {
						t.Fatalf("%dx%d: Locate(%d,%d) = (%d,%d), want (%d,%d)", w, h, x, y, gi, gn, i, n)
					}
				}
			}
		}
	}
}

func TestLayout_ScanIndex(t *testing.T) {
	l := For(2, 2)
	if got := l.ScanIndex(2, 1); got != 8 {
		t.Errorf("ScanIndex(2,1) = %d, want 8", got)
	}
	if got := l.ScanIndex(1, 1); got != 4 {
		t.Errorf("ScanIndex(1,1) = %d, want 4", got)
	}
	l = For(3, 3)
	// Sub-blocks run (0,0), (0,1), (1,0), (1,1); (4,0) opens the third.
	if got := l.ScanIndex(4, 0); got != 32 {
		t.Errorf("8x8 ScanIndex(4,0) = %d, want 32", got)
	}
}

func TestOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Diagonal(7, 0) did not panic")
		}
	}()
	Diagonal(MaxLog2Size+1, 0)
}
