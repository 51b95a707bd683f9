package vvc

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func randomLevels(rng *rand.Rand, b *Block, zw, zh int) {
	density := rng.Float64()
	for y := 0; y < zh; y++ {
		for x := 0; x < zw; x++ {
			if rng.Float64() >= density {
				continue
			}
			var v int32
			switch r := rng.Intn(10); {
			case r < 6:
				v = 1 + rng.Int31n(2)
			case r < 9:
				v = 3 + rng.Int31n(30)
			default:
				v = 33 + rng.Int31n(2000)
			}
			if rng.Intn(2) == 0 {
				v = -v
			}
			b.Set(x, y, v)
		}
	}
	if b.At(0, 0) == 0 {
		b.Set(0, 0, 1)
	}
}

// randomSlice draws blocks that are valid under cfg.
func randomSlice(t *testing.T, rng *rand.Rand, cfg SliceConfig, n int) []*Block {
	t.Helper()
	sizes := []int{1, 2, 4, 8, 16, 32, 64}
	blocks := make([]*Block, n)
	for i := range blocks {
		ts := rng.Intn(4) == 0
		k := len(sizes)
		if ts {
			k--
		}
		b := NewBlock(sizes[rng.Intn(k)], sizes[rng.Intn(k)], Channel(rng.Intn(3)))
		b.TransformSkip = ts
		if ts && rng.Intn(2) == 0 {
			b.BDPCM = BDPCM(1 + rng.Intn(2))
		}
		zw, zh := b.Width, b.Height
		if zw > 32 {
			zw = 32
		}
		if zh > 32 {
			zh = 32
		}
		randomLevels(rng, b, zw, zh)
		if _, err := PrepareSignHiding(cfg, b); err != nil {
			t.Fatalf("PrepareSignHiding: %v", err)
		}
		blocks[i] = b
	}
	return blocks
}

func cloneShapes(blocks []*Block) []*Block {
	out := make([]*Block, len(blocks))
	for i, b := range blocks {
		c := *b
		c.Levels = nil
		out[i] = &c
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	configs := []struct {
		name string
		cfg  SliceConfig
	}{
		{"intra", DefaultSliceConfig()},
		{"intra-noSDH", SliceConfig{Type: SliceI, QP: 22}},
		{"P-depquant", SliceConfig{Type: SliceP, QP: 37, DepQuant: true, SignHiding: true}},
		{"B-cabacinit", SliceConfig{Type: SliceB, QP: 27, CabacInitFlag: true, SignHiding: true}},
		{"ts-disabled", SliceConfig{Type: SliceI, QP: 12, SignHiding: true, TSResidualCodingDisabled: true}},
	}
	for ci, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(ci + 1)))
			blocks := randomSlice(t, rng, tc.cfg, 40)
			data, err := EncodeSlice(tc.cfg, blocks)
			if err != nil {
				t.Fatalf("EncodeSlice: %v", err)
			}
			got := cloneShapes(blocks)
			if err := DecodeSlice(data, tc.cfg, got); err != nil {
				t.Fatalf("DecodeSlice: %v", err)
			}
			for i := range blocks {
				for k := range blocks[i].Levels {
					if got[i].Levels[k] != blocks[i].Levels[k] {
						t.Fatalf("block %d (%dx%d): level %d = %d, want %d",
							i, blocks[i].Width, blocks[i].Height, k, got[i].Levels[k], blocks[i].Levels[k])
					}
				}
			}
		})
	}
}

func TestRoundTrip_ObservationsAndContexts(t *testing.T) {
	cfg := DefaultSliceConfig()
	rng := rand.New(rand.NewSource(7))
	blocks := randomSlice(t, rng, cfg, 12)

	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range blocks {
		if err := enc.EncodeBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	encObs := enc.Observations()
	encCtx := enc.SaveContexts()
	data, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}

	dec, err := NewDecoder(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range cloneShapes(blocks) {
		if err := dec.DecodeBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	if dec.Observations() != encObs {
		t.Errorf("decoder observations %+v, encoder %+v", dec.Observations(), encObs)
	}
	if dec.SaveContexts() != encCtx {
		t.Error("decoder contexts differ from encoder contexts")
	}
	if err := dec.End(); err != nil {
		t.Errorf("End: %v", err)
	}
	if dec.Blocks() != len(blocks) || enc.Blocks() != len(blocks) {
		t.Errorf("block counts %d/%d, want %d", enc.Blocks(), dec.Blocks(), len(blocks))
	}
}

func TestEncoder_Errors(t *testing.T) {
	lv := func(w, h int, set func(b *Block)) *Block {
		b := NewBlock(w, h, Luma)
		set(b)
		return b
	}
	tests := []struct {
		name string
		b    *Block
		want error
	}{
		{"width 3", &Block{Width: 3, Height: 4, Levels: make([]int32, 12)}, ErrBlockSize},
		{"width 128", &Block{Width: 128, Height: 4, Levels: make([]int32, 512)}, ErrBlockSize},
		{"ts 64", &Block{Width: 64, Height: 4, TransformSkip: true, Levels: make([]int32, 256)}, ErrBlockSize},
		{"level count", &Block{Width: 4, Height: 4, Levels: make([]int32, 15)}, ErrLevelCount},
		{"level range", lv(4, 4, func(b *Block) { b.Set(1, 1, MaxLevel+1) }), ErrLevelRange},
		{"empty", NewBlock(8, 8, Cb), ErrEmptyBlock},
		{"zero-out", lv(64, 64, func(b *Block) { b.Set(40, 0, 1) }), ErrZeroOut},
		{"sign parity", lv(4, 4, func(b *Block) { b.Set(0, 0, -1); b.Set(1, 1, 1) }), ErrSignParity},
		{"bdpcm", &Block{Width: 4, Height: 4, BDPCM: BDPCMVertical, Levels: make([]int32, 16)}, ErrBDPCM},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := NewEncoder(DefaultSliceConfig())
			if err != nil {
				t.Fatal(err)
			}
			err = enc.EncodeBlock(tc.b)
			if !errors.Is(err, tc.want) {
				t.Errorf("EncodeBlock = %v, want %v", err, tc.want)
			}
			if enc.Blocks() != 0 {
				t.Error("rejected block was counted")
			}
		})
	}
}

func TestEncoder_ZeroOutIgnoredForTransformSkip(t *testing.T) {
	b := NewBlock(32, 32, Luma)
	b.TransformSkip = true
	b.Set(31, 31, 5)
	if _, err := EncodeSlice(DefaultSliceConfig(), []*Block{b}); err != nil {
		t.Fatalf("EncodeSlice: %v", err)
	}
}

func TestSliceConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg  SliceConfig
		want error
	}{
		{SliceConfig{Type: SliceI, QP: 0}, nil},
		{SliceConfig{Type: SliceB, QP: MaxQP}, nil},
		{SliceConfig{Type: SliceI, QP: -1}, ErrQP},
		{SliceConfig{Type: SliceP, QP: 64}, ErrQP},
		{SliceConfig{Type: SliceType(3), QP: 30}, ErrSliceType},
	}
	for _, tc := range tests {
		_, err := NewEncoder(tc.cfg)
		if !errors.Is(err, tc.want) {
			t.Errorf("NewEncoder(%+v) = %v, want %v", tc.cfg, err, tc.want)
		}
		_, err = NewDecoder(nil, tc.cfg)
		if !errors.Is(err, tc.want) {
			t.Errorf("NewDecoder(%+v) = %v, want %v", tc.cfg, err, tc.want)
		}
	}
}

func TestEncoder_Finished(t *testing.T) {
	enc, _ := NewEncoder(DefaultSliceConfig())
	if _, err := enc.Finish(); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Finish(); !errors.Is(err, ErrFinished) {
		t.Errorf("second Finish = %v, want ErrFinished", err)
	}
	b := NewBlock(4, 4, Luma)
	b.Set(0, 0, 1)
	if err := enc.EncodeBlock(b); !errors.Is(err, ErrFinished) {
		t.Errorf("EncodeBlock after Finish = %v, want ErrFinished", err)
	}
}

func TestPrepareSignHiding(t *testing.T) {
	cfg := DefaultSliceConfig()
	b := NewBlock(4, 4, Luma)
	b.Set(0, 0, -1)
	b.Set(1, 1, 1)
	n, err := PrepareSignHiding(cfg, b)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || b.At(0, 0) != -2 {
		t.Fatalf("changed %d, (0,0) = %d; want 1 and -2", n, b.At(0, 0))
	}
	if n, _ := PrepareSignHiding(cfg, b); n != 0 {
		t.Errorf("second pass changed %d sub-blocks", n)
	}

	data, err := EncodeSlice(cfg, []*Block{b})
	if err != nil {
		t.Fatal(err)
	}
	got := cloneShapes([]*Block{b})
	if err := DecodeSlice(data, cfg, got); err != nil {
		t.Fatal(err)
	}
	if got[0].At(0, 0) != -2 || got[0].At(1, 1) != 1 {
		t.Errorf("decoded (0,0)=%d (1,1)=%d", got[0].At(0, 0), got[0].At(1, 1))
	}

	// Dependent quantization disables hiding: nothing to adjust.
	dq := SliceConfig{Type: SliceI, QP: 30, DepQuant: true, SignHiding: true}
	c := NewBlock(4, 4, Luma)
	c.Set(0, 0, -1)
	c.Set(1, 1, 1)
	if n, _ := PrepareSignHiding(dq, c); n != 0 {
		t.Errorf("dependent quantization: changed %d sub-blocks", n)
	}
}

func TestEstimateBits(t *testing.T) {
	cfg := DefaultSliceConfig()
	enc, _ := NewEncoder(cfg)
	small := NewBlock(4, 4, Luma)
	small.Set(0, 0, 1)
	big := NewBlock(16, 16, Luma)
	for i := range big.Levels {
		big.Levels[i] = int32(i%7) - 3
	}
	if _, err := PrepareSignHiding(cfg, big); err != nil {
		t.Fatal(err)
	}

	before := enc.SaveContexts()
	bs, err := enc.EstimateBits(small)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := enc.EstimateBits(big)
	if err != nil {
		t.Fatal(err)
	}
	if enc.SaveContexts() != before {
		t.Error("EstimateBits adapted the contexts")
	}
	if enc.BitCount() != 0 {
		t.Errorf("EstimateBits wrote %d bits", enc.BitCount())
	}
	if bs <= 0 || bb <= bs {
		t.Errorf("estimates small=%.2f big=%.2f", bs, bb)
	}
	if _, err := enc.EstimateBits(NewBlock(4, 4, Luma)); !errors.Is(err, ErrEmptyBlock) {
		t.Errorf("empty block estimate error = %v", err)
	}
}

func TestContexts_SaveRestoreReset(t *testing.T) {
	cfg := DefaultSliceConfig()
	enc, _ := NewEncoder(cfg)
	initial := enc.SaveContexts()
	b := NewBlock(8, 8, Luma)
	b.Set(0, 0, 3)
	b.Set(1, 0, -1)
	if err := enc.EncodeBlock(b); err != nil {
		t.Fatal(err)
	}
	adapted := enc.SaveContexts()
	if adapted == initial {
		t.Fatal("coding a block did not adapt any context")
	}
	enc.ResetContexts()
	if enc.SaveContexts() != initial {
		t.Error("ResetContexts did not restore the initial state")
	}
	enc.RestoreContexts(adapted)
	if enc.SaveContexts() != adapted {
		t.Error("RestoreContexts did not restore the saved state")
	}
}

func TestObservations_Reset(t *testing.T) {
	enc, _ := NewEncoder(DefaultSliceConfig())
	b := NewBlock(16, 16, Luma)
	b.Set(15, 15, 1)
	if err := enc.EncodeBlock(b); err != nil {
		t.Fatal(err)
	}
	if enc.Observations() == NewObservations() {
		t.Fatal("a level at (15,15) cleared no observation")
	}
	if enc.Observations().MtsDCOnly {
		t.Error("MtsDCOnly still set")
	}
	enc.ResetObservations()
	if enc.Observations() != NewObservations() {
		t.Error("ResetObservations left flags cleared")
	}
}

type recordingTracer struct {
	begins []string
	elems  []string
}

func (r *recordingTracer) Begin(label string) { r.begins = append(r.begins, label) }

func (r *recordingTracer) Element(name string, x, y, value int) {
	r.elems = append(r.elems, fmt.Sprintf("%s(%d,%d)=%d", name, x, y, value))
}

func TestTracer(t *testing.T) {
	cfg := DefaultSliceConfig()
	b := NewBlock(8, 4, Cb)
	b.Set(0, 0, 2)
	b.Set(3, 1, -1)
	if n, err := PrepareSignHiding(cfg, b); err != nil || n != 1 {
		t.Fatalf("PrepareSignHiding = %d, %v; want one adjusted sub-block", n, err)
	}

	var et, dt recordingTracer
	enc, _ := NewEncoder(cfg)
	enc.SetTracer(&et)
	if err := enc.EncodeBlock(b); err != nil {
		t.Fatal(err)
	}
	data, _ := enc.Finish()

	dec, _ := NewDecoder(data, cfg)
	dec.SetTracer(&dt)
	got := NewBlock(8, 4, Cb)
	if err := dec.DecodeBlock(got); err != nil {
		t.Fatal(err)
	}
	if len(et.begins) != 1 || et.begins[0] != "Cb 8x4" {
		t.Errorf("encoder begins %q", et.begins)
	}
	if len(et.elems) == 0 || len(et.elems) != len(dt.elems) {
		t.Fatalf("encoder traced %d elements, decoder %d", len(et.elems), len(dt.elems))
	}
	for i := range et.elems {
		if et.elems[i] != dt.elems[i] {
			t.Errorf("element %d: %s vs %s", i, et.elems[i], dt.elems[i])
		}
	}
}

func TestDecoder_Truncated(t *testing.T) {
	cfg := DefaultSliceConfig()
	b := NewBlock(32, 32, Luma)
	rng := rand.New(rand.NewSource(3))
	for i := range b.Levels {
		b.Levels[i] = 100 + rng.Int31n(1000)
	}
	if _, err := PrepareSignHiding(cfg, b); err != nil {
		t.Fatal(err)
	}
	data, err := EncodeSlice(cfg, []*Block{b})
	if err != nil {
		t.Fatal(err)
	}
	dec, _ := NewDecoder(data[:len(data)/4], cfg)
	err = dec.DecodeBlock(NewBlock(32, 32, Luma))
	if err == nil {
		err = dec.End()
	}
	if !errors.Is(err, ErrTruncated) && !errors.Is(err, ErrCorrupt) {
		t.Errorf("truncated payload: err = %v", err)
	}
}

func TestDecoder_MissingEnd(t *testing.T) {
	dec, err := NewDecoder(make([]byte, 4), DefaultSliceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.End(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("End = %v, want ErrCorrupt", err)
	}
	if err := dec.End(); !errors.Is(err, ErrFinished) {
		t.Errorf("second End = %v, want ErrFinished", err)
	}
}

func TestReconstruct(t *testing.T) {
	b := NewBlock(4, 4, Luma)
	b.Set(0, 0, 1)
	b.Set(1, 0, 1)
	plain, err := Reconstruct(DefaultSliceConfig(), b)
	if err != nil {
		t.Fatal(err)
	}
	if plain[0] != 1 || plain[1] != 1 {
		t.Errorf("without dependent quantization got %v", plain[:2])
	}
	if _, err := Reconstruct(DefaultSliceConfig(), &Block{Width: 5, Height: 4}); !errors.Is(err, ErrBlockSize) {
		t.Errorf("bad size: %v", err)
	}
}
