// Package vvc codes the residual coefficients of VVC (H.266) transform
// blocks with CABAC.
//
// An Encoder turns blocks of quantized levels into the residual_coding and
// residual_ts_coding syntax of a slice, adapting its context models as it
// goes; a Decoder parses the same syntax back. Both follow the slice
// configuration they were created with: slice type and QP select the
// context initialization, and the dependent quantization and sign hiding
// flags change which bins are coded.
//
// Basic usage for encoding:
//
//	enc, err := vvc.NewEncoder(vvc.DefaultSliceConfig())
//	err = enc.EncodeBlock(blk)
//	data, err := enc.Finish()
//
// Basic usage for decoding:
//
//	dec, err := vvc.NewDecoder(data, vvc.DefaultSliceConfig())
//	blk := vvc.NewBlock(8, 8, vvc.Luma)
//	err = dec.DecodeBlock(blk)
//	err = dec.End()
//
// Blocks must be decoded with the same size, channel and transform-skip
// flags they were encoded with; those live in the coding unit syntax, not
// in the residual.
package vvc
