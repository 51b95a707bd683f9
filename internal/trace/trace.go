// Package trace records the syntax elements of a coding session as text,
// one element per line, optionally zstd-compressed.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Writer formats trace lines. Write errors are sticky and reported by Err
// and Close.
type Writer struct {
	bw    *bufio.Writer
	zw    *zstd.Encoder
	file  *os.File
	block int
	n     int
	err   error
}

// NewWriter returns a Writer emitting plain text to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// NewCompressedWriter returns a Writer emitting a zstd stream to w.
func NewCompressedWriter(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, "trace: zstd writer")
	}
	return &Writer{bw: bufio.NewWriter(zw), zw: zw}, nil
}

// Create opens a trace file. Paths ending in ".zst" are compressed.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "trace: create")
	}
	var t *Writer
	if strings.HasSuffix(path, ".zst") {
		if t, err = NewCompressedWriter(f); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		t = NewWriter(f)
	}
	t.file = f
	return t, nil
}

// Begin starts the section of a new block.
func (t *Writer) Begin(label string) {
	t.block++
	t.printf("# block %d %s\n", t.block, label)
}

// Element writes one syntax element. A negative x marks an element that
// belongs to the whole block.
func (t *Writer) Element(name string, x, y, value int) {
	t.n++
	if x < 0 {
		t.printf("%-26s %d\n", name, value)
		return
	}
	t.printf("%-26s (%d,%d) %d\n", name, x, y, value)
}

// Count returns the number of elements written.
func (t *Writer) Count() int { return t.n }

func (t *Writer) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.bw, format, args...)
}

// Err returns the first write error.
func (t *Writer) Err() error { return t.err }

// Close flushes the trace and closes the compressor and file it owns.
func (t *Writer) Close() error {
	err := t.err
	if ferr := t.bw.Flush(); err == nil {
		err = ferr
	}
	if t.zw != nil {
		if cerr := t.zw.Close(); err == nil {
			err = cerr
		}
	}
	if t.file != nil {
		if cerr := t.file.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "trace: close")
}

// NewReader returns the text of a trace read from r, decompressing it when
// it starts with the zstd frame magic.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(4)
	if len(magic) == 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd {
		d, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "trace: zstd reader")
		}
		return d.IOReadCloser(), nil
	}
	return io.NopCloser(br), nil
}
