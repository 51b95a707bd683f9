// Command vvcres codes blocks of quantized VVC transform levels with the
// residual CABAC syntax from the command line.
//
// Usage:
//
//	vvcres enc [options] <blocks.json>             blocks → slice payload (use "-" for stdin)
//	vvcres verify [options] <blocks.json> <payload> decode payload and compare with blocks
//	vvcres info [options] <blocks.json>            per-block bit estimates and observations
//	vvcres scan <width> <height>                   print the coefficient scan order
//	vvcres trace <file>                            print a trace written by -trace
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/deepteams/vvc"
	"github.com/deepteams/vvc/internal/scan"
	"github.com/deepteams/vvc/internal/trace"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:], os.Stdout)
	case "verify":
		err = runVerify(os.Args[2:], os.Stdout)
	case "info":
		err = runInfo(os.Args[2:], os.Stdout)
	case "scan":
		err = runScan(os.Args[2:], os.Stdout)
	case "trace":
		err = runTrace(os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vvcres: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "vvcres: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  vvcres enc [options] <blocks.json>               Encode blocks into a slice payload
  vvcres verify [options] <blocks.json> <payload>  Decode a payload and compare it with blocks
  vvcres info [options] <blocks.json>              Estimate the cost of each block
  vvcres scan <width> <height>                     Print the coefficient scan order
  vvcres trace <file>                              Print a syntax element trace

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "vvcres <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// --- block files ---

// blockFile is the JSON layout of a block list.
type blockFile struct {
	Blocks []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Channel       string  `json:"channel,omitempty"`
	TransformSkip bool    `json:"transformSkip,omitempty"`
	BDPCM         string  `json:"bdpcm,omitempty"`
	Levels        []int32 `json:"levels"`
}

func parseChannel(s string) (vvc.Channel, error) {
	switch strings.ToLower(s) {
	case "", "y", "luma":
		return vvc.Luma, nil
	case "cb":
		return vvc.Cb, nil
	case "cr":
		return vvc.Cr, nil
	}
	return 0, errors.Errorf("unknown channel %q", s)
}

func parseBDPCM(s string) (vvc.BDPCM, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return vvc.BDPCMOff, nil
	case "h", "horizontal":
		return vvc.BDPCMHorizontal, nil
	case "v", "vertical":
		return vvc.BDPCMVertical, nil
	}
	return 0, errors.Errorf("unknown bdpcm direction %q", s)
}

func (jb *jsonBlock) block() (*vvc.Block, error) {
	ch, err := parseChannel(jb.Channel)
	if err != nil {
		return nil, err
	}
	bd, err := parseBDPCM(jb.BDPCM)
	if err != nil {
		return nil, err
	}
	return &vvc.Block{
		Width:         jb.Width,
		Height:        jb.Height,
		Channel:       ch,
		Levels:        jb.Levels,
		TransformSkip: jb.TransformSkip,
		BDPCM:         bd,
	}, nil
}

func loadBlocks(path string) ([]*vvc.Block, error) {
	rc, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var bf blockFile
	dec := json.NewDecoder(rc)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&bf); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	blocks := make([]*vvc.Block, len(bf.Blocks))
	for i := range bf.Blocks {
		b, err := bf.Blocks[i].block()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: block %d", path, i)
		}
		blocks[i] = b
	}
	return blocks, nil
}

// --- slice flags ---

type sliceFlags struct {
	typ        *string
	qp         *int
	cabacInit  *bool
	depQuant   *bool
	signHiding *bool
	tsOff      *bool
}

func addSliceFlags(fs *flag.FlagSet) *sliceFlags {
	def := vvc.DefaultSliceConfig()
	return &sliceFlags{
		typ:        fs.String("type", def.Type.String(), "slice type: I/P/B"),
		qp:         fs.Int("qp", def.QP, "slice QP 0-63"),
		cabacInit:  fs.Bool("cabac_init", false, "swap the P and B context initialization"),
		depQuant:   fs.Bool("dq", false, "dependent quantization"),
		signHiding: fs.Bool("sdh", def.SignHiding, "sign data hiding"),
		tsOff:      fs.Bool("ts_off", false, "code transform-skip blocks with the ordinary residual syntax"),
	}
}

func (f *sliceFlags) config() (vvc.SliceConfig, error) {
	cfg := vvc.SliceConfig{
		QP:                       *f.qp,
		CabacInitFlag:            *f.cabacInit,
		DepQuant:                 *f.depQuant,
		SignHiding:               *f.signHiding,
		TSResidualCodingDisabled: *f.tsOff,
	}
	switch strings.ToUpper(*f.typ) {
	case "I":
		cfg.Type = vvc.SliceI
	case "P":
		cfg.Type = vvc.SliceP
	case "B":
		cfg.Type = vvc.SliceB
	default:
		return cfg, errors.Errorf("unknown slice type %q (use I/P/B)", *f.typ)
	}
	return cfg, nil
}

// --- enc ---

func runEnc(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	sf := addSliceFlags(fs)
	output := fs.String("o", "", `output path (default: <input>.bin, "-" for stdout)`)
	prepare := fs.Bool("prepare", false, "adjust levels so every hidden sign matches its parity")
	tracePath := fs.String("trace", "", `write a syntax element trace (".zst" compresses)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: vvcres enc [options] <blocks.json>")
	}
	inputPath := fs.Arg(0)
	cfg, err := sf.config()
	if err != nil {
		return errors.Wrap(err, "enc")
	}
	blocks, err := loadBlocks(inputPath)
	if err != nil {
		return errors.Wrap(err, "enc")
	}

	enc, err := vvc.NewEncoder(cfg)
	if err != nil {
		return errors.Wrap(err, "enc")
	}
	var tw *trace.Writer
	if *tracePath != "" {
		if tw, err = trace.Create(*tracePath); err != nil {
			return errors.Wrap(err, "enc")
		}
		enc.SetTracer(tw)
	}

	adjusted := 0
	for i, b := range blocks {
		if *prepare {
			n, err := vvc.PrepareSignHiding(cfg, b)
			if err != nil {
				return errors.Wrapf(err, "enc: block %d", i)
			}
			adjusted += n
		}
		if err := enc.EncodeBlock(b); err != nil {
			return errors.Wrapf(err, "enc: block %d", i)
		}
	}
	data, err := enc.Finish()
	if err != nil {
		return errors.Wrap(err, "enc")
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return errors.Wrap(err, "enc")
		}
	}

	outPath := *output
	if outPath == "" {
		if inputPath == "-" {
			outPath = "-"
		} else {
			outPath = strings.TrimSuffix(inputPath, ".json") + ".bin"
		}
	}
	if outPath == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %d blocks, %d bytes", outPath, len(blocks), len(data))
	if adjusted > 0 {
		fmt.Fprintf(os.Stderr, ", %d sub-blocks adjusted for sign hiding", adjusted)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// --- verify ---

func runVerify(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	sf := addSliceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("verify: missing input\nUsage: vvcres verify [options] <blocks.json> <payload>")
	}
	cfg, err := sf.config()
	if err != nil {
		return errors.Wrap(err, "verify")
	}
	blocks, err := loadBlocks(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "verify")
	}
	data, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return errors.Wrap(err, "verify")
	}

	dec, err := vvc.NewDecoder(data, cfg)
	if err != nil {
		return errors.Wrap(err, "verify")
	}
	mismatches := 0
	for i, want := range blocks {
		got := vvc.NewBlock(want.Width, want.Height, want.Channel)
		got.TransformSkip = want.TransformSkip
		got.BDPCM = want.BDPCM
		if err := dec.DecodeBlock(got); err != nil {
			return errors.Wrapf(err, "verify: block %d", i)
		}
		if len(want.Levels) != len(got.Levels) {
			return errors.Wrapf(vvc.ErrLevelCount, "verify: block %d", i)
		}
		for k := range want.Levels {
			if got.Levels[k] != want.Levels[k] {
				fmt.Fprintf(stdout, "block %d: (%d,%d) decoded %d, want %d\n",
					i, k%want.Width, k/want.Width, got.Levels[k], want.Levels[k])
				mismatches++
			}
		}
	}
	if err := dec.End(); err != nil {
		return errors.Wrap(err, "verify")
	}
	if mismatches > 0 {
		return errors.Errorf("verify: %d levels differ", mismatches)
	}
	fmt.Fprintf(stdout, "ok: %d blocks, %d bits\n", len(blocks), dec.BitPos())
	return nil
}

// --- info ---

func runInfo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	sf := addSliceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("info: missing input file\nUsage: vvcres info [options] <blocks.json>")
	}
	cfg, err := sf.config()
	if err != nil {
		return errors.Wrap(err, "info")
	}
	blocks, err := loadBlocks(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "info")
	}

	enc, err := vvc.NewEncoder(cfg)
	if err != nil {
		return errors.Wrap(err, "info")
	}
	fmt.Fprintf(stdout, "Slice:    %s QP %d\n", cfg.Type, cfg.QP)
	total := 0.0
	for i, b := range blocks {
		est, err := enc.EstimateBits(b)
		if err != nil {
			return errors.Wrapf(err, "info: block %d", i)
		}
		nz := 0
		for _, v := range b.Levels {
			if v != 0 {
				nz++
			}
		}
		before := enc.BitCount()
		if err := enc.EncodeBlock(b); err != nil {
			return errors.Wrapf(err, "info: block %d", i)
		}
		total += est
		fmt.Fprintf(stdout, "Block %d:  %s %dx%d ts=%v nonzero=%d est=%.1f bits coded=%d bits\n",
			i, b.Channel, b.Width, b.Height, b.TransformSkip, nz, est, enc.BitCount()-before)
	}
	obs := enc.Observations()
	fmt.Fprintf(stdout, "Total:    %.1f bits estimated, %d bits coded\n", total, enc.BitCount())
	fmt.Fprintf(stdout, "Observed: lfnstDCOnly=%v lfnstZeroOut=%v mtsDCOnly=%v mtsZeroOut=%v\n",
		obs.LfnstDCOnly, obs.LfnstZeroOut, obs.MtsDCOnly, obs.MtsZeroOut)
	return nil
}

// --- scan ---

func runScan(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("scan: missing size\nUsage: vvcres scan <width> <height>")
	}
	var log2 [2]int
	for i := range log2 {
		v, err := strconv.Atoi(fs.Arg(i))
		if err != nil || v < 1 || v > vvc.MaxBlockSize || v&(v-1) != 0 {
			return errors.Wrapf(vvc.ErrBlockSize, "scan: %q", fs.Arg(i))
		}
		for v > 1 {
			v >>= 1
			log2[i]++
		}
	}
	l := scan.For(log2[0], log2[1])
	for i := 0; i < l.NumSubBlocks(); i++ {
		s := l.SubBlocks[i]
		fmt.Fprintf(stdout, "sub-block %d (%d,%d):", i, s.X, s.Y)
		for n := 0; n < l.SubBlockSize(); n++ {
			x, y := l.Coeff(i, n)
			fmt.Fprintf(stdout, " (%d,%d)", x, y)
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

// --- trace ---

func runTrace(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("trace: missing input file\nUsage: vvcres trace <file>")
	}
	in, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer in.Close()
	r, err := trace.NewReader(in)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(stdout, r)
	return errors.Wrap(err, "trace")
}
