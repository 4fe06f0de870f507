// initseq fills the resident-data placeholders of a device init sequence.
//
// It reads an init sequence, injects a payload for every placeholder the
// sequence declares and writes the resulting sequence, in which each
// declaration has become a transfer-write carrying its payload.
//
// Payload sources come from a manifest (YAML, TOML or JSONC); --input and
// --output override the manifest's paths.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/oy3o/initseq"
	"github.com/oy3o/initseq/internal/manifest"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	manifestPath string
	input        string
	output       string
	catalogPath  string
	logLevel     string
	dump         bool
	rejectLegacy bool
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("initseq", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.manifestPath, "manifest", "m", "", "manifest listing the payload of every placeholder")
	flagSet.StringVarP(&opts.input, "input", "i", "", "init sequence to read (overrides the manifest)")
	flagSet.StringVarP(&opts.output, "output", "o", "", `where to write the result, "-" for stdout (overrides the manifest)`)
	flagSet.StringVar(&opts.catalogPath, "catalog", "", "write a CBOR report of the placeholder catalog to this file")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.BoolVar(&opts.dump, "dump", false, "list the records of the input and the output on stderr")
	flagSet.BoolVar(&opts.rejectLegacy, "reject-legacy", false, "fail on legacy-binary records while parsing")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: initseq [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	logger, err := newLogger(opts.logLevel, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()
	initseq.SetLogger(logger)
	defer initseq.SetLogger(nil)

	m := &manifest.Manifest{}
	if opts.manifestPath != "" {
		if m, err = manifest.Load(opts.manifestPath); err != nil {
			return err
		}
	}
	// Paths from the command line are relative to the working directory,
	// paths from the manifest to the manifest.
	inputPath, outputPath := m.Resolve(m.Input), m.Resolve(m.Output)
	if flagSet.Changed("input") {
		inputPath = opts.input
	}
	if flagSet.Changed("output") {
		outputPath = opts.output
	}
	if flagSet.Changed("reject-legacy") {
		m.RejectLegacy = opts.rejectLegacy
	}
	if inputPath == "" {
		return errors.New("no input: pass --input or set input in the manifest")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading init sequence: %w", err)
	}

	transcoder, err := initseq.NewWithOptions(data, &initseq.Options{
		RejectLegacy: m.RejectLegacy,
		MaxBodyLen:   m.MaxBodyLen,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	logger.Info("parsed init sequence",
		zap.String("input", inputPath),
		zap.Int("records", transcoder.Records()),
		zap.Int("placeholders", transcoder.Len()),
	)
	if opts.dump {
		fmt.Fprintf(stderr, "input %s:\n", inputPath)
		if err := initseq.Dump(stderr, data); err != nil {
			return err
		}
	}

	applyErr := m.Apply(transcoder)
	// The report is most useful when something is missing, so write it first.
	if opts.catalogPath != "" {
		if err := writeCatalogReport(opts.catalogPath, inputPath, transcoder); err != nil {
			return err
		}
	}
	if applyErr != nil {
		return applyErr
	}

	out, err := transcoder.Emit()
	if err != nil {
		return err
	}
	if opts.dump {
		fmt.Fprintln(stderr, "output:")
		if err := initseq.Dump(stderr, out); err != nil {
			return err
		}
	}

	if err := writeOutput(outputPath, out, stdout); err != nil {
		return err
	}
	logger.Info("wrote init sequence",
		zap.String("output", outputPath),
		zap.Int("bytes", len(out)),
		zap.Stringer("blake3", initseq.Sum(out)),
	)
	return nil
}

func writeOutput(path string, out []byte, stdout io.Writer) error {
	if path != "" && path != "-" {
		return os.WriteFile(path, out, 0o644)
	}
	if isTerminal(stdout) {
		return errors.New("refusing to write a binary sequence to a terminal; pass --output")
	}
	_, err := stdout.Write(out)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newLogger logs human-readable lines to a terminal and JSON otherwise.
func newLogger(level string, stderr io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	var encoder zapcore.Encoder
	if isTerminal(stderr) {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(stderr), lvl)), nil
}
