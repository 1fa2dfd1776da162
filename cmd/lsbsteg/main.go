// lsbsteg hides a text file in the low-order bits of an image's RGB channels
// and recovers it again.
//
// Usage:
//
//	lsbsteg hide    -i IMAGE -t TEXT [-b BIT] [-o OUTPUT]
//	lsbsteg recover -i IMAGE -t TEXT [-b BIT]
//	lsbsteg capacity -i IMAGE [-b BIT]
//
// hide overwrites IMAGE unless -o is given. The same BIT must be used to
// hide and to recover.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/tuomass/lsbsteg-go/internal/config"
	"github.com/tuomass/lsbsteg-go/internal/imgutil"
	"github.com/tuomass/lsbsteg-go/internal/logging"
	"github.com/tuomass/lsbsteg-go/pkg/lsbsteg"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `Usage:
  lsbsteg hide     -i IMAGE -t TEXT [-b BIT] [-o OUTPUT] [--format FORMAT]
  lsbsteg recover  -i IMAGE -t TEXT [-b BIT]
  lsbsteg capacity -i IMAGE [-b BIT]

BIT is the number of low bits used per color byte: 1, 2, 4 or 8.
Images may be PPM (P6), PNG or BMP; JPEG is accepted as hide input only.
`

var errUsage = errors.New("usage")

// commonFlags are shared by every subcommand.
type commonFlags struct {
	image      string
	bit        int
	configPath string
	logLevel   string
	logBackend string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.image, "image", "i", "", "image file (PPM, PNG or BMP)")
	fs.IntVarP(&c.bit, "bit", "b", 1, "low bits per color byte (1, 2, 4 or 8)")
	fs.StringVarP(&c.configPath, "config", "c", "", "YAML config file (default: $"+config.EnvVar+")")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&c.logBackend, "log-backend", "", "zap or logrus")
}

// resolve loads the config file and applies flag overrides.
func (c *commonFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("bit") {
		cfg.Bit = c.bit
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logBackend != "" {
		cfg.Log.Backend = c.logBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.image == "" {
		return nil, fmt.Errorf("%w: --image is required", errUsage)
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: missing command", errUsage)
	}

	switch args[0] {
	case "hide":
		return runHide(args[1:], stdout, stderr)
	case "recover":
		return runRecover(args[1:], stdout, stderr)
	case "capacity":
		return runCapacity(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

// parse parses args into fs, reporting --help as a nil error with done set.
func parse(fs *pflag.FlagSet, args []string, stdout io.Writer) (done bool, err error) {
	fs.SetOutput(stdout)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return true, nil
		}
		return false, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	return false, nil
}

func runHide(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	var textPath, outputPath, format string

	fs := pflag.NewFlagSet("lsbsteg hide", pflag.ContinueOnError)
	common.register(fs)
	fs.StringVarP(&textPath, "text", "t", "", "file whose contents are hidden")
	fs.StringVarP(&outputPath, "output", "o", "", "output image (default: overwrite --image)")
	fs.StringVar(&format, "format", "", "output format: ppm, png or bmp")

	if done, err := parse(fs, args, stdout); done || err != nil {
		return err
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}
	if textPath == "" {
		return fmt.Errorf("%w: --text is required", errUsage)
	}
	if format != "" {
		cfg.OutputFormat = format
	}

	logger, flush, err := logging.New(cfg.Log.Backend, cfg.Log.Level, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = flush() }()

	opts := &lsbsteg.HideOptions{
		Options:      lsbsteg.Options{Logger: logger},
		OutputFormat: cfg.OutputFormat,
	}
	result, err := lsbsteg.HideFile(common.image, textPath, outputPath, cfg.Bit, opts)
	if err != nil {
		return err
	}

	digest, err := digestFile(textPath, int64(result.PayloadBytes()))
	if err != nil {
		return err
	}
	logger.Info("hidden payload digest", lsbsteg.Fields{"blake3": digest})

	fmt.Fprintf(stdout, "%d characters hidden in %d pixel bytes (blake3 %s)\n", result.Embedded, result.Cursor, digest)
	if result.Truncated {
		fmt.Fprintln(stdout, "WARNING: no more space for additional characters; the text was truncated")
	}
	if result.SentinelCollision {
		fmt.Fprintf(stdout, "WARNING: ':)' found in the text at offset %d; recovery will stop there\n", result.CollisionOffset)
	}
	return nil
}

func runRecover(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	var textPath string

	fs := pflag.NewFlagSet("lsbsteg recover", pflag.ContinueOnError)
	common.register(fs)
	fs.StringVarP(&textPath, "text", "t", "", "file the recovered payload is written to")

	if done, err := parse(fs, args, stdout); done || err != nil {
		return err
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}
	if textPath == "" {
		return fmt.Errorf("%w: --text is required", errUsage)
	}

	logger, flush, err := logging.New(cfg.Log.Backend, cfg.Log.Level, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = flush() }()

	result, recoverErr := lsbsteg.RecoverFile(common.image, textPath, cfg.Bit, &lsbsteg.Options{Logger: logger})
	if recoverErr != nil && !errors.Is(recoverErr, lsbsteg.ErrSentinelNotFound) {
		return recoverErr
	}

	digest, err := digestFile(textPath, -1)
	if err != nil {
		return err
	}
	logger.Info("recovered payload digest", lsbsteg.Fields{"blake3": digest})

	characters := result.Recovered
	if result.SentinelFound {
		characters += len(lsbsteg.Sentinel)
	}
	fmt.Fprintf(stdout, "%d characters recovered from %d pixel bytes (blake3 %s)\n", characters, result.Cursor, digest)
	fmt.Fprintf(stdout, "Extracted text written to %s\n", textPath)
	if result.CapacityReached {
		fmt.Fprintln(stdout, "WARNING: maximum storage capacity reached; the original text may have been truncated")
	}
	if !result.SentinelFound {
		fmt.Fprintln(stdout, "WARNING: no end marker found; the whole image was read")
	}
	return recoverErr
}

func runCapacity(args []string, stdout, _ io.Writer) error {
	var common commonFlags

	fs := pflag.NewFlagSet("lsbsteg capacity", pflag.ContinueOnError)
	common.register(fs)

	if done, err := parse(fs, args, stdout); done || err != nil {
		return err
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}

	buf, format, err := imgutil.LoadFile(common.image)
	if err != nil {
		return err
	}
	info, err := lsbsteg.GetCapacityInfo(buf, cfg.Bit)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "image:        %s (%s, %dx%d)\n", common.image, format, info.Width, info.Height)
	fmt.Fprintf(stdout, "bit width:    %d\n", info.BitWidth)
	fmt.Fprintf(stdout, "color bytes:  %d\n", info.BufferBytes)
	fmt.Fprintf(stdout, "capacity:     %d bytes (including end marker)\n", info.Capacity)
	fmt.Fprintf(stdout, "max payload:  %d bytes\n", info.MaxPayloadBytes)
	return nil
}

// digestFile returns the hex BLAKE3 digest of the first limit bytes of path,
// or of the whole file when limit is negative.
func digestFile(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if limit >= 0 {
		r = io.LimitReader(f, limit)
	}

	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
