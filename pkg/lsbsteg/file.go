package lsbsteg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tuomass/lsbsteg-go/internal/imgutil"
)

// HideOptions holds options for hiding a payload in an image container
type HideOptions struct {
	Options
	// OutputFormat is "ppm", "png" or "bmp". Empty means the output path's
	// extension, then the input format.
	OutputFormat string
}

// DefaultHideOptions returns default hiding options
func DefaultHideOptions() *HideOptions {
	return &HideOptions{Options: *DefaultOptions()}
}

// HideBytes hides payload in an encoded image (PPM, PNG, BMP or JPEG) and
// returns the re-encoded image. A JPEG input is written back as PNG unless
// OutputFormat says otherwise.
func HideBytes(input []byte, payload io.Reader, bit int, opts *HideOptions) ([]byte, EncodeResult, error) {
	if opts == nil {
		opts = DefaultHideOptions()
	}

	buf, format, err := imgutil.Decode(input)
	if err != nil {
		return nil, EncodeResult{CollisionOffset: -1}, fmt.Errorf("failed to load image: %w", err)
	}

	result, err := Encode(buf, bit, payload, &opts.Options)
	if err != nil {
		return nil, result, err
	}

	outputFormat := resolveFormat(opts.OutputFormat, "", format)
	output, err := imgutil.Encode(buf, outputFormat)
	if err != nil {
		return nil, result, fmt.Errorf("failed to encode image: %w", err)
	}
	return output, result, nil
}

// HideFile hides the contents of payloadPath in the image at imagePath and
// writes the result to outputPath. An empty outputPath overwrites imagePath.
func HideFile(imagePath, payloadPath, outputPath string, bit int, opts *HideOptions) (EncodeResult, error) {
	if opts == nil {
		opts = DefaultHideOptions()
	}
	if outputPath == "" {
		outputPath = imagePath
	}
	result := EncodeResult{CollisionOffset: -1}

	if err := ValidateBitWidth(bit); err != nil {
		return result, err
	}

	buf, format, err := imgutil.LoadFile(imagePath)
	if err != nil {
		return result, fmt.Errorf("failed to load image: %w", err)
	}

	f, err := os.Open(payloadPath)
	if err != nil {
		return result, fmt.Errorf("failed to open payload: %w", err)
	}
	defer func() { _ = f.Close() }()

	result, err = Encode(buf, bit, f, &opts.Options)
	if err != nil {
		return result, err
	}

	outputFormat := resolveFormat(opts.OutputFormat, outputPath, format)
	if err := imgutil.SaveFile(buf, outputFormat, outputPath); err != nil {
		return result, fmt.Errorf("failed to save image: %w", err)
	}
	return result, nil
}

// RecoverBytes recovers a payload from an encoded image and writes it to sink
func RecoverBytes(input []byte, sink io.Writer, bit int, opts *Options) (DecodeResult, error) {
	buf, _, err := imgutil.Decode(input)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("failed to load image: %w", err)
	}
	return Decode(buf, bit, sink, opts)
}

// RecoverFile recovers a payload from the image at imagePath into payloadPath.
// The payload file is written even when ErrSentinelNotFound is returned.
func RecoverFile(imagePath, payloadPath string, bit int, opts *Options) (DecodeResult, error) {
	if err := ValidateBitWidth(bit); err != nil {
		return DecodeResult{}, err
	}

	buf, _, err := imgutil.LoadFile(imagePath)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("failed to load image: %w", err)
	}

	var payload bytes.Buffer
	result, decodeErr := Decode(buf, bit, &payload, opts)
	if decodeErr != nil && !errors.Is(decodeErr, ErrSentinelNotFound) {
		return result, decodeErr
	}

	if err := os.WriteFile(payloadPath, payload.Bytes(), 0644); err != nil {
		return result, fmt.Errorf("failed to write payload: %w", err)
	}
	return result, decodeErr
}

// resolveFormat picks the output container format. A lossy input format
// with nothing else to go on falls back to PNG.
func resolveFormat(explicit, path, input string) string {
	if explicit != "" {
		return imgutil.NormalizeFormat(explicit)
	}
	if path != "" {
		switch f := imgutil.FormatFromPath(path); f {
		case imgutil.FormatPPM, imgutil.FormatPNG, imgutil.FormatBMP, "jpeg":
			return f
		}
	}
	if imgutil.NormalizeFormat(input) == "jpeg" && path == "" {
		return imgutil.FormatPNG
	}
	return input
}
