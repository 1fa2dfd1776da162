package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

var (
	// ErrUnsupportedFormat indicates the container format is not handled
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrLossyFormat indicates the output format would destroy low-order bits
	ErrLossyFormat = errors.New("lossy output format cannot carry a payload")
	// ErrInvalidBuffer indicates the pixel buffer shape is inconsistent
	ErrInvalidBuffer = errors.New("invalid pixel buffer")
)

// Supported container formats
const (
	FormatPPM = "ppm"
	FormatPNG = "png"
	FormatBMP = "bmp"
)

// PixelBuffer is a flat, row-major RGB byte buffer, 3 bytes per pixel.
type PixelBuffer struct {
	Width  int
	Height int
	// Pix holds Width*Height*3 channel bytes
	Pix []byte
}

// NewPixelBuffer allocates a zeroed buffer for the given dimensions.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}
}

// Validate checks the dimensions against the length of Pix.
func (p *PixelBuffer) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, p.Width, p.Height)
	}
	if p.Width > math.MaxInt/3/p.Height || len(p.Pix) != p.Width*p.Height*3 {
		return fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrInvalidBuffer, len(p.Pix), p.Width, p.Height)
	}
	return nil
}

// LoadFile reads and decodes an image file into a pixel buffer
// Returns the buffer, format string, and any error
func LoadFile(path string) (*PixelBuffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return Decode(data)
}

// Decode decodes image bytes into a pixel buffer.
// PPM (P6) is parsed directly; everything else goes through image.Decode.
func Decode(data []byte) (*PixelBuffer, string, error) {
	if isPPM(data) {
		buf, err := DecodePPM(data)
		if err != nil {
			return nil, "", err
		}
		return buf, FormatPPM, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), format, nil
}

// FromImage copies the RGB channels of img into a new pixel buffer.
// Alpha is dropped.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	buf := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			buf.Pix[i] = c.R
			buf.Pix[i+1] = c.G
			buf.Pix[i+2] = c.B
			i += 3
		}
	}
	return buf
}

// ToImage converts the buffer into an opaque NRGBA image.
func (p *PixelBuffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for src, dst := 0, 0; src < len(p.Pix); src, dst = src+3, dst+4 {
		img.Pix[dst] = p.Pix[src]
		img.Pix[dst+1] = p.Pix[src+1]
		img.Pix[dst+2] = p.Pix[src+2]
		img.Pix[dst+3] = 0xFF
	}
	return img
}

// SaveFile encodes the buffer and writes it to path
func SaveFile(buf *PixelBuffer, format, path string) error {
	data, err := Encode(buf, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Encode encodes the buffer to the specified lossless format
func Encode(buf *PixelBuffer, format string) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	switch NormalizeFormat(format) {
	case FormatPPM:
		return EncodePPM(buf), nil
	case FormatPNG:
		if err := png.Encode(&out, buf.ToImage()); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	case FormatBMP:
		if err := bmp.Encode(&out, buf.ToImage()); err != nil {
			return nil, fmt.Errorf("failed to encode BMP: %w", err)
		}
	case "jpeg":
		return nil, ErrLossyFormat
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return out.Bytes(), nil
}

// NormalizeFormat maps file extensions and MIME types onto format names.
func NormalizeFormat(format string) string {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	switch format {
	case "ppm", "pnm", "image/x-portable-pixmap":
		return FormatPPM
	case "png", "image/png":
		return FormatPNG
	case "bmp", "image/bmp":
		return FormatBMP
	case "jpg", "jpeg", "image/jpeg":
		return "jpeg"
	}
	return format
}

// FormatFromPath guesses the container format from a file extension.
func FormatFromPath(path string) string {
	return NormalizeFormat(filepath.Ext(path))
}
