// Package lsbsteg hides a byte stream in the low-order bits of an RGB pixel
// buffer and recovers it again.
//
// Every payload byte is split into 8/bit chunks, most significant first, and
// each chunk replaces the bit low bits of one buffer byte. The two bytes ":)"
// are appended after the payload and mark its end on recovery. The marker has
// no escape: a payload that itself contains ":)" is embedded in full but will
// be recovered only up to that point. Encode reports this as a warning.
package lsbsteg

import (
	"errors"
	"fmt"

	"github.com/tuomass/lsbsteg-go/internal/bitstream"
	"github.com/tuomass/lsbsteg-go/internal/framing"
	"github.com/tuomass/lsbsteg-go/internal/imgutil"
)

var (
	// ErrInvalidBitWidth indicates bit is not one of 1, 2, 4 or 8
	ErrInvalidBitWidth = errors.New("invalid bit width")
	// ErrInvalidBuffer indicates the pixel buffer shape is inconsistent
	ErrInvalidBuffer = imgutil.ErrInvalidBuffer
	// ErrInsufficientCapacity indicates the buffer cannot even hold the end marker
	ErrInsufficientCapacity = errors.New("buffer too small for end marker")
	// ErrSentinelNotFound indicates decoding reached the end of the buffer
	// without finding the end marker
	ErrSentinelNotFound = errors.New("end marker not found before end of buffer")
)

// Buffer is a flat, row-major RGB pixel buffer (3 bytes per pixel).
// Encode mutates Pix in place; Decode only reads it.
type Buffer = imgutil.PixelBuffer

// NewBuffer allocates a zeroed buffer for width x height pixels.
func NewBuffer(width, height int) *Buffer {
	return imgutil.NewPixelBuffer(width, height)
}

// Sentinel is the end-of-payload marker ":)".
var Sentinel = framing.Sentinel

// SupportedBitWidths lists the accepted values for bit.
var SupportedBitWidths = []int{1, 2, 4, 8}

// ValidateBitWidth returns ErrInvalidBitWidth unless bit is 1, 2, 4 or 8.
func ValidateBitWidth(bit int) error {
	if !bitstream.ValidWidth(bit) {
		return fmt.Errorf("%w: %d (supported: %v)", ErrInvalidBitWidth, bit, SupportedBitWidths)
	}
	return nil
}

// Bitmask returns the mask isolating the bit least-significant bits of a byte.
func Bitmask(bit int) byte {
	return bitstream.Mask(bit)
}

// Capacity returns the maximum number of payload bytes, end marker included,
// that a width x height image can carry at the given bit width.
func Capacity(width, height, bit int) int {
	return bitstream.Capacity(width*height*3, bit)
}

// CapacityInfo holds information about buffer embedding capacity
type CapacityInfo struct {
	// Image dimensions
	Width  int
	Height int
	// BitWidth is the number of low bits used per buffer byte
	BitWidth int
	// BufferBytes is the number of channel bytes (width*height*3)
	BufferBytes int
	// Capacity is the number of payload bytes including the end marker
	Capacity int
	// MaxPayloadBytes is Capacity minus the end marker
	MaxPayloadBytes int
}

// GetCapacityInfo calculates capacity for a buffer at the given bit width
func GetCapacityInfo(buf *Buffer, bit int) (*CapacityInfo, error) {
	if err := ValidateBitWidth(bit); err != nil {
		return nil, err
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	capacity := Capacity(buf.Width, buf.Height, bit)
	maxPayload := capacity - framing.SentinelSize
	if maxPayload < 0 {
		maxPayload = 0
	}

	return &CapacityInfo{
		Width:           buf.Width,
		Height:          buf.Height,
		BitWidth:        bit,
		BufferBytes:     len(buf.Pix),
		Capacity:        capacity,
		MaxPayloadBytes: maxPayload,
	}, nil
}

// Options holds options shared by Encode and Decode
type Options struct {
	// Logger receives warnings and summaries. Nil disables logging.
	Logger Logger
}

// DefaultOptions returns options with logging disabled
func DefaultOptions() *Options {
	return &Options{Logger: NopLogger{}}
}

func (o *Options) logger() Logger {
	if o == nil || o.Logger == nil {
		return NopLogger{}
	}
	return o.Logger
}

// checkInput validates bit and buffer before any buffer access.
func checkInput(buf *Buffer, bit int) error {
	if err := ValidateBitWidth(bit); err != nil {
		return err
	}
	return buf.Validate()
}
