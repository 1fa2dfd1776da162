package lsbsteg

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuomass/lsbsteg-go/internal/framing"
)

// DecodeResult reports what Decode recovered from the buffer
type DecodeResult struct {
	// Recovered is the number of payload bytes written to the sink
	Recovered int
	// Cursor is the number of buffer bytes consumed, end marker included
	Cursor int
	// SentinelFound is set when decoding stopped on the end marker
	SentinelFound bool
	// CapacityReached is set when the recovered payload fills the whole
	// buffer capacity, meaning the original payload may have been truncated
	// when it was hidden
	CapacityReached bool
}

// Decode recovers a payload from buf.Pix and writes it to sink, stopping at
// the end marker. The buffer is only read.
//
// If the buffer ends before a marker is found, every complete byte is still
// written to sink and ErrSentinelNotFound is returned with the result.
func Decode(buf *Buffer, bit int, sink io.Writer, opts *Options) (DecodeResult, error) {
	var result DecodeResult
	if err := checkInput(buf, bit); err != nil {
		return result, err
	}

	capacity := Capacity(buf.Width, buf.Height, bit)
	log := opts.logger()

	out := bufio.NewWriter(sink)
	la := newLookahead(buf.Pix, bit)
	for !la.done() {
		c, ok := la.next()
		if !ok {
			break
		}
		if err := out.WriteByte(c); err != nil {
			result.Cursor = la.cursor
			return result, fmt.Errorf("failed to write payload: %w", err)
		}
		result.Recovered++
	}
	result.Cursor = la.cursor
	result.SentinelFound = la.sentinel

	if err := out.Flush(); err != nil {
		return result, fmt.Errorf("failed to write payload: %w", err)
	}

	if result.Recovered+framing.SentinelSize >= capacity {
		result.CapacityReached = true
		log.Warn("maximum storage capacity reached; the hidden payload may have been truncated", Fields{
			"recovered": result.Recovered,
			"capacity":  capacity,
		})
	}

	if !result.SentinelFound {
		log.Error("end marker not found", Fields{
			"recovered":   result.Recovered,
			"pixel_bytes": result.Cursor,
		})
		return result, fmt.Errorf("%w: read %d of %d bytes", ErrSentinelNotFound, result.Cursor, len(buf.Pix))
	}

	log.Info("payload recovered", Fields{
		"characters":  result.Recovered + framing.SentinelSize,
		"pixel_bytes": result.Cursor,
		"bit":         bit,
	})
	return result, nil
}
