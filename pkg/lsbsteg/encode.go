package lsbsteg

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuomass/lsbsteg-go/internal/bitstream"
	"github.com/tuomass/lsbsteg-go/internal/framing"
)

// EncodeResult reports what Encode wrote into the buffer
type EncodeResult struct {
	// Embedded is the number of payload bytes written, end marker included
	Embedded int
	// Cursor is the number of buffer bytes consumed
	Cursor int
	// Truncated is set when the payload did not fit and was cut short
	Truncated bool
	// SentinelCollision is set when the embedded payload itself contains ":)".
	// Decoding will stop at the first such occurrence.
	SentinelCollision bool
	// CollisionOffset is the payload offset of the first ":)" pair, or -1
	CollisionOffset int
}

// PayloadBytes returns the number of embedded bytes excluding the end marker.
func (r EncodeResult) PayloadBytes() int {
	if r.Embedded < framing.SentinelSize {
		return 0
	}
	return r.Embedded - framing.SentinelSize
}

// chunkWriter scatters whole bytes into the buffer starting at cursor.
type chunkWriter struct {
	pix    []byte
	bit    int
	step   int
	cursor int
}

func (w *chunkWriter) put(b byte) {
	bitstream.Scatter(w.pix[w.cursor:w.cursor+w.step], b, w.bit)
	w.cursor += w.step
}

// Encode embeds payload into buf.Pix starting at the first byte, followed by
// the end marker. It reads payload sequentially and never closes it.
//
// At most Capacity-2 payload bytes are embedded; if more remain the result
// is marked Truncated. The end marker is always written. Both warnings are
// reported through the result and never as an error. Errors are returned
// for an invalid bit width or buffer, a buffer too small for the marker, and
// payload read failures.
func Encode(buf *Buffer, bit int, payload io.Reader, opts *Options) (EncodeResult, error) {
	result := EncodeResult{CollisionOffset: -1}
	if err := checkInput(buf, bit); err != nil {
		return result, err
	}

	capacity := Capacity(buf.Width, buf.Height, bit)
	if capacity < framing.SentinelSize {
		return result, fmt.Errorf("%w: capacity is %d bytes", ErrInsufficientCapacity, capacity)
	}
	limit := capacity - framing.SentinelSize
	log := opts.logger()

	src, ok := payload.(io.ByteReader)
	if !ok {
		src = bufio.NewReader(payload)
	}

	w := &chunkWriter{pix: buf.Pix, bit: bit, step: bitstream.ChunksPerByte(bit)}
	var detector framing.CollisionDetector

	for result.Embedded < limit {
		c, err := src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Cursor = w.cursor
			return result, fmt.Errorf("failed to read payload: %w", err)
		}

		if seen := detector.Detected(); detector.Observe(c) && !seen {
			result.SentinelCollision = true
			result.CollisionOffset = detector.Offset()
			log.Warn("end marker found inside payload; recovery will stop early", Fields{
				"offset": result.CollisionOffset,
			})
		}

		w.put(c)
		result.Embedded++
	}

	if result.Embedded == limit {
		_, err := src.ReadByte()
		switch {
		case err == nil:
			result.Truncated = true
			log.Warn("no more space for payload; embedding stopped before end of input", Fields{
				"embedded": result.Embedded,
				"capacity": capacity,
			})
		case err != io.EOF:
			result.Cursor = w.cursor
			return result, fmt.Errorf("failed to read payload: %w", err)
		}
	}

	for _, b := range framing.Sentinel {
		w.put(b)
		result.Embedded++
	}
	result.Cursor = w.cursor

	log.Info("payload hidden", Fields{
		"characters":  result.Embedded,
		"pixel_bytes": result.Cursor,
		"bit":         bit,
	})
	return result, nil
}
