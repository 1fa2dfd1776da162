package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidPPM indicates the PPM header or body is malformed
	ErrInvalidPPM = errors.New("invalid PPM data")
)

const ppmMagic = "P6"

func isPPM(data []byte) bool {
	return len(data) >= 2 && string(data[:2]) == ppmMagic
}

// DecodePPM parses a binary (P6) PPM with a maxval of at most 255.
// Header layout: "P6" width height maxval, whitespace separated, with
// '#' comments running to end of line, then exactly one whitespace byte
// before the raster.
func DecodePPM(data []byte) (*PixelBuffer, error) {
	if !isPPM(data) {
		return nil, fmt.Errorf("%w: missing P6 magic", ErrInvalidPPM)
	}

	pos := len(ppmMagic)
	var fields [3]int
	for i := range fields {
		var err error
		fields[i], pos, err = ppmNumber(data, pos)
		if err != nil {
			return nil, err
		}
	}
	width, height, maxval := fields[0], fields[1], fields[2]

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidPPM, width, height)
	}
	if maxval <= 0 || maxval > 255 {
		return nil, fmt.Errorf("%w: unsupported maxval %d", ErrInvalidPPM, maxval)
	}
	if pos >= len(data) || !isSpace(data[pos]) {
		return nil, fmt.Errorf("%w: missing raster separator", ErrInvalidPPM)
	}
	pos++

	// width*height*3 <= avail, checked without forming the product
	avail := len(data) - pos
	if width > avail/3/height {
		return nil, fmt.Errorf("%w: raster has %d bytes, too short for %dx%d pixels", ErrInvalidPPM, avail, width, height)
	}

	size := width * height * 3
	buf := &PixelBuffer{Width: width, Height: height, Pix: make([]byte, size)}
	copy(buf.Pix, data[pos:pos+size])
	return buf, nil
}

// EncodePPM writes the buffer as a binary (P6) PPM with maxval 255.
func EncodePPM(buf *PixelBuffer) []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, "%s\n%d %d\n255\n", ppmMagic, buf.Width, buf.Height)
	out.Write(buf.Pix)
	return out.Bytes()
}

// ppmNumber skips whitespace and comments, then reads a decimal number.
func ppmNumber(data []byte, pos int) (int, int, error) {
	for pos < len(data) && (isSpace(data[pos]) || data[pos] == '#') {
		if data[pos] == '#' {
			for pos < len(data) && data[pos] != '\n' {
				pos++
			}
			continue
		}
		pos++
	}
	if pos >= len(data) {
		return 0, pos, fmt.Errorf("%w: truncated header", ErrInvalidPPM)
	}

	start := pos
	for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
		pos++
	}
	if start == pos {
		return 0, pos, fmt.Errorf("%w: unexpected byte %q in header", ErrInvalidPPM, data[pos])
	}
	n, err := strconv.Atoi(string(data[start:pos]))
	if err != nil {
		return 0, pos, fmt.Errorf("%w: %v", ErrInvalidPPM, err)
	}
	return n, pos, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
