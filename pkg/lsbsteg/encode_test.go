package lsbsteg

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/tuomass/lsbsteg-go/internal/bitstream"
)

func TestEncode_WorkedExamples(t *testing.T) {
	// 'A' = 0x41, ':' = 0x3A, ')' = 0x29
	tests := []struct {
		name          string
		width, height int
		bit           int
		fill          byte
		expected      []byte
	}{
		{
			name:  "bit 1",
			width: 3, height: 3, bit: 1, fill: 0x00,
			expected: []byte{
				0, 1, 0, 0, 0, 0, 0, 1, // 'A'
				0, 0, 1, 1, 1, 0, 1, 0, // ':'
				0, 0, 1, 0, 1, 0, 0, 1, // ')'
				0, 0, 0, // untouched
			},
		},
		{
			name:  "bit 2",
			width: 2, height: 2, bit: 2, fill: 0x00,
			expected: []byte{
				1, 0, 0, 1,
				0, 3, 2, 2,
				0, 2, 2, 1,
			},
		},
		{
			name:  "bit 2 keeps high bits",
			width: 2, height: 2, bit: 2, fill: 0xFF,
			expected: []byte{
				0xFD, 0xFC, 0xFC, 0xFD,
				0xFC, 0xFF, 0xFE, 0xFE,
				0xFC, 0xFE, 0xFE, 0xFD,
			},
		},
		{
			name:  "bit 4",
			width: 1, height: 2, bit: 4, fill: 0x00,
			expected: []byte{
				0x4, 0x1,
				0x3, 0xA,
				0x2, 0x9,
			},
		},
		{
			name:  "bit 4 over mid grey",
			width: 1, height: 2, bit: 4, fill: 0x80,
			expected: []byte{
				0x84, 0x81,
				0x83, 0x8A,
				0x82, 0x89,
			},
		},
		{
			name:  "bit 8",
			width: 1, height: 1, bit: 8, fill: 0x99,
			expected: []byte{0x41, 0x3A, 0x29},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := filledBuffer(tt.width, tt.height, tt.fill)

			result, err := Encode(buf, tt.bit, strings.NewReader("A"), nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if !reflect.DeepEqual(buf.Pix, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, buf.Pix)
			}
			if result.Embedded != 3 {
				t.Errorf("expected 3 embedded bytes, got %d", result.Embedded)
			}
			if result.Truncated || result.SentinelCollision {
				t.Errorf("unexpected warnings: %+v", result)
			}
		})
	}
}

func TestEncode_CursorPerBitWidth(t *testing.T) {
	// One payload byte plus the end marker
	expected := map[int]int{1: 8 + 16, 2: 4 + 8, 4: 2 + 4, 8: 1 + 2}

	for bit, cursor := range expected {
		buf := NewBuffer(8, 8)
		result, err := Encode(buf, bit, strings.NewReader("A"), nil)
		if err != nil {
			t.Fatalf("bit %d: Encode failed: %v", bit, err)
		}
		if result.Cursor != cursor {
			t.Errorf("bit %d: expected cursor %d, got %d", bit, cursor, result.Cursor)
		}
		if result.PayloadBytes() != 1 {
			t.Errorf("bit %d: expected 1 payload byte, got %d", bit, result.PayloadBytes())
		}
	}
}

func TestEncode_TruncationBoundary(t *testing.T) {
	for _, bit := range SupportedBitWidths {
		capacity := Capacity(4, 4, bit)

		t.Run("fits", func(t *testing.T) {
			buf := NewBuffer(4, 4)
			payload := bytes.Repeat([]byte{'x'}, capacity-2)

			result, err := Encode(buf, bit, bytes.NewReader(payload), nil)
			if err != nil {
				t.Fatalf("bit %d: Encode failed: %v", bit, err)
			}
			if result.Truncated {
				t.Errorf("bit %d: payload of capacity-2 bytes must not be truncated", bit)
			}
			if result.Embedded != capacity {
				t.Errorf("bit %d: expected %d embedded, got %d", bit, capacity, result.Embedded)
			}
		})

		t.Run("one over", func(t *testing.T) {
			buf := NewBuffer(4, 4)
			payload := bytes.Repeat([]byte{'x'}, capacity-1)

			result, err := Encode(buf, bit, bytes.NewReader(payload), nil)
			if err != nil {
				t.Fatalf("bit %d: Encode failed: %v", bit, err)
			}
			if !result.Truncated {
				t.Errorf("bit %d: payload of capacity-1 bytes must be truncated", bit)
			}
			if result.Embedded != capacity {
				t.Errorf("bit %d: expected %d embedded, got %d", bit, capacity, result.Embedded)
			}
			if result.Cursor != capacity*8/bit {
				t.Errorf("bit %d: expected cursor %d, got %d", bit, capacity*8/bit, result.Cursor)
			}
		})
	}
}

func TestEncode_TruncatedPayloadStillTerminates(t *testing.T) {
	buf := NewBuffer(4, 2) // capacity 6 at bit 2
	logger := &recordingLogger{}

	result, err := Encode(buf, 2, strings.NewReader("abcdefgh"), &Options{Logger: logger})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !result.Truncated {
		t.Fatalf("expected truncation")
	}
	if logger.count("warn") != 1 {
		t.Errorf("expected one warning, got %d", logger.count("warn"))
	}

	var out bytes.Buffer
	decoded, err := Decode(buf, 2, &out, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.String() != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", out.String())
	}
	if !decoded.CapacityReached {
		t.Errorf("expected CapacityReached after a truncated hide")
	}
}

func TestEncode_SentinelCollision(t *testing.T) {
	buf := NewBuffer(4, 4)
	logger := &recordingLogger{}
	payload := "hi:)bye"

	result, err := Encode(buf, 2, strings.NewReader(payload), &Options{Logger: logger})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !result.SentinelCollision {
		t.Errorf("expected SentinelCollision")
	}
	if result.CollisionOffset != 2 {
		t.Errorf("expected collision offset 2, got %d", result.CollisionOffset)
	}
	if result.Truncated {
		t.Errorf("unexpected truncation")
	}
	if result.Embedded != len(payload)+2 {
		t.Errorf("expected %d embedded, got %d", len(payload)+2, result.Embedded)
	}
	if logger.count("warn") != 1 {
		t.Errorf("expected one collision warning, got %d", logger.count("warn"))
	}

	// The whole payload and the marker are in the buffer
	step := bitstream.ChunksPerByte(2)
	raw := make([]byte, 0, result.Embedded)
	for i := 0; i < result.Embedded; i++ {
		raw = append(raw, bitstream.Gather(buf.Pix[i*step:(i+1)*step], 2))
	}
	if string(raw) != payload+":)" {
		t.Errorf("expected raw bytes %q, got %q", payload+":)", raw)
	}

	// ...but recovery stops at the first marker
	var out bytes.Buffer
	decoded, err := Decode(buf, 2, &out, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("expected %q, got %q", "hi", out.String())
	}
	if decoded.Recovered != 2 {
		t.Errorf("expected 2 recovered bytes, got %d", decoded.Recovered)
	}
	if decoded.Cursor != 4*step {
		t.Errorf("expected cursor %d, got %d", 4*step, decoded.Cursor)
	}
}

func TestEncode_RepeatedCollisionWarnsOnce(t *testing.T) {
	buf := NewBuffer(4, 4)
	logger := &recordingLogger{}

	result, err := Encode(buf, 8, strings.NewReader("a:):)b"), &Options{Logger: logger})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !result.SentinelCollision || result.CollisionOffset != 1 {
		t.Errorf("expected first collision at offset 1, got %+v", result)
	}
	if logger.count("warn") != 1 {
		t.Errorf("expected one collision warning, got %d", logger.count("warn"))
	}
}

func TestEncode_Errors(t *testing.T) {
	t.Run("invalid bit width leaves buffer untouched", func(t *testing.T) {
		buf := filledBuffer(4, 4, 0xAA)
		_, err := Encode(buf, 3, strings.NewReader("data"), nil)
		if !errors.Is(err, ErrInvalidBitWidth) {
			t.Fatalf("expected ErrInvalidBitWidth, got %v", err)
		}
		if !bytes.Equal(buf.Pix, filledBuffer(4, 4, 0xAA).Pix) {
			t.Errorf("buffer was modified")
		}
	})

	t.Run("inconsistent buffer", func(t *testing.T) {
		buf := &Buffer{Width: 4, Height: 4, Pix: make([]byte, 10)}
		_, err := Encode(buf, 1, strings.NewReader("data"), nil)
		if !errors.Is(err, ErrInvalidBuffer) {
			t.Errorf("expected ErrInvalidBuffer, got %v", err)
		}
	})

	t.Run("no room for marker", func(t *testing.T) {
		buf := NewBuffer(1, 1)
		_, err := Encode(buf, 1, strings.NewReader(""), nil)
		if !errors.Is(err, ErrInsufficientCapacity) {
			t.Errorf("expected ErrInsufficientCapacity, got %v", err)
		}
	})

	t.Run("payload read failure", func(t *testing.T) {
		boom := errors.New("boom")
		buf := NewBuffer(4, 4)
		_, err := Encode(buf, 1, iotest.ErrReader(boom), nil)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped read error, got %v", err)
		}
	})
}

func TestEncode_MarkerOnlyCapacity(t *testing.T) {
	// 3x2 pixels at bit 1 hold exactly the two marker bytes
	tests := []struct {
		name      string
		payload   string
		truncated bool
	}{
		{name: "empty payload", payload: "", truncated: false},
		{name: "any payload is cut", payload: "x", truncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(3, 2)
			result, err := Encode(buf, 1, strings.NewReader(tt.payload), nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if result.Truncated != tt.truncated {
				t.Errorf("expected truncated=%v, got %v", tt.truncated, result.Truncated)
			}
			if result.Embedded != 2 || result.Cursor != 16 {
				t.Errorf("expected 2 bytes in 16 buffer bytes, got %d in %d", result.Embedded, result.Cursor)
			}

			var out bytes.Buffer
			if _, err := Decode(buf, 1, &out, nil); err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if out.Len() != 0 {
				t.Errorf("expected empty recovery, got %q", out.String())
			}
		})
	}
}

func TestEncode_EmptyPayload(t *testing.T) {
	buf := NewBuffer(4, 4)
	result, err := Encode(buf, 4, strings.NewReader(""), nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if result.Embedded != 2 || result.PayloadBytes() != 0 {
		t.Errorf("expected marker only, got %+v", result)
	}
	if result.Cursor != 4 {
		t.Errorf("expected cursor 4, got %d", result.Cursor)
	}
}
