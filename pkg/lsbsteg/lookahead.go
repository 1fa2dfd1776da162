package lsbsteg

import (
	"github.com/tuomass/lsbsteg-go/internal/bitstream"
	"github.com/tuomass/lsbsteg-go/internal/framing"
)

type decodeState uint8

const (
	stateScanning decodeState = iota
	stateDone
)

// lookahead reassembles payload bytes from a buffer one at a time. Before
// handing out byte k it also reassembles byte k+1 and holds it in ahead; if
// the pair is the end marker, byte k is withheld and the machine stops with
// the cursor past both marker bytes. Otherwise only byte k is consumed and
// the held byte becomes the next current byte.
type lookahead struct {
	pix  []byte
	bit  int
	step int

	state decodeState
	// cursor is the buffer offset of the current byte's first chunk
	cursor    int
	ahead     byte
	haveAhead bool
	sentinel  bool
}

func newLookahead(pix []byte, bit int) *lookahead {
	return &lookahead{
		pix:  pix,
		bit:  bit,
		step: bitstream.ChunksPerByte(bit),
	}
}

// gather reassembles the byte whose chunks start at pos. It reports false
// when the buffer ends before all chunks are available.
func (l *lookahead) gather(pos int) (byte, bool) {
	if pos+l.step > len(l.pix) {
		return 0, false
	}
	return bitstream.Gather(l.pix[pos:pos+l.step], l.bit), true
}

// next returns the next payload byte. It reports false once the end marker
// has been matched or the buffer is exhausted.
func (l *lookahead) next() (byte, bool) {
	if l.state == stateDone {
		return 0, false
	}

	current, ok := l.ahead, l.haveAhead
	if !ok {
		current, ok = l.gather(l.cursor)
		if !ok {
			l.state = stateDone
			return 0, false
		}
	}

	following, ok := l.gather(l.cursor + l.step)
	if ok && framing.IsSentinel(current, following) {
		l.cursor += framing.SentinelSize * l.step
		l.haveAhead = false
		l.sentinel = true
		l.state = stateDone
		return 0, false
	}

	l.cursor += l.step
	l.ahead, l.haveAhead = following, ok
	return current, true
}

// done reports whether the machine has reached its terminal state.
func (l *lookahead) done() bool {
	return l.state == stateDone
}
