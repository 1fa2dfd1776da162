// Package framing defines the end-of-payload marker appended after the last
// payload byte, and detects occurrences of it inside a payload.
package framing

const (
	// SentinelSize is the length of the end-of-payload marker in bytes
	SentinelSize = 2
)

// Sentinel is the end-of-payload marker. It has no escape sequence.
var Sentinel = [SentinelSize]byte{':', ')'}

// IsSentinel reports whether the pair (a, b) is the end-of-payload marker.
func IsSentinel(a, b byte) bool {
	return a == Sentinel[0] && b == Sentinel[1]
}

// CollisionDetector watches a payload one byte at a time and remembers
// whether any consecutive pair matched the sentinel.
// The zero value is ready to use.
type CollisionDetector struct {
	prev     byte
	started  bool
	detected bool
	offset   int
	seen     int
}

// Observe feeds the next payload byte and reports whether it completed a
// sentinel pair together with the previous byte.
func (d *CollisionDetector) Observe(b byte) bool {
	hit := d.started && IsSentinel(d.prev, b)
	if hit && !d.detected {
		d.detected = true
		d.offset = d.seen - 1
	}
	d.prev = b
	d.started = true
	d.seen++
	return hit
}

// Detected reports whether a sentinel pair has been observed.
func (d *CollisionDetector) Detected() bool {
	return d.detected
}

// Offset returns the payload offset of the first colliding pair, or -1.
func (d *CollisionDetector) Offset() int {
	if !d.detected {
		return -1
	}
	return d.offset
}
