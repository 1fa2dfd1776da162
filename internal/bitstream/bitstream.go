// Package bitstream splits payload bytes into fixed-width chunks and
// reassembles them. Chunks are ordered MSB first, one chunk per carrier byte.
package bitstream

// ValidWidth reports whether bit is a supported chunk width.
// 8 must be evenly divisible by bit so a byte splits into whole chunks.
func ValidWidth(bit int) bool {
	return bit >= 1 && bit <= 8 && 8%bit == 0
}

// Mask returns the byte mask isolating the bit least-significant bits.
// The result is undefined for bit outside [1,8].
func Mask(bit int) byte {
	return byte(0xFF >> uint(8-bit))
}

// ChunksPerByte returns how many carrier bytes one payload byte occupies.
func ChunksPerByte(bit int) int {
	return 8 / bit
}

// Capacity returns the number of payload bytes (sentinel included) that
// carrierBytes bytes can hold at the given width.
func Capacity(carrierBytes, bit int) int {
	return carrierBytes * bit / 8
}

// Scatter writes b into the low bits of dst[0:ChunksPerByte(bit)], MSB chunk
// first. The high bits of every touched carrier byte are preserved.
func Scatter(dst []byte, b byte, bit int) {
	mask := Mask(bit)
	i := 0
	for shift := 8 - bit; shift >= 0; shift -= bit {
		chunk := (b >> uint(shift)) & mask
		dst[i] = (dst[i] &^ mask) | chunk
		i++
	}
}

// Gather reassembles one byte from the low bits of src[0:ChunksPerByte(bit)].
func Gather(src []byte, bit int) byte {
	mask := Mask(bit)
	var b byte
	i := 0
	for shift := 8 - bit; shift >= 0; shift -= bit {
		b |= (src[i] & mask) << uint(shift)
		i++
	}
	return b
}
