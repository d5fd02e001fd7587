package ids

// MaxID is one past the largest identifier that survives an RGB8 round trip.
const MaxID uint32 = 1 << 24

// Background is the identifier of a pixel no pickable element covers.
const Background uint32 = 0

// Encode splits a 24-bit identifier into the color channels written by the
// pick pass. Bits above 24 are dropped.
func Encode(id uint32) [3]byte {
	return [3]byte{
		byte((id >> 16) & 0xFF),
		byte((id >> 8) & 0xFF),
		byte(id & 0xFF),
	}
}

// Decode is the inverse of Encode.
func Decode(r, g, b byte) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// EncodeRGBA returns the RGBA8 texel for id with an opaque alpha.
func EncodeRGBA(id uint32) [4]byte {
	c := Encode(id)
	return [4]byte{c[0], c[1], c[2], 0xFF}
}

// DecodeRGBA ignores alpha.
func DecodeRGBA(px [4]byte) uint32 {
	return Decode(px[0], px[1], px[2])
}
