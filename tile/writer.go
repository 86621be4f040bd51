package tile

// Encode packs p back into the 16 byte planar form. It is the inverse of
// Decode; only the low two bits of each pixel value are used.
func Encode(p Pixels) [Size]byte {
	var b [Size]byte

	for y := 0; y < Height; y++ {
		var lo, hi byte
		for x := 0; x < Width; x++ {
			v := p[y][x] & 3
			shift := uint(Width - 1 - x)
			lo |= (v & 1) << shift
			hi |= (v >> 1) << shift
		}
		b[y*2], b[y*2+1] = lo, hi
	}

	return b
}
