package tile

import "errors"

var errNotEnough = errors.New("tile: not enough tile data")

// Decode unpacks the first Size bytes of data into palette indices. It
// fails only when data is shorter than Size; trailing bytes are ignored.
func Decode(data []byte) (Pixels, error) {
	var p Pixels

	if len(data) < Size {
		return p, errNotEnough
	}

	for y := 0; y < Height; y++ {
		lo, hi := data[y*2], data[y*2+1]
		for x := 0; x < Width; x++ {
			shift := uint(Width - 1 - x)
			p[y][x] = (hi>>shift&1)<<1 | lo>>shift&1
		}
	}

	return p, nil
}
