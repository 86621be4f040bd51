/*
Package block implements composition of terrain blocks into quadrant
images.

A block is a 32 by 32 pixel terrain unit referencing sixteen 8 by 8 tiles
in a 4 by 4 grid, encoded as 16 tile indices. Blocks are rendered one
quadrant at a time: a quadrant is the 16 by 16 pixel image formed by one
2 by 2 group of tiles, drawn over the fixed four shade palette.
*/
package block

import (
	"errors"
	"image"
	"image/color"

	"github.com/retrozone/worldmap/tile"
)

const (
	// Size is the encoded length of one block in bytes.
	Size = 16

	gridWidth = 4

	// Quadrants is the number of quadrant images in one block.
	Quadrants = 4

	// QuadrantSize is the pixel width and height of one quadrant image.
	QuadrantSize = 2 * tile.Width
)

// Palette is the four shade palette every composed image uses, from
// white down to black, indexed by decoded pixel value.
var Palette = color.Palette{
	color.RGBA{0xff, 0xff, 0xff, 0xff},
	color.RGBA{0xc0, 0xc0, 0xc0, 0xff},
	color.RGBA{0x60, 0x60, 0x60, 0xff},
	color.RGBA{0x00, 0x00, 0x00, 0xff},
}

var errNotEnough = errors.New("block: not enough block data")

// Block is the 4 by 4 grid of tile indices making up one terrain unit.
type Block [Size]uint8

// New copies the first Size bytes of data into a Block.
func New(data []byte) (Block, error) {
	var b Block

	if len(data) < Size {
		return b, errNotEnough
	}
	copy(b[:], data)

	return b, nil
}

// TileLookup resolves a tile index to its encoded tile data. The second
// return reports whether the tileset has the tile.
type TileLookup func(index uint8) ([]byte, bool)

// Compose renders quadrant q of the block as a 16 by 16 paletted image.
// Tiles missing from the tileset, or whose data is short, are skipped and
// their pixel region left at the background fill; skipped reports how
// many of the four sub-tiles were left unfilled.
func (b Block) Compose(q int, lookup TileLookup) (m *image.Paletted, skipped int) {
	m = image.NewPaletted(image.Rect(0, 0, QuadrantSize, QuadrantSize), Palette)

	for i := 0; i < 4; i++ {
		row := (q>>1)*2 + i/2
		col := (q&1)*2 + i%2

		data, ok := lookup(b[row*gridWidth+col])
		if !ok {
			skipped++
			continue
		}

		p, err := tile.Decode(data)
		if err != nil {
			skipped++
			continue
		}

		ox := i % 2 * tile.Width
		oy := i / 2 * tile.Height
		for y := 0; y < tile.Height; y++ {
			for x := 0; x < tile.Width; x++ {
				m.SetColorIndex(ox+x, oy+y, p[y][x])
			}
		}
	}

	return m, skipped
}
