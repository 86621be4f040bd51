package block_test

import (
	"testing"

	"github.com/retrozone/worldmap/block"
	"github.com/retrozone/worldmap/tile"
)

// solid returns the encoded form of a tile whose every pixel is v.
func solid(v uint8) []byte {
	var p tile.Pixels
	for y := 0; y < tile.Height; y++ {
		for x := 0; x < tile.Width; x++ {
			p[y][x] = v
		}
	}
	b := tile.Encode(p)
	return b[:]
}

// lookup resolves tile index i to a solid tile of value i%4.
func lookup(index uint8) ([]byte, bool) {
	return solid(index % 4), true
}

func TestNewShort(t *testing.T) {
	if _, err := block.New(make([]byte, block.Size-1)); err == nil {
		t.Error("New accepted a short buffer")
	}
}

func TestComposeQuadrantMapping(t *testing.T) {
	// Tile indices 0..15 in grid order; each quadrant must pick up its
	// own 2x2 group, sub-tiles in raster order.
	var data [block.Size]byte
	for i := range data {
		data[i] = byte(i)
	}
	b, err := block.New(data[:])
	if err != nil {
		t.Fatal(err)
	}

	// expected tile index per quadrant, in sub-tile raster order
	want := [block.Quadrants][4]uint8{
		{0, 1, 4, 5},
		{2, 3, 6, 7},
		{8, 9, 12, 13},
		{10, 11, 14, 15},
	}

	for q := 0; q < block.Quadrants; q++ {
		m, skipped := b.Compose(q, lookup)
		if skipped != 0 {
			t.Fatalf("quadrant %d: %d sub-tiles skipped", q, skipped)
		}
		for i, index := range want[q] {
			ox := i % 2 * tile.Width
			oy := i / 2 * tile.Height
			for y := 0; y < tile.Height; y++ {
				for x := 0; x < tile.Width; x++ {
					if got := m.ColorIndexAt(ox+x, oy+y); got != index%4 {
						t.Fatalf("quadrant %d sub-tile %d pixel (%d, %d) = %d, want %d", q, i, x, y, got, index%4)
					}
				}
			}
		}
	}
}

func TestComposeMissingTile(t *testing.T) {
	var data [block.Size]byte
	for i := range data {
		data[i] = byte(i)
	}
	b, err := block.New(data[:])
	if err != nil {
		t.Fatal(err)
	}

	// tile 5 is absent; quadrant 0's bottom-right region stays at the
	// background fill
	m, skipped := b.Compose(0, func(index uint8) ([]byte, bool) {
		if index == 5 {
			return nil, false
		}
		return solid(3), true
	})

	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if got := m.ColorIndexAt(tile.Width, tile.Height); got != 0 {
		t.Errorf("missing region pixel = %d, want background 0", got)
	}
	if got := m.ColorIndexAt(0, 0); got != 3 {
		t.Errorf("present region pixel = %d, want 3", got)
	}
}

func TestComposeShortTileData(t *testing.T) {
	var data [block.Size]byte
	b, err := block.New(data[:])
	if err != nil {
		t.Fatal(err)
	}

	_, skipped := b.Compose(0, func(uint8) ([]byte, bool) {
		return make([]byte, tile.Size-1), true
	})
	if skipped != 4 {
		t.Errorf("skipped = %d, want 4", skipped)
	}
}

func TestComposeBounds(t *testing.T) {
	b, err := block.New(make([]byte, block.Size))
	if err != nil {
		t.Fatal(err)
	}

	m, _ := b.Compose(0, lookup)
	if got := m.Bounds(); got.Dx() != block.QuadrantSize || got.Dy() != block.QuadrantSize {
		t.Errorf("bounds = %v, want %dx%d", got, block.QuadrantSize, block.QuadrantSize)
	}
}
