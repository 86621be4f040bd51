package worldmap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/retrozone/worldmap/block"
	"github.com/retrozone/worldmap/tileimage"
)

// Durable writes are flushed in fixed size batches purely for
// throughput; batch boundaries carry no meaning.
const batchSize = 1000

type originKey struct {
	tileset  int64
	block    int
	quadrant int
}

// interner collapses identical composed images to one stored record. It
// is owned by a single tiles stage run; the ids it holds are only
// meaningful within that run, the content hash is the stable key.
type interner struct {
	byHash   map[string]int64
	byOrigin map[originKey]int64
}

func newInterner() *interner {
	return &interner{
		byHash:   make(map[string]int64),
		byOrigin: make(map[originKey]int64),
	}
}

// BuildTiles runs the tiles stage: creates the zone catalog, composes
// and interns every block quadrant image under imageDir, and emits the
// per zone tile layer at local coordinates.
func (w *WorldMap) BuildTiles(imageDir string) error {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return err
	}

	maps, err := w.db.Maps()
	if err != nil {
		return err
	}

	zoneOf, err := w.createZones(maps)
	if err != nil {
		return err
	}

	in, err := w.buildImages(imageDir)
	if err != nil {
		return err
	}

	return w.buildLayers(maps, zoneOf, in)
}

// createZones populates the zone catalog from the map catalog: one zone
// per overworld map, one shared zone per interior tileset. Returns the
// map id to zone id association.
func (w *WorldMap) createZones(maps []Map) (map[int64]int64, error) {
	tilesets, err := w.db.Tilesets()
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(tilesets))
	for _, t := range tilesets {
		names[t.ID] = t.Name
	}

	zoneOf := make(map[int64]int64, len(maps))
	shared := make(map[int64]int64)
	created := make(map[int64]struct{})

	for _, m := range maps {
		var zone int64
		switch {
		case m.Tileset == OverworldTileset:
			if zone, err = w.db.AddZone(m.Name, m.Tileset, true); err != nil {
				return nil, err
			}
		case shared[m.Tileset] != 0:
			zone = shared[m.Tileset]
		default:
			name := names[m.Tileset]
			if name == "" {
				name = fmt.Sprintf("Tileset%d", m.Tileset)
			}
			if zone, err = w.db.AddZone(name, m.Tileset, false); err != nil {
				return nil, err
			}
			shared[m.Tileset] = zone
		}

		zoneOf[m.ID] = zone
		created[zone] = struct{}{}
		if err := w.db.SetMapZone(m.ID, zone); err != nil {
			return nil, err
		}
	}

	w.logger.Printf("created %d zones from %d maps\n", len(created), len(maps))

	return zoneOf, nil
}

// buildImages composes all four quadrants of every block in every
// tileset and interns them by content hash. New images are written to
// imageDir as PNG, named after their hash.
func (w *WorldMap) buildImages(imageDir string) (*interner, error) {
	in := newInterner()

	tilesets, err := w.db.Tilesets()
	if err != nil {
		return nil, err
	}

	for _, ts := range tilesets {
		tiles, err := w.db.TilesetTiles(ts.ID)
		if err != nil {
			return nil, err
		}
		blocks, err := w.db.Blockset(ts.ID)
		if err != nil {
			return nil, err
		}
		if len(tiles) == 0 || len(blocks) == 0 {
			continue
		}

		lookup := func(index uint8) ([]byte, bool) {
			data, ok := tiles[index]
			return data, ok
		}

		for _, br := range blocks {
			b, err := block.New(br.Data)
			if err != nil {
				w.stats.MissingBlocks++
				w.logger.Printf("skipping short block %d in tileset %d\n", br.Index, ts.ID)
				continue
			}

			for q := 0; q < block.Quadrants; q++ {
				m, skipped := b.Compose(q, lookup)
				w.stats.MissingTiles += skipped

				hash, err := tileimage.Hash(m)
				if err != nil {
					return nil, err
				}

				key := originKey{ts.ID, br.Index, q}
				if id, ok := in.byHash[hash]; ok {
					in.byOrigin[key] = id
					continue
				}

				path := filepath.Join(imageDir, fmt.Sprintf("tile_%s.png", hash))
				f, err := os.Create(path)
				if err != nil {
					return nil, err
				}
				if err := tileimage.Encode(f, m); err != nil {
					f.Close()
					return nil, err
				}
				if err := f.Close(); err != nil {
					return nil, err
				}

				id, err := w.db.AddTileImage(ts.ID, br.Index, q, path, hash)
				if err != nil {
					return nil, err
				}
				in.byHash[hash] = id
				in.byOrigin[key] = id
			}
		}
	}

	w.logger.Printf("interned %d distinct tile images from %d quadrants\n", len(in.byHash), len(in.byOrigin))

	return in, nil
}

// buildLayers emits the tile layer for every map with a layout buffer.
// Buffers that do not match width by height are clamped, never fatal.
func (w *WorldMap) buildLayers(maps []Map, zoneOf map[int64]int64, in *interner) error {
	var batch []TileRow
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.db.InsertTiles(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	emitted := 0
	for _, m := range maps {
		if len(m.Layout) == 0 {
			continue
		}

		layout := m.Layout
		if expected := m.Width * m.Height; len(layout) < expected {
			w.stats.ClampedLayouts++
			layout = append(append([]byte{}, layout...), make([]byte, expected-len(layout))...)
		} else if len(layout) > expected {
			w.stats.ClampedLayouts++
			layout = layout[:expected]
		}

		zone := zoneOf[m.ID]
		overworld := m.Tileset == OverworldTileset

		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				index := int(layout[y*m.Width+x])
				if _, ok := in.byOrigin[originKey{m.Tileset, index, 0}]; !ok {
					w.stats.MissingBlocks++
					continue
				}

				for q := 0; q < block.Quadrants; q++ {
					batch = append(batch, TileRow{
						LocalX:    x*BlockSize + q%2,
						LocalY:    y*BlockSize + q/2,
						Zone:      zone,
						Image:     in.byOrigin[originKey{m.Tileset, index, q}],
						Overworld: overworld,
					})
					emitted++

					if len(batch) >= batchSize {
						if err := flush(); err != nil {
							return err
						}
					}
				}
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	w.logger.Printf("emitted %d tiles across %d maps\n", emitted, len(maps))

	return nil
}
