/*
Package worldmap reconstructs a tile accurate, globally coordinated map
of a game world from extracted ROM data: raw tile bitmaps, per map block
layouts and inter map connection records.

The pipeline runs in four batch sequential stages. The tiles stage
decodes and composes every block quadrant, deduplicates the resulting
images by content hash and emits the per zone tile layer at local
coordinates. The layout stage places every zone in a shared coordinate
space by walking the connection graph breadth first from an origin zone.
The project stage recomputes global coordinates from locals and zone
offsets. The warps stage resolves symbolic return destinations against
the placed zones.
*/
package worldmap

import "log"

const (
	// BlockSize is the width and height of one block in tiles.
	BlockSize = 2

	// OverworldTileset is the tileset shared by every outdoor map. Maps
	// using it each become their own zone; any other tileset's maps
	// share one zone per tileset.
	OverworldTileset = 0
)

// WorldMap drives the reconstruction pipeline against one store.
type WorldMap struct {
	db     *DB
	logger *log.Logger
	stats  Stats
}

// New opens the store at file and returns a pipeline around it.
func New(file string, logger *log.Logger) (*WorldMap, error) {
	db, err := NewDB(file)
	if err != nil {
		return nil, err
	}

	return &WorldMap{
		db:     db,
		logger: logger,
	}, nil
}

func (w *WorldMap) Close() error {
	return w.db.Close()
}

// Stats counts the data quality problems encountered during a run. None
// of them abort the pipeline; they are surfaced so the output can be
// audited afterwards.
type Stats struct {
	MissingTiles    int // dangling tile references left at background fill
	MissingBlocks   int // short or dangling block references skipped
	ClampedLayouts  int // layout buffers padded or truncated to fit
	Fallbacks       int // zones placed without a path from the origin
	UnresolvedWarps int // symbolic warps left without a destination
}

// Stats reports the counters accumulated so far.
func (w *WorldMap) Stats() Stats {
	return w.stats
}

// Build runs every pipeline stage in dependency order.
func (w *WorldMap) Build(imageDir, origin string, limit int) error {
	if err := w.BuildTiles(imageDir); err != nil {
		return err
	}
	if err := w.ResolveLayout(origin, limit); err != nil {
		return err
	}
	if err := w.Project(); err != nil {
		return err
	}
	return w.ResolveWarps()
}
