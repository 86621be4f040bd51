package worldmap

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite store the pipeline reads its extracted ROM tables
// from and writes the reconstructed world into.
type DB struct {
	db *sql.DB
}

var schema = []string{
	// input tables, produced by the upstream extractors
	"CREATE TABLE IF NOT EXISTS tilesets (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE)",
	"CREATE TABLE IF NOT EXISTS tileset_tiles (tileset_id INTEGER NOT NULL, tile_index INTEGER NOT NULL, tile_data BLOB NOT NULL, PRIMARY KEY (tileset_id, tile_index))",
	"CREATE TABLE IF NOT EXISTS blocksets (tileset_id INTEGER NOT NULL, block_index INTEGER NOT NULL, block_data BLOB NOT NULL, PRIMARY KEY (tileset_id, block_index))",
	"CREATE TABLE IF NOT EXISTS maps (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, tileset_id INTEGER NOT NULL, blk_data BLOB, zone_id INTEGER, anchor_x INTEGER, anchor_y INTEGER, north_connection TEXT, south_connection TEXT, west_connection TEXT, east_connection TEXT)",
	"CREATE TABLE IF NOT EXISTS map_connections (from_map TEXT NOT NULL, to_map TEXT NOT NULL, direction TEXT NOT NULL, offset INTEGER NOT NULL DEFAULT 0)",
	"CREATE TABLE IF NOT EXISTS parent_locations (map_name TEXT NOT NULL UNIQUE, parent_name TEXT NOT NULL)",
	"CREATE TABLE IF NOT EXISTS objects (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, zone_id INTEGER NOT NULL, local_x INTEGER NOT NULL, local_y INTEGER NOT NULL, x INTEGER, y INTEGER, item_id INTEGER)",
	// output tables
	"CREATE TABLE IF NOT EXISTS zones (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, tileset_id INTEGER NOT NULL, is_overworld INTEGER NOT NULL DEFAULT 0, offset_x INTEGER NOT NULL DEFAULT 0, offset_y INTEGER NOT NULL DEFAULT 0, placed INTEGER NOT NULL DEFAULT 0)",
	"CREATE TABLE IF NOT EXISTS tile_images (id INTEGER PRIMARY KEY AUTOINCREMENT, tileset_id INTEGER NOT NULL, block_index INTEGER NOT NULL, quadrant INTEGER NOT NULL, image_path TEXT NOT NULL, image_hash TEXT NOT NULL UNIQUE)",
	"CREATE TABLE IF NOT EXISTS tiles (id INTEGER PRIMARY KEY AUTOINCREMENT, x INTEGER NOT NULL, y INTEGER NOT NULL, local_x INTEGER NOT NULL, local_y INTEGER NOT NULL, zone_id INTEGER NOT NULL, tile_image_id INTEGER NOT NULL, is_overworld INTEGER NOT NULL DEFAULT 0)",
	"CREATE TABLE IF NOT EXISTS warps (id INTEGER PRIMARY KEY AUTOINCREMENT, source_map TEXT NOT NULL, source_zone_id INTEGER, source_x INTEGER NOT NULL, source_y INTEGER NOT NULL, x INTEGER, y INTEGER, destination_map TEXT NOT NULL, destination_zone_id INTEGER, destination_x INTEGER, destination_y INTEGER, destination_warp_id INTEGER NOT NULL DEFAULT 0)",
	"CREATE INDEX IF NOT EXISTS idx_tiles_zone_id ON tiles (zone_id)",
	"CREATE INDEX IF NOT EXISTS idx_tiles_tile_image_id ON tiles (tile_image_id)",
}

// NewDB opens the store at file, creating any missing tables.
func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range schema {
		if _, err = db.Exec(ddl); err != nil {
			return nil, err
		}
	}

	return &DB{
		db: db,
	}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Tileset is one row of the tileset catalog.
type Tileset struct {
	ID   int64
	Name string
}

func (db *DB) Tilesets() ([]Tileset, error) {
	rows, err := db.db.Query("SELECT id, name FROM tilesets ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tilesets []Tileset
	for rows.Next() {
		var t Tileset
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tilesets = append(tilesets, t)
	}

	return tilesets, rows.Err()
}

// TilesetTiles returns the raw tile data of one tileset keyed by tile
// index.
func (db *DB) TilesetTiles(tileset int64) (map[uint8][]byte, error) {
	rows, err := db.db.Query("SELECT tile_index, tile_data FROM tileset_tiles WHERE tileset_id = ? ORDER BY tile_index", tileset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiles := make(map[uint8][]byte)
	for rows.Next() {
		var index int
		var data []byte
		if err := rows.Scan(&index, &data); err != nil {
			return nil, err
		}
		tiles[uint8(index)] = data
	}

	return tiles, rows.Err()
}

// BlockRow is one blockset entry, in block index order.
type BlockRow struct {
	Index int
	Data  []byte
}

func (db *DB) Blockset(tileset int64) ([]BlockRow, error) {
	rows, err := db.db.Query("SELECT block_index, block_data FROM blocksets WHERE tileset_id = ? ORDER BY block_index", tileset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []BlockRow
	for rows.Next() {
		var b BlockRow
		if err := rows.Scan(&b.Index, &b.Data); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	return blocks, rows.Err()
}

// Map is one row of the map catalog. Width and Height are in blocks.
type Map struct {
	ID      int64
	Name    string
	Width   int
	Height  int
	Tileset int64
	Layout  []byte
	AnchorX sql.NullInt64
	AnchorY sql.NullInt64
	North   sql.NullString
	South   sql.NullString
	West    sql.NullString
	East    sql.NullString
}

func (db *DB) Maps() ([]Map, error) {
	rows, err := db.db.Query("SELECT id, name, width, height, tileset_id, blk_data, anchor_x, anchor_y, north_connection, south_connection, west_connection, east_connection FROM maps ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var maps []Map
	for rows.Next() {
		var m Map
		if err := rows.Scan(&m.ID, &m.Name, &m.Width, &m.Height, &m.Tileset, &m.Layout, &m.AnchorX, &m.AnchorY, &m.North, &m.South, &m.West, &m.East); err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}

	return maps, rows.Err()
}

// SetMapZone records which zone a map was folded into.
func (db *DB) SetMapZone(mapID, zoneID int64) error {
	_, err := db.db.Exec("UPDATE maps SET zone_id = ? WHERE id = ?", zoneID, mapID)
	return err
}

// MapZones returns the map name to zone id association recorded by the
// tiles stage.
func (db *DB) MapZones() (map[string]int64, error) {
	rows, err := db.db.Query("SELECT name, zone_id FROM maps WHERE zone_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	zones := make(map[string]int64)
	for rows.Next() {
		var name string
		var zone int64
		if err := rows.Scan(&name, &zone); err != nil {
			return nil, err
		}
		zones[name] = zone
	}

	return zones, rows.Err()
}

// Connection is one row of the connection table, in map name terms.
type Connection struct {
	From      string
	To        string
	Direction string
	Offset    int
}

func (db *DB) Connections() ([]Connection, error) {
	rows, err := db.db.Query("SELECT from_map, to_map, direction, offset FROM map_connections ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.From, &c.To, &c.Direction, &c.Offset); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}

	return conns, rows.Err()
}

func (db *DB) ParentLocations() (map[string]string, error) {
	rows, err := db.db.Query("SELECT map_name, parent_name FROM parent_locations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parents := make(map[string]string)
	for rows.Next() {
		var name, parent string
		if err := rows.Scan(&name, &parent); err != nil {
			return nil, err
		}
		parents[name] = parent
	}

	return parents, rows.Err()
}

// AddZone returns the id of the named zone, creating it if necessary.
func (db *DB) AddZone(name string, tileset int64, overworld bool) (int64, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM zones WHERE name = ?", name).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO zones (name, tileset_id, is_overworld) VALUES (?, ?, ?)", name, tileset, overworld)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// AddTileImage returns the id of the catalog record for hash, inserting
// a new record pointing at path when the hash has not been seen.
func (db *DB) AddTileImage(tileset int64, blockIndex, quadrant int, path, hash string) (int64, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM tile_images WHERE image_hash = ?", hash).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO tile_images (tileset_id, block_index, quadrant, image_path, image_hash) VALUES (?, ?, ?, ?, ?)", tileset, blockIndex, quadrant, path, hash)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// TileRow is one tile layer entry at local coordinates. Global
// coordinates start equal to the locals and are recomputed by the
// project stage.
type TileRow struct {
	LocalX    int
	LocalY    int
	Zone      int64
	Image     int64
	Overworld bool
}

// InsertTiles writes one batch of tile rows in a single transaction.
func (db *DB) InsertTiles(tiles []TileRow) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO tiles (x, y, local_x, local_y, zone_id, tile_image_id, is_overworld) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range tiles {
		if _, err := stmt.Exec(t.LocalX, t.LocalY, t.LocalX, t.LocalY, t.Zone, t.Image, t.Overworld); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Zone is a named region placed in the global coordinate space. Width
// and Height are in tiles, measured over the zone's emitted tile layer.
type Zone struct {
	ID        int64
	Name      string
	Tileset   int64
	Overworld bool
	Width     int
	Height    int
	OffsetX   int
	OffsetY   int
	Placed    bool
	Anchored  bool
	AnchorX   int
	AnchorY   int
}

// Zones returns every zone with its dimensions and any locally recorded
// anchor, in id order.
func (db *DB) Zones() ([]*Zone, error) {
	rows, err := db.db.Query("SELECT id, name, tileset_id, is_overworld, offset_x, offset_y, placed FROM zones ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []*Zone
	byID := make(map[int64]*Zone)
	for rows.Next() {
		z := &Zone{Width: 1, Height: 1}
		if err := rows.Scan(&z.ID, &z.Name, &z.Tileset, &z.Overworld, &z.OffsetX, &z.OffsetY, &z.Placed); err != nil {
			return nil, err
		}
		zones = append(zones, z)
		byID[z.ID] = z
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dims, err := db.db.Query("SELECT zone_id, MAX(local_x) - MIN(local_x) + 1, MAX(local_y) - MIN(local_y) + 1 FROM tiles GROUP BY zone_id")
	if err != nil {
		return nil, err
	}
	defer dims.Close()

	for dims.Next() {
		var id int64
		var width, height int
		if err := dims.Scan(&id, &width, &height); err != nil {
			return nil, err
		}
		if z, ok := byID[id]; ok {
			z.Width, z.Height = width, height
		}
	}
	if err := dims.Err(); err != nil {
		return nil, err
	}

	anchors, err := db.db.Query("SELECT zone_id, anchor_x, anchor_y FROM maps WHERE zone_id IS NOT NULL AND anchor_x IS NOT NULL AND anchor_y IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer anchors.Close()

	for anchors.Next() {
		var id int64
		var x, y int
		if err := anchors.Scan(&id, &x, &y); err != nil {
			return nil, err
		}
		if z, ok := byID[id]; ok && !z.Anchored {
			z.Anchored = true
			z.AnchorX, z.AnchorY = x, y
		}
	}

	return zones, anchors.Err()
}

// UpdateZonePlacement persists a zone's resolved offset.
func (db *DB) UpdateZonePlacement(z *Zone) error {
	_, err := db.db.Exec("UPDATE zones SET offset_x = ?, offset_y = ?, placed = ? WHERE id = ?", z.OffsetX, z.OffsetY, z.Placed, z.ID)
	return err
}

// ProjectZone recomputes global coordinates from locals for everything
// in the zone. It returns the number of tile and object rows touched.
func (db *DB) ProjectZone(z *Zone) (int64, int64, error) {
	result, err := db.db.Exec("UPDATE tiles SET x = local_x + ?, y = local_y + ? WHERE zone_id = ?", z.OffsetX, z.OffsetY, z.ID)
	if err != nil {
		return 0, 0, err
	}
	tiles, err := result.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	result, err = db.db.Exec("UPDATE objects SET x = local_x + ?, y = local_y + ? WHERE zone_id = ?", z.OffsetX, z.OffsetY, z.ID)
	if err != nil {
		return 0, 0, err
	}
	objects, err := result.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	if _, err = db.db.Exec("UPDATE warps SET x = source_x + ?, y = source_y + ? WHERE source_zone_id = ?", z.OffsetX, z.OffsetY, z.ID); err != nil {
		return 0, 0, err
	}

	return tiles, objects, nil
}

// Warps returns every warp record in id order.
func (db *DB) Warps() ([]*Warp, error) {
	rows, err := db.db.Query("SELECT id, source_map, source_zone_id, source_x, source_y, destination_map, destination_zone_id, destination_x, destination_y, destination_warp_id FROM warps ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warps []*Warp
	for rows.Next() {
		w := &Warp{}
		var szone, dzone, dx, dy sql.NullInt64
		if err := rows.Scan(&w.ID, &w.SourceMap, &szone, &w.SourceX, &w.SourceY, &w.Destination, &dzone, &dx, &dy, &w.DestWarp); err != nil {
			return nil, err
		}
		w.SourceZone = szone.Int64
		w.DestZone = dzone.Int64
		if dx.Valid && dy.Valid {
			w.DestX, w.DestY = int(dx.Int64), int(dy.Int64)
			w.Resolved = true
		}
		warps = append(warps, w)
	}

	return warps, rows.Err()
}

// UpdateWarp persists a warp's resolved destination, zone associations
// and global source coordinates. Unresolved destinations stay null.
func (db *DB) UpdateWarp(w *Warp) error {
	null := func(ok bool, v int64) sql.NullInt64 {
		return sql.NullInt64{Int64: v, Valid: ok}
	}

	_, err := db.db.Exec(
		"UPDATE warps SET source_zone_id = ?, x = ?, y = ?, destination_map = ?, destination_zone_id = ?, destination_x = ?, destination_y = ?, destination_warp_id = ? WHERE id = ?",
		null(w.SourceZone != 0, w.SourceZone),
		null(w.Projected, int64(w.GlobalX)),
		null(w.Projected, int64(w.GlobalY)),
		w.Destination,
		null(w.DestZone != 0, w.DestZone),
		null(w.Resolved, int64(w.DestX)),
		null(w.Resolved, int64(w.DestY)),
		w.DestWarp,
		w.ID,
	)
	return err
}
