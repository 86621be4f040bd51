package worldmap

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/hilbert"
)

// edge is one directed adjacency between two zones: to lies in the
// given direction from from, shifted offset blocks along the
// perpendicular axis.
type edge struct {
	to        int64
	direction direction
	offset    int
}

// resolver assigns every zone an offset in the shared coordinate space.
// The visited set and adjacency map are owned by one resolve call, so
// the pipeline stays re-entrant.
type resolver struct {
	zones map[int64]*Zone
	order []int64
	edges map[int64][]edge
	limit int
}

func newResolver(zones []*Zone, limit int) *resolver {
	r := &resolver{
		zones: make(map[int64]*Zone, len(zones)),
		edges: make(map[int64][]edge),
		limit: limit,
	}
	for _, z := range zones {
		r.zones[z.ID] = z
		r.order = append(r.order, z.ID)
	}
	return r
}

// connect records the edge and its implied reverse: opposite direction,
// negated offset.
func (r *resolver) connect(from, to int64, d direction, offset int) {
	r.edges[from] = append(r.edges[from], edge{to, d, offset})
	r.edges[to] = append(r.edges[to], edge{from, d.opposite(), -offset})
}

// neighbourOffset computes the offset of e.to so that it sits flush
// against the already placed z with no overlap.
func (r *resolver) neighbourOffset(z *Zone, e edge) (int, int) {
	n := r.zones[e.to]
	switch e.direction {
	case north:
		return z.OffsetX + e.offset*BlockSize, z.OffsetY - n.Height
	case south:
		return z.OffsetX + e.offset*BlockSize, z.OffsetY + z.Height
	case east:
		return z.OffsetX + z.Width, z.OffsetY + e.offset*BlockSize
	case west:
		return z.OffsetX - n.Width, z.OffsetY + e.offset*BlockSize
	}
	return z.OffsetX, z.OffsetY
}

// resolve walks the connection graph breadth first from origin, placed
// at (0, 0), then gives everything unreachable a fallback placement.
// Each zone is enqueued at most once, so cycles and diamonds resolve to
// whichever path the traversal discovers first. A non zero limit caps
// the number of zones placed by traversal.
func (r *resolver) resolve(origin int64) (placed, fallbacks int) {
	type item struct {
		id   int64
		x, y int
	}

	if _, ok := r.zones[origin]; ok {
		visited := map[int64]bool{origin: true}
		queue := []item{{origin, 0, 0}}

		for len(queue) > 0 && (r.limit == 0 || placed < r.limit) {
			it := queue[0]
			queue = queue[1:]

			z := r.zones[it.id]
			z.OffsetX, z.OffsetY = it.x, it.y
			z.Placed = true
			placed++

			for _, e := range r.edges[it.id] {
				if visited[e.to] {
					continue
				}
				if _, ok := r.zones[e.to]; !ok {
					continue
				}
				visited[e.to] = true
				x, y := r.neighbourOffset(z, e)
				queue = append(queue, item{e.to, x, y})
			}
		}
	}

	return placed, r.fallback()
}

// fallback places zones the traversal never reached. A zone with a
// locally recorded anchor keeps it; the rest are packed onto a Hilbert
// curve grid south east of the placed extent, with a cell large enough
// for the biggest of them so no two fallback zones overlap.
func (r *resolver) fallback() int {
	var unplaced []*Zone
	for _, id := range r.order {
		if z := r.zones[id]; !z.Placed {
			unplaced = append(unplaced, z)
		}
	}
	if len(unplaced) == 0 {
		return 0
	}

	baseX, baseY := 0, 0
	for _, id := range r.order {
		z := r.zones[id]
		if !z.Placed {
			continue
		}
		if x := z.OffsetX + z.Width; x > baseX {
			baseX = x
		}
		if y := z.OffsetY + z.Height; y > baseY {
			baseY = y
		}
	}

	cell := 1
	var packed []*Zone
	for _, z := range unplaced {
		if z.Anchored {
			z.OffsetX, z.OffsetY = z.AnchorX, z.AnchorY
			z.Placed = true
			continue
		}
		if z.Width > cell {
			cell = z.Width
		}
		if z.Height > cell {
			cell = z.Height
		}
		packed = append(packed, z)
	}

	side := 1
	for side*side < len(packed) {
		side <<= 1
	}
	h, _ := hilbert.NewHilbert(side)

	for i, z := range packed {
		x, y, _ := h.Map(i)
		z.OffsetX = baseX + x*cell
		z.OffsetY = baseY + y*cell
		z.Placed = true
	}

	return len(unplaced)
}

// ResolveLayout runs the layout stage: places every zone, starting from
// the named origin zone at (0, 0), and persists the offsets. An empty
// origin selects the lowest id overworld zone. A non zero limit caps
// the number of zones placed by traversal.
func (w *WorldMap) ResolveLayout(origin string, limit int) error {
	zones, err := w.db.Zones()
	if err != nil {
		return err
	}
	if len(zones) == 0 {
		return errors.New("no zones to place; run the tiles stage first")
	}

	var originZone *Zone
	byName := make(map[string]*Zone, len(zones))
	for _, z := range zones {
		byName[z.Name] = z
		if origin == "" && originZone == nil && z.Overworld {
			originZone = z
		}
	}
	if origin != "" {
		if originZone = byName[origin]; originZone == nil {
			return fmt.Errorf("unknown origin zone %q", origin)
		}
	}
	if originZone == nil {
		originZone = zones[0]
	}

	r := newResolver(zones, limit)
	if err := w.loadEdges(r); err != nil {
		return err
	}

	placed, fallbacks := r.resolve(originZone.ID)
	w.stats.Fallbacks += fallbacks

	for _, z := range zones {
		if err := w.db.UpdateZonePlacement(z); err != nil {
			return err
		}
	}

	w.logger.Printf("placed %d zones from %s, %d by fallback\n", placed, originZone.Name, fallbacks)

	return nil
}

// loadEdges builds the adjacency from the connection table and the per
// map directional references, translated into zone terms. Duplicate
// edges are harmless; the traversal visits each zone once.
func (w *WorldMap) loadEdges(r *resolver) error {
	mapZones, err := w.db.MapZones()
	if err != nil {
		return err
	}

	conns, err := w.db.Connections()
	if err != nil {
		return err
	}
	for _, c := range conns {
		d, ok := parseDirection(c.Direction)
		if !ok {
			continue
		}
		from, ok := mapZones[c.From]
		if !ok {
			continue
		}
		to, ok := mapZones[c.To]
		if !ok || to == from {
			continue
		}
		r.connect(from, to, d, c.Offset)
	}

	maps, err := w.db.Maps()
	if err != nil {
		return err
	}
	for _, m := range maps {
		from, ok := mapZones[m.Name]
		if !ok {
			continue
		}
		for _, c := range []struct {
			d   direction
			ref sql.NullString
		}{
			{north, m.North},
			{south, m.South},
			{west, m.West},
			{east, m.East},
		} {
			if !c.ref.Valid {
				continue
			}
			to, ok := mapZones[c.ref.String]
			if !ok || to == from {
				continue
			}
			r.connect(from, to, c.d, 0)
		}
	}

	return nil
}
