package worldmap

import "strings"

// LastMap is the sentinel destination meaning "the map the player most
// recently warped from".
const LastMap = "LAST_MAP"

// Warp is a player traversable link between two points. Destination may
// hold the LastMap sentinel until resolution; DestX and DestY are only
// meaningful once Resolved, GlobalX and GlobalY once Projected.
type Warp struct {
	ID          int64
	SourceMap   string
	SourceZone  int64
	SourceX     int
	SourceY     int
	GlobalX     int
	GlobalY     int
	Projected   bool
	Destination string
	DestZone    int64
	DestX       int
	DestY       int
	DestWarp    int
	Resolved    bool
}

// parentTable maps a small area to the city or route containing it. The
// static table is consulted first, then a containment heuristic against
// the overworld zone names: the longest base name (location suffixes
// stripped) found inside the map name wins.
type parentTable struct {
	static    map[string]string
	overworld []string
}

var locationSuffixes = []string{"City", "Town", "Island", "Plateau"}

func (p parentTable) lookup(name string) string {
	if parent, ok := p.static[name]; ok {
		return parent
	}

	parent, best := "", 0
	for _, o := range p.overworld {
		if o == name {
			return ""
		}
		base := o
		for _, s := range locationSuffixes {
			base = strings.TrimSuffix(base, s)
		}
		if base != "" && strings.Contains(name, base) && len(base) > best {
			parent, best = o, len(base)
		}
	}

	return parent
}

// resolveWarps resolves symbolic return destinations in place. For each
// sentinel warp, the first heuristic looks for an incoming warp whose
// concrete destination is this warp's source map and takes its source as
// the return point; failing that, the second asks the parent location
// table and resolves to the parent map's top left corner. Ties between
// equally valid candidates are broken by lowest warp id, which warps is
// required to be sorted by. Anything neither heuristic can place is
// returned as unresolved.
func resolveWarps(warps []*Warp, parents parentTable, mapZones map[string]int64) (resolved, unresolved []*Warp) {
	for _, w := range warps {
		if w.Destination != LastMap {
			continue
		}

		if in := firstWarp(warps, func(c *Warp) bool {
			return c != w && c.Destination == w.SourceMap
		}); in != nil {
			w.Destination = in.SourceMap
			w.DestZone = in.SourceZone
			w.DestX, w.DestY = in.SourceX, in.SourceY
			w.DestWarp = 0
			w.Resolved = true
			resolved = append(resolved, w)
			continue
		}

		if parent := parents.lookup(w.SourceMap); parent != "" {
			w.Destination = parent
			w.DestZone = mapZones[parent]
			w.DestX, w.DestY = 0, 0
			w.DestWarp = 0
			w.Resolved = true
			resolved = append(resolved, w)
			continue
		}

		unresolved = append(unresolved, w)
	}

	return resolved, unresolved
}

func firstWarp(warps []*Warp, match func(*Warp) bool) *Warp {
	for _, w := range warps {
		if match(w) {
			return w
		}
	}
	return nil
}

// ResolveWarps runs the warps stage: attaches zone associations and
// global source coordinates to every warp, resolves symbolic return
// destinations against the placed zones and reports anything left
// unresolved.
func (w *WorldMap) ResolveWarps() error {
	warps, err := w.db.Warps()
	if err != nil {
		return err
	}

	mapZones, err := w.db.MapZones()
	if err != nil {
		return err
	}

	zones, err := w.db.Zones()
	if err != nil {
		return err
	}
	byID := make(map[int64]*Zone, len(zones))
	var overworld []string
	for _, z := range zones {
		byID[z.ID] = z
		if z.Overworld {
			overworld = append(overworld, z.Name)
		}
	}

	for _, wp := range warps {
		if wp.SourceZone == 0 {
			wp.SourceZone = mapZones[wp.SourceMap]
		}
		if wp.DestZone == 0 && wp.Destination != LastMap {
			wp.DestZone = mapZones[wp.Destination]
		}
		if z := byID[wp.SourceZone]; z != nil && z.Placed {
			wp.GlobalX = wp.SourceX + z.OffsetX
			wp.GlobalY = wp.SourceY + z.OffsetY
			wp.Projected = true
		}
	}

	static, err := w.db.ParentLocations()
	if err != nil {
		return err
	}

	resolved, unresolved := resolveWarps(warps, parentTable{
		static:    static,
		overworld: overworld,
	}, mapZones)
	w.stats.UnresolvedWarps += len(unresolved)

	for _, wp := range warps {
		if err := w.db.UpdateWarp(wp); err != nil {
			return err
		}
	}

	for _, wp := range unresolved {
		w.logger.Printf("unresolved warp %d from %s at (%d, %d)\n", wp.ID, wp.SourceMap, wp.SourceX, wp.SourceY)
	}
	w.logger.Printf("resolved %d symbolic warps, %d unresolved\n", len(resolved), len(unresolved))

	return nil
}
