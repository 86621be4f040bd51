package worldmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testZones(dims ...[2]int) []*Zone {
	zones := make([]*Zone, len(dims))
	for i, d := range dims {
		zones[i] = &Zone{
			ID:     int64(i + 1),
			Width:  d[0],
			Height: d[1],
		}
	}
	return zones
}

func placement(zones []*Zone) map[int64][2]int {
	got := make(map[int64][2]int, len(zones))
	for _, z := range zones {
		if z.Placed {
			got[z.ID] = [2]int{z.OffsetX, z.OffsetY}
		}
	}
	return got
}

func TestResolveOrigin(t *testing.T) {
	zones := testZones([2]int{20, 18})
	r := newResolver(zones, 0)

	placed, fallbacks := r.resolve(1)

	if placed != 1 || fallbacks != 0 {
		t.Fatalf("got placed %d fallbacks %d, want 1 and 0", placed, fallbacks)
	}
	if zones[0].OffsetX != 0 || zones[0].OffsetY != 0 {
		t.Errorf("origin placed at (%d, %d), want (0, 0)", zones[0].OffsetX, zones[0].OffsetY)
	}
}

func TestResolveSouthNeighbour(t *testing.T) {
	zones := testZones([2]int{20, 10}, [2]int{20, 18})
	r := newResolver(zones, 0)
	r.connect(1, 2, south, 0)

	r.resolve(1)

	want := map[int64][2]int{
		1: {0, 0},
		2: {0, 10},
	}
	if diff := cmp.Diff(want, placement(zones)); diff != "" {
		t.Error(diff)
	}
}

func TestResolveAllDirections(t *testing.T) {
	// The center zone is 20 by 10 tiles; each neighbour is 8 by 6 and
	// shifted 3 blocks along the shared boundary.
	zones := testZones([2]int{20, 10}, [2]int{8, 6}, [2]int{8, 6}, [2]int{8, 6}, [2]int{8, 6})
	r := newResolver(zones, 0)
	r.connect(1, 2, north, 3)
	r.connect(1, 3, south, 3)
	r.connect(1, 4, east, 3)
	r.connect(1, 5, west, 3)

	r.resolve(1)

	want := map[int64][2]int{
		1: {0, 0},
		2: {3 * BlockSize, -6},
		3: {3 * BlockSize, 10},
		4: {20, 3 * BlockSize},
		5: {-8, 3 * BlockSize},
	}
	if diff := cmp.Diff(want, placement(zones)); diff != "" {
		t.Error(diff)
	}
}

func TestResolveReverseEdge(t *testing.T) {
	// Starting from the far end of a one way connection still reaches
	// the other zone, through the implied reverse edge with opposite
	// direction and negated offset.
	zones := testZones([2]int{20, 10}, [2]int{20, 18})
	r := newResolver(zones, 0)
	r.connect(1, 2, south, 2)

	r.resolve(2)

	want := map[int64][2]int{
		1: {-2 * BlockSize, -10},
		2: {0, 0},
	}
	if diff := cmp.Diff(want, placement(zones)); diff != "" {
		t.Error(diff)
	}
}

func TestResolveDiamondFirstDiscovery(t *testing.T) {
	// Zone 4 is reachable both through 2 and through 3; the traversal
	// discovers it through 2 first, and the conflicting path through 3
	// never reassigns it.
	zones := testZones([2]int{10, 10}, [2]int{10, 10}, [2]int{10, 10}, [2]int{10, 10})
	r := newResolver(zones, 0)
	r.connect(1, 2, east, 0)
	r.connect(1, 3, south, 0)
	r.connect(2, 4, south, 0)
	r.connect(3, 4, east, 2)

	r.resolve(1)

	if got := [2]int{zones[3].OffsetX, zones[3].OffsetY}; got != [2]int{10, 10} {
		t.Errorf("zone 4 placed at (%d, %d), want (10, 10)", got[0], got[1])
	}
}

func TestResolveCycle(t *testing.T) {
	zones := testZones([2]int{10, 10}, [2]int{10, 10}, [2]int{10, 10})
	r := newResolver(zones, 0)
	r.connect(1, 2, east, 0)
	r.connect(2, 3, south, 0)
	r.connect(3, 1, north, 0)

	placed, fallbacks := r.resolve(1)

	if placed != 3 || fallbacks != 0 {
		t.Errorf("got placed %d fallbacks %d, want 3 and 0", placed, fallbacks)
	}
}

func TestResolveLimit(t *testing.T) {
	zones := testZones([2]int{10, 10}, [2]int{10, 10}, [2]int{10, 10}, [2]int{10, 10})
	r := newResolver(zones, 2)
	r.connect(1, 2, east, 0)
	r.connect(2, 3, east, 0)
	r.connect(3, 4, east, 0)

	placed, fallbacks := r.resolve(1)

	if placed != 2 {
		t.Errorf("got placed %d, want 2", placed)
	}
	if fallbacks != 2 {
		t.Errorf("got fallbacks %d, want 2", fallbacks)
	}
}

func TestFallbackAnchored(t *testing.T) {
	zones := testZones([2]int{10, 10}, [2]int{10, 10})
	zones[1].Anchored = true
	zones[1].AnchorX, zones[1].AnchorY = 42, 17
	r := newResolver(zones, 0)

	_, fallbacks := r.resolve(1)

	if fallbacks != 1 {
		t.Fatalf("got fallbacks %d, want 1", fallbacks)
	}
	if got := [2]int{zones[1].OffsetX, zones[1].OffsetY}; got != [2]int{42, 17} {
		t.Errorf("anchored zone placed at (%d, %d), want (42, 17)", got[0], got[1])
	}
}

func TestFallbackNoOverlap(t *testing.T) {
	zones := testZones(
		[2]int{20, 18},
		[2]int{4, 4},
		[2]int{6, 8},
		[2]int{8, 6},
		[2]int{2, 2},
		[2]int{5, 5},
	)
	r := newResolver(zones, 0)

	placed, fallbacks := r.resolve(1)

	if placed != 1 || fallbacks != 5 {
		t.Fatalf("got placed %d fallbacks %d, want 1 and 5", placed, fallbacks)
	}

	for i, a := range zones {
		if !a.Placed {
			t.Errorf("zone %d left unplaced", a.ID)
			continue
		}
		if i > 0 && (a.OffsetX < 20 && a.OffsetY < 18) {
			t.Errorf("zone %d at (%d, %d) overlaps the placed extent", a.ID, a.OffsetX, a.OffsetY)
		}
		for _, b := range zones[i+1:] {
			if a.OffsetX < b.OffsetX+b.Width && b.OffsetX < a.OffsetX+a.Width &&
				a.OffsetY < b.OffsetY+b.Height && b.OffsetY < a.OffsetY+a.Height {
				t.Errorf("zones %d and %d overlap", a.ID, b.ID)
			}
		}
	}
}

func TestResolveUnknownOrigin(t *testing.T) {
	zones := testZones([2]int{10, 10})
	r := newResolver(zones, 0)

	placed, fallbacks := r.resolve(99)

	if placed != 0 {
		t.Errorf("got placed %d, want 0", placed)
	}
	if fallbacks != 1 {
		t.Errorf("got fallbacks %d, want 1", fallbacks)
	}
}
