package simulation

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/Calor7/TectoLite-sub001/core"
)

// meridianCut returns a north-south polyline at the given longitude,
// tall enough to fully cross the test rings
func meridianCut(lon float64) core.Polygon {
	return core.Polygon{
		Points: []core.Coordinate{
			{Lon: lon, Lat: -40},
			{Lon: lon, Lat: 0},
			{Lon: lon, Lat: 40},
		},
	}
}

func TestArcIntersection(t *testing.T) {
	tests := []struct {
		name      string
		a1, a2    core.Coordinate
		b1, b2    core.Coordinate
		wantHit   bool
		wantPoint core.Coordinate
	}{
		{
			name: "equator crosses meridian",
			a1:   core.Coordinate{Lon: -10, Lat: 0}, a2: core.Coordinate{Lon: 10, Lat: 0},
			b1: core.Coordinate{Lon: 0, Lat: -10}, b2: core.Coordinate{Lon: 0, Lat: 10},
			wantHit: true, wantPoint: core.Coordinate{Lon: 0, Lat: 0},
		},
		{
			name: "crossing point outside one arc",
			a1:   core.Coordinate{Lon: -10, Lat: 0}, a2: core.Coordinate{Lon: 10, Lat: 0},
			b1: core.Coordinate{Lon: 0, Lat: 5}, b2: core.Coordinate{Lon: 0, Lat: 10},
			wantHit: false,
		},
		{
			name: "same great circle",
			a1:   core.Coordinate{Lon: -10, Lat: 0}, a2: core.Coordinate{Lon: 10, Lat: 0},
			b1: core.Coordinate{Lon: 20, Lat: 0}, b2: core.Coordinate{Lon: 40, Lat: 0},
			wantHit: false,
		},
		{
			name: "disjoint arcs",
			a1:   core.Coordinate{Lon: -10, Lat: 20}, a2: core.Coordinate{Lon: 10, Lat: 20},
			b1: core.Coordinate{Lon: 50, Lat: -10}, b2: core.Coordinate{Lon: 50, Lat: 10},
			wantHit: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := arcIntersection(
				core.ToVector(tc.a1), core.ToVector(tc.a2),
				core.ToVector(tc.b1), core.ToVector(tc.b2))
			if ok != tc.wantHit {
				t.Fatalf("hit: got %v, want %v", ok, tc.wantHit)
			}
			if ok {
				got := core.ToCoord(p)
				if math.Abs(got.Lon-tc.wantPoint.Lon) > 1e-6 || math.Abs(got.Lat-tc.wantPoint.Lat) > 1e-6 {
					t.Errorf("point: got %v, want %v", got, tc.wantPoint)
				}
			}
		})
	}
}

// TestSplitRingConservation: a chord fully crossing a convex ring
// partitions its boundary; every original vertex lands in exactly one
// output ring and nothing else appears beyond the two shared cut points
func TestSplitRingConservation(t *testing.T) {
	ring := squareRing(0, 0, 20)
	left, right := SplitRing(ring, meridianCut(0))

	if len(right.Points) == 0 {
		t.Fatal("split reported no effect on a fully crossed ring")
	}

	counts := make(map[core.Coordinate]int)
	for _, pt := range append(append([]core.Coordinate{}, left.Points...), right.Points...) {
		counts[roundCoord(pt)]++
	}

	for _, orig := range ring.Points {
		if counts[roundCoord(orig)] != 1 {
			t.Errorf("original vertex %v appears %d times, want 1", orig, counts[roundCoord(orig)])
		}
	}

	// Exactly the original vertices plus cut points shared by both rings
	shared := 0
	extra := 0
	for pt, n := range counts {
		if isOriginalVertex(ring, pt) {
			continue
		}
		switch n {
		case 2:
			shared++
		default:
			extra++
		}
	}
	if shared < 2 {
		t.Errorf("got %d shared cut points, want at least 2", shared)
	}
	if extra != 0 {
		t.Errorf("%d unexplained points appear in only one ring", extra)
	}
}

func roundCoord(c core.Coordinate) core.Coordinate {
	return core.Coordinate{
		Lon: math.Round(c.Lon*1e7) / 1e7,
		Lat: math.Round(c.Lat*1e7) / 1e7,
	}
}

func isOriginalVertex(ring core.Polygon, c core.Coordinate) bool {
	for _, pt := range ring.Points {
		if roundCoord(pt) == c {
			return true
		}
	}
	return false
}

// TestSplitRingSides: the left ring sits on the positive side of the
// cut's segment normals
func TestSplitRingSides(t *testing.T) {
	ring := squareRing(0, 0, 20)
	cut := meridianCut(0)
	left, right := SplitRing(ring, cut)

	if len(left.Points) < 3 || len(right.Points) < 3 {
		t.Fatal("split produced a degenerate ring")
	}

	// The cut runs south to north at lon 0, normals point west
	leftCentroid := core.SphericalCentroid(left.Points)
	rightCentroid := core.SphericalCentroid(right.Points)
	if leftCentroid.Lon >= 0 {
		t.Errorf("left centroid lon %f, want negative (west)", leftCentroid.Lon)
	}
	if rightCentroid.Lon <= 0 {
		t.Errorf("right centroid lon %f, want positive (east)", rightCentroid.Lon)
	}
}

// TestSplitRingRiftEdges: edges created by the cut are rift edges and
// previously flagged edges stay flagged at their new index
func TestSplitRingRiftEdges(t *testing.T) {
	ring := squareRing(0, 0, 20)
	// Flag the southern edge (vertex 0 -> 1)
	ring.RiftEdges = []int{0}

	left, right := SplitRing(ring, meridianCut(0))

	// The cut segments appear as rift edges in both rings
	if countCutRiftEdges(left) == 0 {
		t.Error("left ring has no cut-derived rift edges")
	}
	if countCutRiftEdges(right) == 0 {
		t.Error("right ring has no cut-derived rift edges")
	}

	// The old southern edge was split; each half that contains part of it
	// must keep the flag
	if !hasRiftEdgeTouching(left, core.Coordinate{Lon: -20, Lat: -20}) {
		t.Error("left ring lost the pre-existing rift flag on the southern edge")
	}
	if !hasRiftEdgeTouching(right, core.Coordinate{Lon: 20, Lat: -20}) {
		t.Error("right ring lost the pre-existing rift flag on the southern edge")
	}
}

func countCutRiftEdges(p core.Polygon) int {
	n := 0
	for _, e := range p.RiftEdges {
		start := p.Points[e]
		if math.Abs(start.Lon) < 1e-6 {
			n++
		}
	}
	return n
}

func hasRiftEdgeTouching(p core.Polygon, c core.Coordinate) bool {
	rc := roundCoord(c)
	for _, e := range p.RiftEdges {
		if roundCoord(p.Points[e]) == rc {
			return true
		}
		if roundCoord(p.Points[(e+1)%len(p.Points)]) == rc {
			return true
		}
	}
	return false
}

func TestSplitRingNoOp(t *testing.T) {
	ring := squareRing(0, 0, 10)

	t.Run("cut misses the ring", func(t *testing.T) {
		left, right := SplitRing(ring, meridianCut(60))
		if !reflect.DeepEqual(left, ring) {
			t.Error("left is not the unmodified input")
		}
		if len(right.Points) != 0 {
			t.Error("right is not empty")
		}
	})

	t.Run("degenerate ring", func(t *testing.T) {
		tiny := core.Polygon{Closed: true, Points: []core.Coordinate{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}}
		left, right := SplitRing(tiny, meridianCut(0))
		if !reflect.DeepEqual(left, tiny) || len(right.Points) != 0 {
			t.Error("degenerate ring was modified")
		}
	})

	t.Run("degenerate cut", func(t *testing.T) {
		left, right := SplitRing(ring, core.Polygon{Points: []core.Coordinate{{Lon: 0, Lat: 0}}})
		if !reflect.DeepEqual(left, ring) || len(right.Points) != 0 {
			t.Error("single point cut modified the ring")
		}
	})
}

func testWorldIDs() *SequenceSource {
	return &SequenceSource{Prefix: "plate"}
}

func TestSplitPlate(t *testing.T) {
	parent := &TectonicPlate{
		ID:    "parent",
		Name:  "Parent",
		Kind:  KindCrust,
		Crust: CrustContinental,
		Motion: EulerPole{
			Position:     northPole(),
			RateDegPerMa: 2,
		},
		InitialPolygons: []core.Polygon{squareRing(0, 0, 20)},
	}
	plates := map[string]*TectonicPlate{"parent": parent}

	next, err := SplitPlate(plates, "parent", meridianCut(0), 3, testWorldIDs())
	if err != nil {
		t.Fatal(err)
	}

	if len(next) != 3 {
		t.Fatalf("got %d plates, want 3 (dead parent and two halves)", len(next))
	}

	deadParent := next["parent"]
	if deadParent.DeathTime == nil || *deadParent.DeathTime != 3 {
		t.Error("parent not marked dead at the split time")
	}

	var halves []*TectonicPlate
	for id, p := range next {
		if id != "parent" {
			halves = append(halves, p)
		}
	}
	for _, h := range halves {
		if h.BirthTime != 3 {
			t.Errorf("half %s born at %f, want 3", h.ID, h.BirthTime)
		}
		if len(h.Keyframes) != 1 || h.Keyframes[0].Time != 3 {
			t.Errorf("half %s should start with one keyframe at the split time", h.ID)
		}
		if h.Keyframes[0].Pole != parent.Motion {
			t.Errorf("half %s did not copy the parent's active pole", h.ID)
		}
		if !reflect.DeepEqual(h.ParentPlateIDs, []string{"parent"}) {
			t.Errorf("half %s lineage: %v", h.ID, h.ParentPlateIDs)
		}
	}

	// Original map untouched
	if plates["parent"].DeathTime != nil {
		t.Error("input collection was mutated")
	}
}

func TestSplitPlateNoEffect(t *testing.T) {
	parent := &TectonicPlate{
		ID:              "parent",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(0, 0, 10)},
	}
	plates := map[string]*TectonicPlate{"parent": parent}

	next, err := SplitPlate(plates, "parent", meridianCut(60), 0, testWorldIDs())
	if !errors.Is(err, ErrSplitNoEffect) {
		t.Fatalf("got %v, want ErrSplitNoEffect", err)
	}
	if len(next) != 1 || next["parent"] != parent {
		t.Error("failed split did not return the original collection")
	}
}

// TestSplitPlateLinkedChildCrossed: a linked child crossed by the cut is
// split too, each half relinked to the matching parent half
func TestSplitPlateLinkedChildCrossed(t *testing.T) {
	parent := &TectonicPlate{
		ID:              "parent",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(0, 0, 20)},
	}
	child := &TectonicPlate{
		ID:              "child",
		Kind:            KindCrust,
		Crust:           CrustOceanic,
		InitialPolygons: []core.Polygon{squareRing(0, 25, 8)},
		LinkedToPlateID: "parent",
	}
	plates := map[string]*TectonicPlate{"parent": parent, "child": child}

	cut := core.Polygon{Points: []core.Coordinate{
		{Lon: 0, Lat: -40}, {Lon: 0, Lat: 0}, {Lon: 0, Lat: 40},
	}}
	next, err := SplitPlate(plates, "parent", cut, 1, testWorldIDs())
	if err != nil {
		t.Fatal(err)
	}

	// Dead parent, dead child, two parent halves, two child halves
	if len(next) != 6 {
		t.Fatalf("got %d plates, want 6", len(next))
	}
	if next["child"].DeathTime == nil {
		t.Error("crossed child not marked dead")
	}

	relinked := 0
	for id, p := range next {
		if id == "parent" || id == "child" || p.DeathTime != nil {
			continue
		}
		if p.LinkedToPlateID != "" {
			if next[p.LinkedToPlateID] == nil || next[p.LinkedToPlateID].DeathTime != nil {
				t.Errorf("plate %s linked to dead or missing %s", id, p.LinkedToPlateID)
			}
			relinked++
		}
	}
	if relinked != 2 {
		t.Errorf("got %d relinked child halves, want 2", relinked)
	}
}

// TestSplitPlateLinkedChildOneSide: a child wholly on one side is
// re-birthed and relinked without geometric splitting
func TestSplitPlateLinkedChildOneSide(t *testing.T) {
	parent := &TectonicPlate{
		ID:              "parent",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(0, 0, 20)},
	}
	child := &TectonicPlate{
		ID:              "child",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(-15, 0, 3)},
		LinkedToPlateID: "parent",
	}
	plates := map[string]*TectonicPlate{"parent": parent, "child": child}

	next, err := SplitPlate(plates, "parent", meridianCut(0), 1, testWorldIDs())
	if err != nil {
		t.Fatal(err)
	}

	// Dead parent, dead child, two halves, one reborn child
	if len(next) != 5 {
		t.Fatalf("got %d plates, want 5", len(next))
	}

	var reborn *TectonicPlate
	for id, p := range next {
		if id != "parent" && id != "child" && p.DeathTime == nil && len(p.InitialPolygons) == 1 &&
			len(p.InitialPolygons[0].Points) == 4 {
			reborn = p
		}
	}
	if reborn == nil {
		t.Fatal("no reborn child found")
	}
	if reborn.BirthTime != 1 || reborn.LinkTime != 1 {
		t.Error("reborn child not rebirthed at the split time")
	}
	half := next[reborn.LinkedToPlateID]
	if half == nil || half.DeathTime != nil {
		t.Fatal("reborn child not linked to a live half")
	}
	// The child sat west of the cut, so its new parent must too
	if half.Center.Lon >= 0 {
		t.Errorf("reborn child linked to the half at lon %f, want the west half", half.Center.Lon)
	}
}

// TestSplitPlateLinkedGrandchild: re-birthing a one-side child must
// carry its own linked children over to the reborn plate
func TestSplitPlateLinkedGrandchild(t *testing.T) {
	parent := &TectonicPlate{
		ID:              "parent",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(0, 0, 20)},
	}
	child := &TectonicPlate{
		ID:              "child",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(-15, 0, 3)},
		LinkedToPlateID: "parent",
	}
	grandchild := &TectonicPlate{
		ID:              "grandchild",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(-15, 0, 1)},
		LinkedToPlateID: "child",
	}
	plates := map[string]*TectonicPlate{
		"parent": parent, "child": child, "grandchild": grandchild,
	}

	next, err := SplitPlate(plates, "parent", meridianCut(0), 1, testWorldIDs())
	if err != nil {
		t.Fatal(err)
	}

	// Three dead originals, two halves, reborn child, reborn grandchild
	if len(next) != 7 {
		t.Fatalf("got %d plates, want 7", len(next))
	}
	if next["grandchild"].DeathTime == nil {
		t.Fatal("grandchild still linked to a dead plate")
	}

	var rebornGrand *TectonicPlate
	for _, p := range next {
		if p.DeathTime != nil || p.LinkedToPlateID == "" {
			continue
		}
		if mid := next[p.LinkedToPlateID]; mid != nil && mid.LinkedToPlateID != "" {
			rebornGrand = p
		}
	}
	if rebornGrand == nil {
		t.Fatal("no reborn grandchild found")
	}
	mid := next[rebornGrand.LinkedToPlateID]
	if mid.DeathTime != nil {
		t.Error("reborn grandchild linked to a dead plate")
	}
	if half := next[mid.LinkedToPlateID]; half == nil || half.DeathTime != nil {
		t.Error("reborn child not linked to a live half")
	}
}

// TestSplitPlateLRift: a connected rift crossed by the cut yields two
// L-shaped successors, the original rift survives, and both halves swap
// their adjacency to the new ids
func TestSplitPlateLRift(t *testing.T) {
	parent := &TectonicPlate{
		ID:               "parent",
		Kind:             KindCrust,
		InitialPolygons:  []core.Polygon{squareRing(0, 0, 20)},
		ConnectedRiftIDs: []string{"rift"},
	}
	rift := &TectonicPlate{
		ID:   "rift",
		Kind: KindRift,
		InitialPolygons: []core.Polygon{{
			Points: []core.Coordinate{
				{Lon: -18, Lat: 5}, {Lon: 0, Lat: 5}, {Lon: 18, Lat: 5},
			},
			RiftEdges: []int{0, 1},
		}},
	}
	plates := map[string]*TectonicPlate{"parent": parent, "rift": rift}

	next, err := SplitPlate(plates, "parent", meridianCut(5), 2, testWorldIDs())
	if err != nil {
		t.Fatal(err)
	}

	if next["rift"].DeathTime != nil {
		t.Error("original rift was touched; the far-side plate may still need it")
	}

	var lrifts []*TectonicPlate
	for id, p := range next {
		if id != "rift" && p.Kind == KindRift {
			lrifts = append(lrifts, p)
		}
	}
	if len(lrifts) != 2 {
		t.Fatalf("got %d L-rifts, want 2", len(lrifts))
	}
	for _, lr := range lrifts {
		axis := lr.InitialPolygons[0]
		if axis.Closed {
			t.Errorf("L-rift %s is closed, want open polyline", lr.ID)
		}
		if len(axis.Points) < 3 {
			t.Errorf("L-rift %s has %d points, want an L of at least 3", lr.ID, len(axis.Points))
		}
		if len(axis.RiftEdges) != len(axis.Points)-1 {
			t.Errorf("L-rift %s: %d rift edges for %d points", lr.ID, len(axis.RiftEdges), len(axis.Points))
		}
	}

	for id, p := range next {
		if id == "parent" || id == "rift" || p.Kind != KindCrust || p.DeathTime != nil {
			continue
		}
		if containsString(p.ConnectedRiftIDs, "rift") {
			t.Errorf("half %s still references the replaced rift", id)
		}
		if len(p.ConnectedRiftIDs) != 2 {
			t.Errorf("half %s has %d rift adjacencies, want both L-rifts", id, len(p.ConnectedRiftIDs))
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestFusePlates(t *testing.T) {
	a := &TectonicPlate{
		ID:              "a",
		Name:            "A",
		Kind:            KindCrust,
		Crust:           CrustOceanic,
		InitialPolygons: []core.Polygon{squareRing(0, 0, 10)},
		Features: []Feature{{
			ID:               "fa",
			Kind:             FeatureMountain,
			Position:         core.Coordinate{Lon: 2, Lat: 2},
			OriginalPosition: core.Coordinate{Lon: 2, Lat: 2},
			GeneratedAt:      1,
		}},
	}
	b := &TectonicPlate{
		ID:              "b",
		Name:            "B",
		Kind:            KindCrust,
		Crust:           CrustContinental,
		InitialPolygons: []core.Polygon{squareRing(15, 0, 10)},
	}
	plates := map[string]*TectonicPlate{"a": a, "b": b}

	next, err := FusePlates(plates, "a", "b", 5, testWorldIDs(), PlanarClipper{})
	if err != nil {
		t.Fatal(err)
	}

	if len(next) != 3 {
		t.Fatalf("got %d plates, want 3", len(next))
	}
	if next["a"].DeathTime == nil || next["b"].DeathTime == nil {
		t.Error("parents not marked dead")
	}

	var fused *TectonicPlate
	for id, p := range next {
		if id != "a" && id != "b" {
			fused = p
		}
	}
	if fused.BirthTime != 5 {
		t.Errorf("fused plate born at %f, want 5", fused.BirthTime)
	}
	if fused.Crust != CrustContinental {
		t.Error("continental crust should dominate the fusion")
	}
	if !reflect.DeepEqual(fused.ParentPlateIDs, []string{"a", "b"}) {
		t.Errorf("fused lineage: %v", fused.ParentPlateIDs)
	}
	if len(fused.InheritedFeatures) != 1 || fused.InheritedFeatures[0].ID != "fa" {
		t.Errorf("fused plate inherited %v, want feature fa", fused.InheritedFeatures)
	}
}

// TestFusePlatesRelinksLinkedChild: a plate kinematically linked to a
// fused parent is re-birthed onto the successor so it stops following
// the dead parent's pole
func TestFusePlatesRelinksLinkedChild(t *testing.T) {
	anchor := &TectonicPlate{
		ID:              "anchor",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(15, 0, 10)},
	}
	mover := &TectonicPlate{
		ID:   "mover",
		Kind: KindCrust,
		Motion: EulerPole{
			Position:     northPole(),
			RateDegPerMa: 10,
		},
		InitialPolygons: []core.Polygon{squareRing(0, 0, 10)},
	}
	child := &TectonicPlate{
		ID:              "child",
		Kind:            KindCrust,
		InitialPolygons: []core.Polygon{squareRing(-5, 0, 2)},
		LinkedToPlateID: "mover",
	}
	plates := map[string]*TectonicPlate{"anchor": anchor, "mover": mover, "child": child}

	next, err := FusePlates(plates, "anchor", "mover", 5, testWorldIDs(), PlanarClipper{})
	if err != nil {
		t.Fatal(err)
	}

	// Dead anchor, dead mover, dead child, fused successor, reborn child
	if len(next) != 5 {
		t.Fatalf("got %d plates, want 5", len(next))
	}
	if next["child"].DeathTime == nil {
		t.Fatal("linked child not re-birthed at the fusion time")
	}

	var fused, reborn *TectonicPlate
	for _, p := range next {
		if reflect.DeepEqual(p.ParentPlateIDs, []string{"anchor", "mover"}) {
			fused = p
		}
	}
	if fused == nil {
		t.Fatal("no fused successor found")
	}
	for _, p := range next {
		if p.LinkedToPlateID == fused.ID {
			reborn = p
		}
	}
	if reborn == nil {
		t.Fatal("no plate relinked to the fused successor")
	}
	if reborn.BirthTime != 5 || reborn.LinkTime != 5 {
		t.Error("reborn child not rebirthed at the fusion time")
	}

	// Rode the mover for 5 Ma before the fusion
	at5 := core.Coordinate{Lon: 43, Lat: -2}
	coordsClose(t, reborn.InitialPolygons[0].Points[0], at5, 1e-9, "reborn geometry")

	// The fused successor carries the anchor's zero pole, so the child
	// must hold still afterwards instead of drifting with the dead mover
	m := PlateAtTime(reborn, 20, next)
	coordsClose(t, m.Polygons[0].Points[0], at5, 1e-9, "reborn vertex 15 Ma after the fusion")
}
