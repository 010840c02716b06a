package simulation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Calor7/TectoLite-sub001/core"
)

// ErrSplitNoEffect reports a split that could not produce two valid
// halves. The plate collection is left untouched in that case; partial
// surgery is never committed.
var ErrSplitNoEffect = errors.New("split had no effect")

// SplitPlate cuts the identified plate in two along the given polyline
// at time t. It operates on a transactional deep copy of the whole
// collection and returns it wholesale; on any failure the original map
// is returned unchanged alongside the error.
//
// The parent is marked dead at t and keeps its baked geometry for
// historical display. Each half is born at t with one keyframe carrying
// the parent's active pole, inherits the parent's features that fall on
// its side, and takes over the parent's rift adjacencies. Rift axes the
// cut crosses get L-shaped successors; plates kinematically linked to
// the parent are split recursively.
func SplitPlate(plates map[string]*TectonicPlate, plateID string, cut core.Polygon, t float64, ids IDSource) (map[string]*TectonicPlate, error) {
	target, ok := plates[plateID]
	if !ok || !target.Alive(t) {
		return plates, fmt.Errorf("plate %s not splittable at %.2f: %w", plateID, t, ErrSplitNoEffect)
	}
	if len(cut.Points) < 2 {
		return plates, fmt.Errorf("cut polyline has %d points: %w", len(cut.Points), ErrSplitNoEffect)
	}

	work := clonePlateMap(plates)

	leftID, rightID, err := splitOnce(work, plateID, cut, t, ids)
	if err != nil {
		return plates, err
	}

	// Rift axes crossed by the cut become two L-shaped successors shared
	// by both halves
	splitConnectedRifts(work, work[plateID], leftID, rightID, cut, t, ids)

	// Plates riding on the parent are split by the same cut and relinked
	if err := splitLinkedChildren(work, plateID, leftID, rightID, cut, t, ids); err != nil {
		return plates, err
	}

	return work, nil
}

// splitOnce bakes and bisects one plate, installing the two halves and
// killing the parent. Returns the new half ids, left first.
func splitOnce(work map[string]*TectonicPlate, plateID string, cut core.Polygon, t float64, ids IDSource) (string, string, error) {
	parent := work[plateID]
	baked := BakePlate(parent, t, work)

	var leftPolys, rightPolys []core.Polygon
	for _, poly := range baked.Polygons {
		if !poly.Closed {
			// Open geometry rides along on the side its centroid falls on
			if sideOfCut(poly, cut) >= 0 {
				leftPolys = append(leftPolys, poly)
			} else {
				rightPolys = append(rightPolys, poly)
			}
			continue
		}

		left, right := SplitRing(poly, cut)
		if len(right.Points) == 0 {
			// Ring not crossed: whole ring goes to its own side
			if sideOfCut(poly, cut) >= 0 {
				leftPolys = append(leftPolys, left)
			} else {
				rightPolys = append(rightPolys, left)
			}
			continue
		}
		if len(left.Points) < 3 || len(right.Points) < 3 {
			return "", "", fmt.Errorf("plate %s: cut produced a degenerate side: %w", plateID, ErrSplitNoEffect)
		}
		leftPolys = append(leftPolys, left)
		rightPolys = append(rightPolys, right)
	}

	if len(leftPolys) == 0 || len(rightPolys) == 0 {
		return "", "", fmt.Errorf("plate %s: cut left one side empty: %w", plateID, ErrSplitNoEffect)
	}

	leftHalf := makeSuccessor(parent, leftPolys, baked, t, ids)
	rightHalf := makeSuccessor(parent, rightPolys, baked, t, ids)

	killPlate(parent, baked, t)

	work[leftHalf.ID] = leftHalf
	work[rightHalf.ID] = rightHalf

	slog.Info("plate split",
		slog.String("plate", plateID),
		slog.String("left", leftHalf.ID),
		slog.String("right", rightHalf.ID),
		slog.Float64("time", t))

	return leftHalf.ID, rightHalf.ID, nil
}

// makeSuccessor builds one half-plate born at the operation time. The
// half starts with a fresh keyframe at t carrying the parent's active
// pole, so its own elapsed rotation is zero going forward and the motion
// is continuous until the editor retargets the pole.
func makeSuccessor(parent *TectonicPlate, polys []core.Polygon, parentBaked BakedState, t float64, ids IDSource) *TectonicPlate {
	half := &TectonicPlate{
		ID:              ids.NewID(),
		Name:            parent.Name,
		Color:           parent.Color,
		Kind:            parent.Kind,
		Crust:           parent.Crust,
		Motion:          parent.ActivePole(t),
		BirthTime:       t,
		InitialPolygons: core.ClonePolygons(polys),
		ParentPlateIDs:  []string{parent.ID},
	}
	if parent.ConnectedRiftIDs != nil {
		half.ConnectedRiftIDs = append([]string(nil), parent.ConnectedRiftIDs...)
	}

	half.Keyframes = []MotionKeyframe{{
		Time:             t,
		Pole:             parent.ActivePole(t),
		SnapshotPolygons: core.ClonePolygons(polys),
	}}

	// Parent features land on whichever half contains them
	lineage := &TectonicPlate{
		ID:        parent.ID,
		BirthTime: parent.BirthTime,
		Features:  parentBaked.Features,
	}
	InheritFeatures(half, []*TectonicPlate{lineage})

	half.Polygons = core.ClonePolygons(polys)
	half.Center = successorCenter(polys)

	return half
}

func successorCenter(polys []core.Polygon) core.Coordinate {
	var verts []core.Coordinate
	for _, p := range polys {
		verts = append(verts, p.Points...)
	}
	return core.SphericalCentroid(verts)
}

// killPlate marks a plate dead at t, freezing its baked geometry as the
// last displayed state. Dead plates are never deleted.
func killPlate(p *TectonicPlate, baked BakedState, t float64) {
	death := t
	p.DeathTime = &death
	p.Polygons = baked.Polygons
	p.Features = baked.Features
}

// splitLinkedChildren applies the same cut to every plate kinematically
// linked to the one just split. A child crossed by the cut becomes two
// halves linked to the corresponding new parent halves; a child wholly
// on one side is re-birthed and relinked without geometric splitting.
// Children of children are handled by recursion.
func splitLinkedChildren(work map[string]*TectonicPlate, parentID, leftID, rightID string, cut core.Polygon, t float64, ids IDSource) error {
	var childIDs []string
	for id, p := range work {
		if p.LinkedToPlateID == parentID && p.Alive(t) {
			childIDs = append(childIDs, id)
		}
	}

	for _, id := range childIDs {
		child := work[id]
		baked := BakePlate(child, t, work)

		crossed := false
		for _, poly := range baked.Polygons {
			if poly.Closed && len(findRingCrossings(poly, cut)) >= 2 {
				crossed = true
				break
			}
		}

		if crossed {
			childLeft, childRight, err := splitOnce(work, id, cut, t, ids)
			if err != nil {
				return err
			}
			relink(work[childLeft], leftID, t)
			relink(work[childRight], rightID, t)
			if err := splitLinkedChildren(work, id, childLeft, childRight, cut, t, ids); err != nil {
				return err
			}
			continue
		}

		// Wholly one side: re-birth on baked geometry, follow that half
		reborn := makeSuccessor(child, baked.Polygons, baked, t, ids)
		side := leftID
		if splitSideOf(baked.Polygons, cut) < 0 {
			side = rightID
		}
		relink(reborn, side, t)
		killPlate(child, baked, t)
		work[reborn.ID] = reborn
		rebirthLinkedChildren(work, id, reborn.ID, t, ids)
	}

	return nil
}

// rebirthLinkedChildren re-births every live plate kinematically linked
// to a dying parent and relinks it to the parent's successor, so no
// plate keeps accumulating motion from a dead ancestor. Children of
// children are handled by recursion.
func rebirthLinkedChildren(work map[string]*TectonicPlate, parentID, successorID string, t float64, ids IDSource) {
	var childIDs []string
	for id, p := range work {
		if p.LinkedToPlateID == parentID && p.Alive(t) {
			childIDs = append(childIDs, id)
		}
	}

	for _, id := range childIDs {
		child := work[id]
		baked := BakePlate(child, t, work)
		reborn := makeSuccessor(child, baked.Polygons, baked, t, ids)
		relink(reborn, successorID, t)
		killPlate(child, baked, t)
		work[reborn.ID] = reborn
		rebirthLinkedChildren(work, id, reborn.ID, t, ids)
	}
}

func relink(p *TectonicPlate, parentID string, t float64) {
	p.LinkedToPlateID = parentID
	p.LinkTime = t
	p.UnlinkTime = nil
}

func splitSideOf(polys []core.Polygon, cut core.Polygon) float64 {
	var verts []core.Coordinate
	for _, p := range polys {
		verts = append(verts, p.Points...)
	}
	if len(verts) == 0 {
		return 1
	}
	return sideOfCut(core.Polygon{Points: verts}, cut)
}

// splitConnectedRifts replaces each rift axis the cut crosses with two
// L-shaped successors: one arm of the original rift joined to the
// portion of the cut on that arm's side, trimmed to start at the plate
// boundary crossing nearest the cut's outer endpoint. The original rift
// is left untouched because the plate across it may still reference it.
// Both halves drop the original rift id and gain both L-rift ids.
func splitConnectedRifts(work map[string]*TectonicPlate, parent *TectonicPlate, leftID, rightID string, cut core.Polygon, t float64, ids IDSource) {
	// Boundary crossings of the cut against the parent's baked outline
	// delimit how far the L arms extend along the cut
	baked := BakePlate(parent, t, work)
	var boundaryCrossings []ringCrossing
	for _, poly := range baked.Polygons {
		if poly.Closed {
			boundaryCrossings = append(boundaryCrossings, findRingCrossings(poly, cut)...)
		}
	}
	if len(boundaryCrossings) < 2 {
		return
	}
	entry := boundaryCrossings[0]
	exit := boundaryCrossings[0]
	for _, c := range boundaryCrossings {
		if c.AlongCut < entry.AlongCut {
			entry = c
		}
		if c.AlongCut > exit.AlongCut {
			exit = c
		}
	}

	for _, riftID := range parent.ConnectedRiftIDs {
		rift, ok := work[riftID]
		if !ok || rift.Kind != KindRift || !rift.Alive(t) {
			continue
		}

		riftBaked := BakePlate(rift, t, work)
		axis, ok := openPolylineOf(riftBaked.Polygons)
		if !ok {
			continue
		}

		crossing, ok := polylineCrossing(axis, cut)
		if !ok {
			continue
		}

		armA, armB := splitPolylineAt(axis, crossing)
		cutToEntry, cutToExit := cutPortions(cut, crossing, entry, exit)

		// Pair each arm with the cut portion on its side, judged against
		// the normal of the split line's first segment for consistency
		// with ring side assignment
		lriftA := joinPolylines(cutToEntry, armA)
		lriftB := joinPolylines(cutToExit, armB)
		if len(armA.Points) > 0 && armSide(armA, cut) < 0 {
			lriftA = joinPolylines(cutToExit, armA)
			lriftB = joinPolylines(cutToEntry, armB)
		}

		newA := makeRiftPlate(rift, lriftA, t, ids)
		newB := makeRiftPlate(rift, lriftB, t, ids)
		work[newA.ID] = newA
		work[newB.ID] = newB

		for _, halfID := range []string{leftID, rightID} {
			half := work[halfID]
			half.ConnectedRiftIDs = replaceID(half.ConnectedRiftIDs, riftID, newA.ID, newB.ID)
		}

		slog.Info("rift split into L-junctions",
			slog.String("rift", riftID),
			slog.String("armA", newA.ID),
			slog.String("armB", newB.ID))
	}
}

// makeRiftPlate builds a rift-axis pseudo-plate holding one open
// polyline whose every edge is rift
func makeRiftPlate(original *TectonicPlate, axis core.Polygon, t float64, ids IDSource) *TectonicPlate {
	for i := 0; i+1 < len(axis.Points); i++ {
		axis.RiftEdges = append(axis.RiftEdges, i)
	}
	return &TectonicPlate{
		ID:              ids.NewID(),
		Name:            original.Name,
		Color:           original.Color,
		Kind:            KindRift,
		Crust:           original.Crust,
		BirthTime:       t,
		InitialPolygons: []core.Polygon{axis},
		Polygons:        []core.Polygon{axis.Clone()},
		ParentPlateIDs:  []string{original.ID},
		Center:          core.SphericalCentroid(axis.Points),
	}
}

func openPolylineOf(polys []core.Polygon) (core.Polygon, bool) {
	for _, p := range polys {
		if !p.Closed && len(p.Points) >= 2 {
			return p, true
		}
	}
	return core.Polygon{}, false
}

// polylineCrossing finds where the cut crosses an open polyline
func polylineCrossing(axis, cut core.Polygon) (ringCrossing, bool) {
	cumulative := 0.0
	for j := 0; j+1 < len(cut.Points); j++ {
		c1 := core.ToVector(cut.Points[j])
		c2 := core.ToVector(cut.Points[j+1])
		for i := 0; i+1 < len(axis.Points); i++ {
			a1 := core.ToVector(axis.Points[i])
			a2 := core.ToVector(axis.Points[i+1])
			if p, ok := arcIntersection(a1, a2, c1, c2); ok {
				return ringCrossing{
					EdgeIndex: i,
					CutIndex:  j,
					Point:     core.ToCoord(p),
					AlongCut:  cumulative + core.GreatCircleDistance(c1, p).Radians(),
				}, true
			}
		}
		cumulative += core.GreatCircleDistance(c1, c2).Radians()
	}
	return ringCrossing{}, false
}

// splitPolylineAt divides an open polyline at a crossing into its two
// arms. Both arms start at the crossing point so either can be appended
// to a cut portion ending there.
func splitPolylineAt(axis core.Polygon, c ringCrossing) (before, after core.Polygon) {
	before.Points = append(before.Points, c.Point)
	for i := c.EdgeIndex; i >= 0; i-- {
		before.Points = append(before.Points, axis.Points[i])
	}

	after.Points = append(after.Points, c.Point)
	after.Points = append(after.Points, axis.Points[c.EdgeIndex+1:]...)
	return before, after
}

// cutPortions extracts the two pieces of the cut on either side of the
// rift crossing, each trimmed at the plate-boundary crossing nearest the
// cut's outer endpoint, so the L arms never overshoot the plate outline.
// Both portions end at the rift crossing, ready to take an arm.
func cutPortions(cut core.Polygon, riftCross, entry, exit ringCrossing) (toEntry, toExit core.Polygon) {
	// From the entry boundary crossing forward to the rift crossing
	toEntry.Points = append(toEntry.Points, entry.Point)
	for j := entry.CutIndex + 1; j <= riftCross.CutIndex; j++ {
		toEntry.Points = append(toEntry.Points, cut.Points[j])
	}
	toEntry.Points = append(toEntry.Points, riftCross.Point)

	// From the exit boundary crossing backward to the rift crossing
	toExit.Points = append(toExit.Points, exit.Point)
	for j := exit.CutIndex; j > riftCross.CutIndex; j-- {
		toExit.Points = append(toExit.Points, cut.Points[j])
	}
	toExit.Points = append(toExit.Points, riftCross.Point)
	return toEntry, toExit
}

// joinPolylines concatenates two polylines that share an endpoint at the
// rift crossing, producing one L-shaped open polyline
func joinPolylines(a, b core.Polygon) core.Polygon {
	out := core.Polygon{}
	out.Points = append(out.Points, a.Points...)
	for _, pt := range b.Points {
		if len(out.Points) > 0 {
			prev := out.Points[len(out.Points)-1]
			if core.GreatCircleDistanceCoords(prev, pt).Radians() < 1e-12 {
				continue
			}
		}
		out.Points = append(out.Points, pt)
	}
	return out
}

// armSide evaluates which side of the cut's first segment a rift arm
// lies on
func armSide(arm core.Polygon, cut core.Polygon) float64 {
	if len(cut.Points) < 2 || len(arm.Points) == 0 {
		return 1
	}
	a := core.ToVector(cut.Points[0])
	b := core.ToVector(cut.Points[1])
	normal := core.Normalize(a.Cross(b))
	centroid := core.ToVector(core.SphericalCentroid(arm.Points))
	if centroid.Dot(normal) >= 0 {
		return 1
	}
	return -1
}

func replaceID(list []string, drop string, add ...string) []string {
	out := make([]string, 0, len(list)+len(add))
	seen := make(map[string]bool, len(list)+len(add))
	for _, id := range append(append([]string(nil), list...), add...) {
		if id == drop || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func clonePlateMap(plates map[string]*TectonicPlate) map[string]*TectonicPlate {
	out := make(map[string]*TectonicPlate, len(plates))
	for id, p := range plates {
		out[id] = p.Clone()
	}
	return out
}

// FusePlates merges two plates into one successor at time t. Both are
// baked, their outlines unioned through the clipper, and one new plate
// is born carrying both lineages; the parents are marked dead and any
// plates kinematically linked to them are re-birthed and relinked to
// the successor. Like SplitPlate this works on a transactional copy.
func FusePlates(plates map[string]*TectonicPlate, idA, idB string, t float64, ids IDSource, clip Clipper) (map[string]*TectonicPlate, error) {
	a, okA := plates[idA]
	b, okB := plates[idB]
	if !okA || !okB || !a.Alive(t) || !b.Alive(t) {
		return plates, fmt.Errorf("fuse of %s and %s at %.2f: %w", idA, idB, t, ErrSplitNoEffect)
	}

	work := clonePlateMap(plates)
	a, b = work[idA], work[idB]

	bakedA := BakePlate(a, t, work)
	bakedB := BakePlate(b, t, work)

	union := clip.Union(ringsOf(bakedA.Polygons), ringsOf(bakedB.Polygons))
	if len(union) == 0 {
		return plates, fmt.Errorf("fuse of %s and %s produced no geometry: %w", idA, idB, ErrSplitNoEffect)
	}

	polys := make([]core.Polygon, len(union))
	for i, ring := range union {
		polys[i] = core.Polygon{Points: ring, Closed: true}
	}

	crust := CrustOceanic
	if a.Crust == CrustContinental || b.Crust == CrustContinental {
		crust = CrustContinental
	}

	fused := &TectonicPlate{
		ID:               ids.NewID(),
		Name:             a.Name + "+" + b.Name,
		Color:            a.Color,
		Kind:             KindCrust,
		Crust:            crust,
		Motion:           a.ActivePole(t),
		BirthTime:        t,
		InitialPolygons:  core.ClonePolygons(polys),
		ParentPlateIDs:   []string{a.ID, b.ID},
		ConnectedRiftIDs: replaceID(append(append([]string(nil), a.ConnectedRiftIDs...), b.ConnectedRiftIDs...), ""),
	}
	fused.Keyframes = []MotionKeyframe{{
		Time:             t,
		Pole:             a.ActivePole(t),
		SnapshotPolygons: core.ClonePolygons(polys),
	}}

	InheritFeatures(fused, []*TectonicPlate{
		{ID: a.ID, BirthTime: a.BirthTime, Features: bakedA.Features},
		{ID: b.ID, BirthTime: b.BirthTime, Features: bakedB.Features},
	})

	fused.Polygons = core.ClonePolygons(polys)
	fused.Center = successorCenter(polys)

	killPlate(a, bakedA, t)
	killPlate(b, bakedB, t)
	work[fused.ID] = fused

	rebirthLinkedChildren(work, a.ID, fused.ID, t, ids)
	rebirthLinkedChildren(work, b.ID, fused.ID, t, ids)

	slog.Info("plates fused",
		slog.String("a", idA),
		slog.String("b", idB),
		slog.String("successor", fused.ID),
		slog.Float64("time", t))

	return work, nil
}
