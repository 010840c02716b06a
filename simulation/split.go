package simulation

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/Calor7/TectoLite-sub001/core"
)

const (
	// An intersection candidate must lie on both arcs: the sum of its
	// distances to an arc's endpoints has to match the arc length to
	// within this tolerance (radians).
	arcTolerance = 1e-4

	// Below this cross-product magnitude the two great circles are
	// treated as the same circle and no intersection is reported.
	parallelTolerance = 1e-6
)

// arcIntersection returns the point where two great-circle arcs cross.
// Each arc is the shorter path between its endpoints. Candidates are the
// normalized cross product of the arcs' plane normals and its negation;
// a candidate counts only if it lies on both arcs.
func arcIntersection(a1, a2, b1, b2 r3.Vector) (r3.Vector, bool) {
	n1 := a1.Cross(a2)
	n2 := b1.Cross(b2)

	x := n1.Cross(n2)
	if x.Norm() < parallelTolerance {
		return r3.Vector{}, false
	}
	x = core.Normalize(x)

	for _, candidate := range []r3.Vector{x, x.Mul(-1)} {
		if onArc(candidate, a1, a2) && onArc(candidate, b1, b2) {
			return candidate, true
		}
	}
	return r3.Vector{}, false
}

// onArc reports whether point p lies on the arc from a to b
func onArc(p, a, b r3.Vector) bool {
	arcLen := core.GreatCircleDistance(a, b).Radians()
	sum := core.GreatCircleDistance(p, a).Radians() + core.GreatCircleDistance(p, b).Radians()
	return math.Abs(sum-arcLen) < arcTolerance
}

// ringCrossing records where a cut segment crosses a ring edge
type ringCrossing struct {
	EdgeIndex int             // ring edge, by start vertex
	CutIndex  int             // cut segment, by start vertex
	Point     core.Coordinate // crossing point
	AlongCut  float64         // cumulative distance along the cut (radians)
}

// findRingCrossings collects every crossing of the cut polyline with the
// ring boundary, ordered by position along the cut
func findRingCrossings(ring core.Polygon, cut core.Polygon) []ringCrossing {
	n := len(ring.Points)
	if n < 3 || len(cut.Points) < 2 {
		return nil
	}

	ringVecs := make([]r3.Vector, n)
	for i, pt := range ring.Points {
		ringVecs[i] = core.ToVector(pt)
	}
	cutVecs := make([]r3.Vector, len(cut.Points))
	for i, pt := range cut.Points {
		cutVecs[i] = core.ToVector(pt)
	}

	var crossings []ringCrossing
	cumulative := 0.0
	for j := 0; j+1 < len(cutVecs); j++ {
		for i := 0; i < n; i++ {
			p, ok := arcIntersection(ringVecs[i], ringVecs[(i+1)%n], cutVecs[j], cutVecs[j+1])
			if !ok {
				continue
			}
			crossings = append(crossings, ringCrossing{
				EdgeIndex: i,
				CutIndex:  j,
				Point:     core.ToCoord(p),
				AlongCut:  cumulative + core.GreatCircleDistance(cutVecs[j], p).Radians(),
			})
		}
		cumulative += core.GreatCircleDistance(cutVecs[j], cutVecs[j+1]).Radians()
	}

	// Insertion sort by position along the cut; crossing counts are tiny
	for i := 1; i < len(crossings); i++ {
		for k := i; k > 0 && crossings[k].AlongCut < crossings[k-1].AlongCut; k-- {
			crossings[k], crossings[k-1] = crossings[k-1], crossings[k]
		}
	}

	return crossings
}

// SplitRing bisects a closed ring with a cutting polyline. The first and
// last crossing along the cut are used; additional internal crossings
// are not supported and are ignored. The left ring sits on the positive
// side of the cut's segment normals. Every edge introduced by the cut is
// flagged as a rift edge; original rift edges keep their flag at their
// new index in whichever ring they land in.
//
// Degenerate input (under 3 ring points, under 2 cut points) and cuts
// with fewer than two crossings return the original ring as left and an
// empty right.
func SplitRing(ring core.Polygon, cut core.Polygon) (left, right core.Polygon) {
	if len(ring.Points) < 3 || !ring.Closed || len(cut.Points) < 2 {
		return ring, core.Polygon{Closed: true}
	}

	crossings := findRingCrossings(ring, cut)
	if len(crossings) < 2 {
		return ring, core.Polygon{Closed: true}
	}

	first := crossings[0]
	last := crossings[len(crossings)-1]

	// The path along the cut between the two crossings
	cutPath := []core.Coordinate{first.Point}
	for j := first.CutIndex + 1; j <= last.CutIndex; j++ {
		cutPath = append(cutPath, cut.Points[j])
	}
	cutPath = append(cutPath, last.Point)

	ringA := buildSplitRing(ring, first, last, cutPath, false)
	ringB := buildSplitRing(ring, last, first, cutPath, true)

	// Assign sides by the normal of the cut segment nearest each centroid
	if sideOfCut(ringA, cut) >= 0 {
		return ringA, ringB
	}
	return ringB, ringA
}

// buildSplitRing walks the ring boundary from the exit of the `from`
// crossing around to the `to` crossing, then closes along the cut path.
// forwardCut selects which direction the shared cut path is traversed.
func buildSplitRing(ring core.Polygon, from, to ringCrossing, cutPath []core.Coordinate, forwardCut bool) core.Polygon {
	n := len(ring.Points)
	out := core.Polygon{Closed: true}

	// sourceEdge[i] is the original ring edge the output edge starting at
	// vertex i came from, or -1 for cut-derived edges
	var sourceEdge []int

	appendPoint := func(pt core.Coordinate, src int) {
		if len(out.Points) > 0 {
			prev := out.Points[len(out.Points)-1]
			if core.GreatCircleDistanceCoords(prev, pt).Radians() < 1e-12 {
				return
			}
		}
		out.Points = append(out.Points, pt)
		sourceEdge = append(sourceEdge, src)
	}

	// Walk the boundary: the crossing point sits on edge from.EdgeIndex,
	// so the remainder of that edge opens the walk
	appendPoint(from.Point, from.EdgeIndex)

	// Both crossings on one edge with `to` further along it: the
	// boundary contribution is just the sliver between the two crossing
	// points, no original vertices
	sameEdgeForward := from.EdgeIndex == to.EdgeIndex &&
		distAlongEdge(ring, to) > distAlongEdge(ring, from)

	if !sameEdgeForward {
		idx := (from.EdgeIndex + 1) % n
		for {
			appendPoint(ring.Points[idx], idx)
			if idx == to.EdgeIndex {
				break
			}
			idx = (idx + 1) % n
		}
	}

	// Close along the cut path; all of these edges are newly created rift
	if forwardCut {
		for _, pt := range cutPath {
			appendPoint(pt, -1)
		}
	} else {
		for i := len(cutPath) - 1; i >= 0; i-- {
			appendPoint(cutPath[i], -1)
		}
	}

	// Drop a trailing duplicate of the starting point
	if len(out.Points) > 1 {
		d := core.GreatCircleDistanceCoords(out.Points[0], out.Points[len(out.Points)-1])
		if d.Radians() < 1e-12 {
			out.Points = out.Points[:len(out.Points)-1]
			sourceEdge = sourceEdge[:len(sourceEdge)-1]
		}
	}

	// Rift edges: cut-derived edges always, original edges when flagged.
	// The edge starting at output vertex i runs to vertex i+1; its source
	// is the ring edge the start vertex lies on.
	for i := range out.Points {
		src := sourceEdge[i]
		if src == -1 {
			out.RiftEdges = append(out.RiftEdges, i)
		} else if ring.HasRiftEdge(src) {
			out.RiftEdges = append(out.RiftEdges, i)
		}
	}

	return out
}

// distAlongEdge measures a crossing's offset from its ring edge's start vertex
func distAlongEdge(ring core.Polygon, c ringCrossing) float64 {
	return core.GreatCircleDistanceCoords(ring.Points[c.EdgeIndex], c.Point).Radians()
}

// sideOfCut returns the sign of the dot product between the ring
// centroid and the plane normal of the nearest cut segment. Using the
// nearest segment rather than the first keeps the assignment correct for
// long or curved cuts.
func sideOfCut(ring core.Polygon, cut core.Polygon) float64 {
	centroid := core.ToVector(core.SphericalCentroid(ring.Points))

	bestDist := math.Inf(1)
	bestDot := 0.0
	for j := 0; j+1 < len(cut.Points); j++ {
		a := core.ToVector(cut.Points[j])
		b := core.ToVector(cut.Points[j+1])
		mid := core.Normalize(a.Add(b))
		d := core.GreatCircleDistance(centroid, mid).Radians()
		if d < bestDist {
			bestDist = d
			normal := core.Normalize(a.Cross(b))
			bestDot = centroid.Dot(normal)
		}
	}

	if bestDot >= 0 {
		return 1
	}
	return -1
}
