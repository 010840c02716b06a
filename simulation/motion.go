package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang/geo/r3"

	"github.com/Calor7/TectoLite-sub001/core"
)

// ErrNegativeTimeDelta reports a keyframe list whose times are not
// ascending. Rebaking such a history would silently misorder time, so
// the operation refuses instead.
var ErrNegativeTimeDelta = errors.New("negative time delta between keyframes")

// rotationSegment is one rigid rotation over a specific sub-interval of
// the timeline: an axis and the angle accumulated over that interval.
// Segments are applied in chronological order and never merged, because
// rotations about different axes do not commute.
type rotationSegment struct {
	Axis  r3.Vector
	Angle float64 // radians
}

func poleSegment(pole EulerPole, dtMa float64) rotationSegment {
	return rotationSegment{
		Axis:  core.ToVector(pole.Position),
		Angle: core.DegreesToRadians(pole.RateDegPerMa) * dtMa,
	}
}

// transform reconstructs coordinates at query time t: the ordered parent
// segments first, then the plate's own pole rotation. The own axis is
// itself pre-rotated by the parent segments, so a plate's local pole is
// expressed in its current drifted frame rather than its birth frame.
type transform struct {
	parentSegs []rotationSegment
	ownAxis    r3.Vector
	ownRateRad float64 // radians per Ma
	t          float64
}

func newTransform(parentSegs []rotationSegment, pole EulerPole, t float64) transform {
	axis := core.ToVector(pole.Position)
	for _, seg := range parentSegs {
		axis = core.Rotate(axis, seg.Axis, seg.Angle)
	}
	return transform{
		parentSegs: parentSegs,
		ownAxis:    axis,
		ownRateRad: core.DegreesToRadians(pole.RateDegPerMa),
		t:          t,
	}
}

// Apply transforms a coordinate whose own rotation starts at the given
// time. Parent segments always apply in full; only the plate's own
// rotation duration depends on the start.
func (tr transform) Apply(c core.Coordinate, ownStart float64) core.Coordinate {
	dt := tr.t - ownStart

	// Identity transforms return the input exactly; a vector round trip
	// would smear the coordinate by floating error
	if len(tr.parentSegs) == 0 && (dt <= 0 || tr.ownRateRad == 0) {
		return c
	}

	v := core.ToVector(c)
	for _, seg := range tr.parentSegs {
		v = core.Rotate(v, seg.Axis, seg.Angle)
	}

	if dt > 0 && tr.ownRateRad != 0 {
		v = core.Rotate(v, tr.ownAxis, tr.ownRateRad*dt)
	}

	return core.ToCoord(v)
}

// applyPolygons transforms every vertex of every polygon
func (tr transform) applyPolygons(polys []core.Polygon, ownStart float64) []core.Polygon {
	out := make([]core.Polygon, len(polys))
	for i, p := range polys {
		cp := p.Clone()
		for j, pt := range cp.Points {
			cp.Points[j] = tr.Apply(pt, ownStart)
		}
		out[i] = cp
	}
	return out
}

// ancestorSegments walks the kinematic link chain toward the root,
// collecting the rotation segments each ancestor contributes over the
// window [lo, hi), clipped at every hop to that link's validity range.
// Grandparent segments are collected before the parent's own, so the
// returned list applies oldest ancestor first. The visited set guards
// against link cycles.
func ancestorSegments(p *TectonicPlate, lo, hi float64, all map[string]*TectonicPlate, visited map[string]bool) []rotationSegment {
	if p.LinkedToPlateID == "" || lo >= hi {
		return nil
	}
	if visited[p.ID] {
		return nil
	}
	visited[p.ID] = true

	// A dangling link means no parent motion, not an error
	parent, ok := all[p.LinkedToPlateID]
	if !ok || parent == nil {
		return nil
	}

	start := math.Max(lo, p.LinkTime)
	end := hi
	if p.UnlinkTime != nil && *p.UnlinkTime < end {
		end = *p.UnlinkTime
	}
	if start >= end {
		return nil
	}

	segs := ancestorSegments(parent, start, end, all, visited)
	return append(segs, ownMotionSegments(parent, start, end)...)
}

// ownMotionSegments returns the rotation segments a plate's own motion
// history contributes over [lo, hi): one segment per keyframe
// sub-interval, in chronological order, or a single legacy segment for
// plates with no keyframes.
func ownMotionSegments(p *TectonicPlate, lo, hi float64) []rotationSegment {
	var segs []rotationSegment

	if len(p.Keyframes) == 0 {
		start := math.Max(lo, p.BirthTime)
		if start < hi && p.Motion.RateDegPerMa != 0 {
			segs = append(segs, poleSegment(p.Motion, hi-start))
		}
		return segs
	}

	for i := range p.Keyframes {
		k := &p.Keyframes[i]
		segStart := math.Max(lo, k.Time)
		segEnd := hi
		if i+1 < len(p.Keyframes) && p.Keyframes[i+1].Time < segEnd {
			segEnd = p.Keyframes[i+1].Time
		}
		if segStart >= segEnd || k.Pole.RateDegPerMa == 0 {
			continue
		}
		segs = append(segs, poleSegment(k.Pole, segEnd-segStart))
	}

	return segs
}

// transformAt builds the full transform for a plate at query time t,
// along with the geometry source the plate's own rotation applies to.
func transformAt(p *TectonicPlate, t float64, all map[string]*TectonicPlate) (transform, []core.Polygon, float64) {
	lo := math.Inf(-1)
	if len(p.Keyframes) > 0 {
		lo = p.Keyframes[0].Time
	}
	parentSegs := ancestorSegments(p, lo, t, all, map[string]bool{})

	// Legacy path: no keyframes at all, single constant pole since birth
	if len(p.Keyframes) == 0 {
		return newTransform(parentSegs, p.Motion, t), p.InitialPolygons, p.BirthTime
	}

	kf := p.ActiveKeyframe(t)
	if kf == nil {
		// Before the first keyframe: initial geometry, parent motion only
		return newTransform(parentSegs, EulerPole{}, t), p.InitialPolygons, t
	}

	return newTransform(parentSegs, kf.Pole, t), kf.SnapshotPolygons, kf.Time
}

// PlateAtTime reconstructs a plate's geometry and features at time t.
// It is a pure function of (plate, all plates, t): it reads only
// birth-state and keyframe snapshots, never previously computed results,
// so scrubbing time in any direction accumulates no error. Query times
// outside the plate's lifetime clamp to it; a dead plate keeps its
// geometry as of death.
func PlateAtTime(p *TectonicPlate, t float64, all map[string]*TectonicPlate) *TectonicPlate {
	if t < p.BirthTime {
		t = p.BirthTime
	}
	if p.DeathTime != nil && t > *p.DeathTime {
		t = *p.DeathTime
	}

	tr, srcPolys, ownStart := transformAt(p, t, all)

	out := p.Clone()
	out.Polygons = tr.applyPolygons(srcPolys, ownStart)
	out.Features = transformOwnFeatures(p, tr, ownStart)
	out.InheritedFeatures = transformInheritedFeatures(p, tr)

	var verts []core.Coordinate
	for _, poly := range out.Polygons {
		verts = append(verts, poly.Points...)
	}
	if len(verts) > 0 {
		out.Center = core.SphericalCentroid(verts)
	}

	return out
}

// transformOwnFeatures applies the three start-time/source policies:
// snapshot members rotate from their snapshot position since the
// snapshot time; features created after the snapshot rotate from
// OriginalPosition since their own GeneratedAt, never from the live
// position, which would double-rotate.
func transformOwnFeatures(p *TectonicPlate, tr transform, ownStart float64) []Feature {
	kf := p.ActiveKeyframe(tr.t)

	if kf == nil {
		// No snapshot to anchor to: every feature is dynamic
		out := make([]Feature, 0, len(p.Features))
		for _, f := range p.Features {
			if f.GeneratedAt > tr.t {
				continue
			}
			start := math.Max(p.BirthTime, f.GeneratedAt)
			g := f.Clone()
			g.Position = tr.Apply(f.OriginalPosition, start)
			out = append(out, g)
		}
		return out
	}

	out := make([]Feature, 0, len(kf.SnapshotFeatures))
	seen := make(map[string]bool, len(kf.SnapshotFeatures))
	for _, f := range kf.SnapshotFeatures {
		g := f.Clone()
		g.Position = tr.Apply(f.Position, kf.Time)
		out = append(out, g)
		seen[f.ID] = true
	}

	for _, f := range p.Features {
		if seen[f.ID] || f.GeneratedAt <= kf.Time || f.GeneratedAt > tr.t {
			continue
		}
		g := f.Clone()
		g.Position = tr.Apply(f.OriginalPosition, f.GeneratedAt)
		out = append(out, g)
	}

	return out
}

// transformInheritedFeatures rotates features copied in from a parent at
// a split or fuse: the child's birth is the start, the position recorded
// at inheritance is the source.
func transformInheritedFeatures(p *TectonicPlate, tr transform) []Feature {
	if len(p.InheritedFeatures) == 0 {
		return nil
	}
	out := make([]Feature, 0, len(p.InheritedFeatures))
	for _, f := range p.InheritedFeatures {
		g := f.Clone()
		g.Position = tr.Apply(f.Position, p.BirthTime)
		out = append(out, g)
	}
	return out
}

// RecalculateMotionHistory rebuilds every keyframe's geometry snapshot
// from the plate's birth state by forward-integrating each prior
// keyframe's own rotation over its own duration. Called after the user
// edits historical poles or rates, so later time queries reconstruct
// against snapshots that match the edited motion.
func RecalculateMotionHistory(p *TectonicPlate) error {
	if len(p.Keyframes) == 0 {
		return nil
	}

	polys := core.ClonePolygons(p.InitialPolygons)
	features := CloneFeatures(p.InitialFeatures)

	for i := range p.Keyframes {
		if i > 0 {
			prev := &p.Keyframes[i-1]
			dt := p.Keyframes[i].Time - prev.Time
			if dt < 0 {
				slog.Warn("keyframe history out of order",
					slog.String("plate", p.ID),
					slog.Float64("keyframeTime", p.Keyframes[i].Time),
					slog.Float64("previousTime", prev.Time))
				return fmt.Errorf("plate %s keyframe %d: %w", p.ID, i, ErrNegativeTimeDelta)
			}

			if prev.Pole.RateDegPerMa != 0 && dt > 0 {
				seg := poleSegment(prev.Pole, dt)
				polys = rotatePolygons(polys, seg)
				features = rotateFeaturePositions(features, seg)
			}
		}

		p.Keyframes[i].SnapshotPolygons = core.ClonePolygons(polys)
		p.Keyframes[i].SnapshotFeatures = CloneFeatures(features)
	}

	return nil
}

func rotatePolygons(polys []core.Polygon, seg rotationSegment) []core.Polygon {
	out := make([]core.Polygon, len(polys))
	for i, p := range polys {
		cp := p.Clone()
		for j, pt := range cp.Points {
			cp.Points[j] = core.RotateCoord(pt, seg.Axis, seg.Angle)
		}
		out[i] = cp
	}
	return out
}

func rotateFeaturePositions(features []Feature, seg rotationSegment) []Feature {
	out := make([]Feature, len(features))
	for i, f := range features {
		g := f.Clone()
		g.Position = core.RotateCoord(f.Position, seg.Axis, seg.Angle)
		out[i] = g
	}
	return out
}
