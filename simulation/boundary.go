package simulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/Calor7/TectoLite-sub001/core"
)

// Classification thresholds on the closing speed of two plates at their
// contact point, in degrees-per-Ma-scaled units. Between the two the
// motion is dominated by shear and the boundary is a transform fault.
const (
	convergentThreshold = 0.05
	divergentThreshold  = -0.05
)

// PlateVelocityAt returns a plate's linear velocity at a surface point:
// v = ω × r with ω the active Euler pole's axis scaled by its angular
// rate in radians per Ma, r the unit vector of the point.
func PlateVelocityAt(p *TectonicPlate, point core.Coordinate, t float64) r3.Vector {
	pole := p.ActivePole(t)
	axis := core.ToVector(pole.Position)
	omega := axis.Mul(core.DegreesToRadians(pole.RateDegPerMa))
	return omega.Cross(core.ToVector(point))
}

// DetectBoundaries finds every contact between the given plates and
// classifies it by relative motion. Plates must already be materialized
// at the same query time; only closed crust rings participate. The
// polygon intersection runs in planar lon/lat space through the
// clipper, a documented approximation near the poles and antimeridian.
func DetectBoundaries(plates []*TectonicPlate, t float64, clip Clipper) []Boundary {
	var boundaries []Boundary

	for i := 0; i < len(plates); i++ {
		for j := i + 1; j < len(plates); j++ {
			a, b := plates[i], plates[j]
			if a.Kind != KindCrust || b.Kind != KindCrust {
				continue
			}

			overlap := clip.Intersect(ringsOf(a.Polygons), ringsOf(b.Polygons))
			if len(overlap) == 0 {
				continue
			}

			btype, speed := classifyContact(a, b, overlap, t)
			boundaries = append(boundaries, Boundary{
				ID:       boundaryID(a.ID, b.ID),
				Type:     btype,
				PlateIDs: [2]string{a.ID, b.ID},
				Points:   overlap,
				Velocity: speed,
			})
		}
	}

	return boundaries
}

// classifyContact projects the relative velocity at the contact's
// representative point onto the direction from a's center to b's center.
// Positive closing speed means the plates approach each other.
func classifyContact(a, b *TectonicPlate, overlap [][]core.Coordinate, t float64) (BoundaryType, float64) {
	rep := core.SphericalCentroid(overlap[0])

	va := PlateVelocityAt(a, rep, t)
	vb := PlateVelocityAt(b, rep, t)
	rel := va.Sub(vb)

	dir := core.Normalize(core.ToVector(b.Center).Sub(core.ToVector(a.Center)))
	closing := rel.Dot(dir)

	switch {
	case closing > convergentThreshold:
		return BoundaryConvergent, math.Abs(closing)
	case closing < divergentThreshold:
		return BoundaryDivergent, math.Abs(closing)
	default:
		return BoundaryTransform, rel.Norm()
	}
}

// boundaryID is deterministic for a plate pair: boundaries are derived
// values recomputed every tick, so they do not draw from the id source
func boundaryID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return fmt.Sprintf("boundary-%s-%s", ids[0], ids[1])
}
