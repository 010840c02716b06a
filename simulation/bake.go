package simulation

import (
	"github.com/Calor7/TectoLite-sub001/core"
)

// BakedState is a plate's time-dependent geometry frozen into literal
// coordinates at one instant, ready to become a successor plate's birth
// state. Feature OriginalPosition is set to the baked position so the
// successor's rotations start from identity at the bake time.
type BakedState struct {
	Polygons []core.Polygon
	Features []Feature
}

// BakePlate evaluates the reconstruction transform once against the
// plate's birth-snapshot geometry. It never reads the materialized
// Polygons field, which may already carry the same rotation; applying
// the transform to it would rotate twice.
func BakePlate(p *TectonicPlate, t float64, all map[string]*TectonicPlate) BakedState {
	tr, srcPolys, ownStart := transformAt(p, t, all)

	baked := BakedState{
		Polygons: tr.applyPolygons(srcPolys, ownStart),
	}

	for _, f := range transformOwnFeatures(p, tr, ownStart) {
		g := f.Clone()
		g.OriginalPosition = g.Position
		baked.Features = append(baked.Features, g)
	}
	for _, f := range transformInheritedFeatures(p, tr) {
		g := f.Clone()
		g.OriginalPosition = g.Position
		baked.Features = append(baked.Features, g)
	}

	return baked
}

// InheritFeatures copies into the child every parent feature that was
// generated during the parent's tenure over the child's ground and whose
// current position falls inside one of the child's initial rings.
// Duplicates are rejected by id against both the child's own features
// and anything already inherited.
func InheritFeatures(child *TectonicPlate, parents []*TectonicPlate) {
	seen := make(map[string]bool)
	for _, f := range child.Features {
		seen[f.ID] = true
	}
	for _, f := range child.InheritedFeatures {
		seen[f.ID] = true
	}

	for _, parent := range parents {
		if parent == nil {
			continue
		}
		for _, f := range parent.Features {
			if seen[f.ID] {
				continue
			}
			if f.GeneratedAt < parent.BirthTime || f.GeneratedAt > child.BirthTime {
				continue
			}
			if !anyRingContains(child.InitialPolygons, f.Position) {
				continue
			}
			g := f.Clone()
			seen[g.ID] = true
			child.InheritedFeatures = append(child.InheritedFeatures, g)
		}
	}
}

func anyRingContains(polys []core.Polygon, c core.Coordinate) bool {
	for _, p := range polys {
		if p.ContainsPoint(c) {
			return true
		}
	}
	return false
}
