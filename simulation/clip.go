package simulation

import (
	"log/slog"

	polyclip "github.com/ctessum/polyclip-go"

	"github.com/Calor7/TectoLite-sub001/core"
)

// Clipper is the polygon-boolean capability. Ring coordinates are
// clipped in planar lon/lat space, which is an approximation: results
// are inaccurate near the poles and across the antimeridian. Boundary
// detection accepts that tradeoff; nothing authoritative is derived
// from clipped rings.
type Clipper interface {
	Intersect(a, b [][]core.Coordinate) [][]core.Coordinate
	Union(a, b [][]core.Coordinate) [][]core.Coordinate
	Difference(a, b [][]core.Coordinate) [][]core.Coordinate
}

// PlanarClipper implements Clipper with the polyclip sweep-line
// algorithm over lon/lat treated as plane coordinates
type PlanarClipper struct{}

func (PlanarClipper) Intersect(a, b [][]core.Coordinate) [][]core.Coordinate {
	return clipOp(polyclip.INTERSECTION, a, b)
}

func (PlanarClipper) Union(a, b [][]core.Coordinate) [][]core.Coordinate {
	return clipOp(polyclip.UNION, a, b)
}

func (PlanarClipper) Difference(a, b [][]core.Coordinate) [][]core.Coordinate {
	return clipOp(polyclip.DIFFERENCE, a, b)
}

// clipOp runs one boolean operation. The underlying primitive can panic
// on pathological input; that is treated as "no result" and logged, per
// the error policy for clipping failures.
func clipOp(op polyclip.Op, a, b [][]core.Coordinate) (result [][]core.Coordinate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("polygon clip failed, treating as empty", slog.Any("panic", r))
			result = nil
		}
	}()

	pa := toPolyclip(a)
	pb := toPolyclip(b)
	if len(pa) == 0 {
		if op == polyclip.UNION {
			return b
		}
		return nil
	}
	if len(pb) == 0 {
		if op == polyclip.UNION || op == polyclip.DIFFERENCE {
			return a
		}
		return nil
	}

	return fromPolyclip(pa.Construct(op, pb))
}

func toPolyclip(rings [][]core.Coordinate) polyclip.Polygon {
	var poly polyclip.Polygon
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		contour := make(polyclip.Contour, len(ring))
		for i, c := range ring {
			contour[i] = polyclip.Point{X: c.Lon, Y: c.Lat}
		}
		poly = append(poly, contour)
	}
	return poly
}

func fromPolyclip(poly polyclip.Polygon) [][]core.Coordinate {
	var rings [][]core.Coordinate
	for _, contour := range poly {
		if len(contour) < 3 {
			continue
		}
		ring := make([]core.Coordinate, len(contour))
		for i, p := range contour {
			ring[i] = core.Coordinate{Lon: p.X, Lat: p.Y}
		}
		rings = append(rings, ring)
	}
	return rings
}

// ringsOf extracts the closed rings of a polygon set as raw coordinate
// slices for clipping
func ringsOf(polys []core.Polygon) [][]core.Coordinate {
	var rings [][]core.Coordinate
	for _, p := range polys {
		if p.Closed && len(p.Points) >= 3 {
			rings = append(rings, p.Points)
		}
	}
	return rings
}
