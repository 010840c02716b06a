package core

// Polygon is an ordered ring of coordinates on the sphere. Closed rings
// represent plate outlines; open polylines represent rift axes and split
// cuts. RiftEdges holds the indices (by start vertex) of edges that are
// active rift boundaries, as opposed to edges inherited from an older
// plate outline. Split operations must keep this set consistent.
type Polygon struct {
	Points    []Coordinate `json:"points"`
	Closed    bool         `json:"closed"`
	RiftEdges []int        `json:"riftEdges,omitempty"`
}

// EdgeCount returns the number of edges in the polygon
func (p Polygon) EdgeCount() int {
	n := len(p.Points)
	if n < 2 {
		return 0
	}
	if p.Closed {
		return n
	}
	return n - 1
}

// HasRiftEdge reports whether the edge starting at vertex index i is a rift edge
func (p Polygon) HasRiftEdge(i int) bool {
	for _, e := range p.RiftEdges {
		if e == i {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the polygon
func (p Polygon) Clone() Polygon {
	out := Polygon{Closed: p.Closed}
	if p.Points != nil {
		out.Points = make([]Coordinate, len(p.Points))
		copy(out.Points, p.Points)
	}
	if p.RiftEdges != nil {
		out.RiftEdges = make([]int, len(p.RiftEdges))
		copy(out.RiftEdges, p.RiftEdges)
	}
	return out
}

// ClonePolygons deep-copies a polygon slice
func ClonePolygons(polys []Polygon) []Polygon {
	if polys == nil {
		return nil
	}
	out := make([]Polygon, len(polys))
	for i, p := range polys {
		out[i] = p.Clone()
	}
	return out
}

// ContainsPoint reports whether a closed polygon contains the given point,
// using a winding count over a longitude ray at the point's latitude.
// Edges are unwrapped across the antimeridian before the crossing test,
// so rings spanning ±180° are handled correctly. Open polylines never
// contain anything.
func (p Polygon) ContainsPoint(c Coordinate) bool {
	if !p.Closed || len(p.Points) < 3 {
		return false
	}

	winding := 0
	n := len(p.Points)
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]

		// Unwrap the edge so the longitude span is the short way around
		dLon := b.Lon - a.Lon
		if dLon > 180.0 {
			dLon -= 360.0
		} else if dLon < -180.0 {
			dLon += 360.0
		}
		bLon := a.Lon + dLon

		// Position the test point relative to edge start
		cLon := c.Lon
		for cLon-a.Lon > 180.0 {
			cLon -= 360.0
		}
		for cLon-a.Lon < -180.0 {
			cLon += 360.0
		}

		// Does this edge cross the test point's latitude?
		if (a.Lat <= c.Lat) != (b.Lat <= c.Lat) {
			// Longitude of the crossing at the point's latitude
			t := (c.Lat - a.Lat) / (b.Lat - a.Lat)
			crossLon := a.Lon + t*(bLon-a.Lon)
			if crossLon > cLon {
				if b.Lat > a.Lat {
					winding++
				} else {
					winding--
				}
			}
		}
	}

	return winding != 0
}
