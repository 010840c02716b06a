package core

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// Coordinate represents a position on the sphere in geographic coordinates
type Coordinate struct {
	Lon float64 `json:"lon"` // Longitude in degrees [-180, 180], positive = east
	Lat float64 `json:"lat"` // Latitude in degrees [-90, 90], positive = north
}

// Axis convention: Z points to the north pole, X to (0°E, 0°N),
// Y to (90°E, 0°N). All vectors produced here are unit length.

// DegreesToRadians converts degrees to radians
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RadiansToDegrees converts radians to degrees
func RadiansToDegrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// ToVector converts a geographic coordinate to a unit vector
func ToVector(c Coordinate) r3.Vector {
	latRad := DegreesToRadians(c.Lat)
	lonRad := DegreesToRadians(c.Lon)
	cosLat := math.Cos(latRad)

	return r3.Vector{
		X: cosLat * math.Cos(lonRad),
		Y: cosLat * math.Sin(lonRad),
		Z: math.Sin(latRad),
	}
}

// ToCoord converts a unit vector back to a geographic coordinate.
// Z is clamped to [-1, 1] before Asin to tolerate floating-point drift.
func ToCoord(v r3.Vector) Coordinate {
	z := v.Z
	if z > 1.0 {
		z = 1.0
	} else if z < -1.0 {
		z = -1.0
	}

	return Coordinate{
		Lon: RadiansToDegrees(math.Atan2(v.Y, v.X)),
		Lat: RadiansToDegrees(math.Asin(z)),
	}
}

// NormalizeCoordinate wraps longitude into [-180, 180] and clamps latitude
func NormalizeCoordinate(c Coordinate) Coordinate {
	if c.Lat > 90.0 {
		c.Lat = 90.0
	} else if c.Lat < -90.0 {
		c.Lat = -90.0
	}

	for c.Lon > 180.0 {
		c.Lon -= 360.0
	}
	for c.Lon < -180.0 {
		c.Lon += 360.0
	}

	return c
}

// Normalize returns the unit vector in the direction of v.
// A zero-length input is returned unchanged rather than divided by zero.
func Normalize(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n < 1e-12 {
		return v
	}
	return v.Mul(1.0 / n)
}

// Rotate rotates v around the given axis by angle radians using
// Rodrigues' rotation formula. The axis must be unit length.
func Rotate(v, axis r3.Vector, angle float64) r3.Vector {
	if angle == 0 {
		return v
	}

	cosA := math.Cos(angle)
	sinA := math.Sin(angle)

	// v' = v cosθ + (k × v) sinθ + k (k · v)(1 − cosθ)
	term1 := v.Mul(cosA)
	term2 := axis.Cross(v).Mul(sinA)
	term3 := axis.Mul(axis.Dot(v) * (1.0 - cosA))

	return term1.Add(term2).Add(term3)
}

// RotateCoord rotates a geographic coordinate around an axis by angle radians
func RotateCoord(c Coordinate, axis r3.Vector, angle float64) Coordinate {
	return ToCoord(Rotate(ToVector(c), axis, angle))
}

// GreatCircleDistance returns the angular distance between two unit vectors
func GreatCircleDistance(a, b r3.Vector) s1.Angle {
	d := a.Dot(b)
	if d > 1.0 {
		d = 1.0
	} else if d < -1.0 {
		d = -1.0
	}
	return s1.Angle(math.Acos(d))
}

// GreatCircleDistanceCoords returns the angular distance between two coordinates
func GreatCircleDistanceCoords(a, b Coordinate) s1.Angle {
	return GreatCircleDistance(ToVector(a), ToVector(b))
}

// SphericalCentroid returns the spherical centroid of a set of coordinates:
// the normalized sum of their unit vectors. When the sum cancels to the zero
// vector (antipodal point sets) the first point is returned as a fallback;
// there is no meaningful centroid in that case.
func SphericalCentroid(points []Coordinate) Coordinate {
	if len(points) == 0 {
		return Coordinate{}
	}

	var sum r3.Vector
	for _, p := range points {
		sum = sum.Add(ToVector(p))
	}

	if sum.Norm() < 1e-9 {
		return points[0]
	}

	return ToCoord(Normalize(sum))
}
