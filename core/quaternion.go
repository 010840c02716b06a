package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Quaternion helpers for composing interactive pose rotations. The
// timeline reconstruction never uses these; it applies rotation segments
// directly. They exist so that dragging a plate's pose can be expressed
// as quaternion composition and converted back to a single axis/angle.

// QuatFromAxisAngle builds a unit quaternion for a rotation of angle
// radians around the given unit axis
func QuatFromAxisAngle(axis r3.Vector, angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, mgl64.Vec3{axis.X, axis.Y, axis.Z})
}

// QuatMultiply composes two rotations; the result applies b first, then a
func QuatMultiply(a, b mgl64.Quat) mgl64.Quat {
	return a.Mul(b).Normalize()
}

// AxisAngleFromQuat recovers the rotation axis and angle of a unit
// quaternion. When sin(angle/2) is near zero the rotation is degenerate
// and a zero angle with the north-pole axis is returned.
func AxisAngleFromQuat(q mgl64.Quat) (r3.Vector, float64) {
	w := q.W
	if w > 1.0 {
		w = 1.0
	} else if w < -1.0 {
		w = -1.0
	}

	angle := 2.0 * math.Acos(w)
	s := math.Sqrt(1.0 - w*w)
	if s < 1e-9 {
		return r3.Vector{X: 0, Y: 0, Z: 1}, 0
	}

	axis := r3.Vector{
		X: q.V.X() / s,
		Y: q.V.Y() / s,
		Z: q.V.Z() / s,
	}
	return Normalize(axis), angle
}

// RotateByQuat applies a quaternion rotation to a vector
func RotateByQuat(v r3.Vector, q mgl64.Quat) r3.Vector {
	out := q.Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return r3.Vector{X: out.X(), Y: out.Y(), Z: out.Z()}
}
