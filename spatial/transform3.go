package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// EulerAngles are ZYX intrinsic rotations in radians.
type EulerAngles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// Transform3 is a 3D rigid transform. Sensor mounts are 3D even though
// planning is planar; the z component of transformed endpoints feeds the
// obstacle height filter.
type Transform3 struct {
	R [3][3]float64
	T r3.Vector
}

// NewTransform3 builds a transform from a translation and euler angles.
func NewTransform3(translation r3.Vector, ea EulerAngles) Transform3 {
	sr, cr := math.Sincos(ea.Roll)
	sp, cp := math.Sincos(ea.Pitch)
	sy, cy := math.Sincos(ea.Yaw)
	return Transform3{
		R: [3][3]float64{
			{cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr},
			{sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr},
			{-sp, cp * sr, cp * cr},
		},
		T: translation,
	}
}

// NewTransform3FromPose lifts a planar pose into 3D with zero height.
func NewTransform3FromPose(p Pose) Transform3 {
	return NewTransform3(r3.Vector{X: p.X, Y: p.Y}, EulerAngles{Yaw: p.Theta})
}

// Identity3 returns the identity transform.
func Identity3() Transform3 {
	return NewTransform3(r3.Vector{}, EulerAngles{})
}

// Apply transforms a point.
func (t Transform3) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: t.R[0][0]*v.X + t.R[0][1]*v.Y + t.R[0][2]*v.Z + t.T.X,
		Y: t.R[1][0]*v.X + t.R[1][1]*v.Y + t.R[1][2]*v.Z + t.T.Y,
		Z: t.R[2][0]*v.X + t.R[2][1]*v.Y + t.R[2][2]*v.Z + t.T.Z,
	}
}

// Compose returns t * o.
func (t Transform3) Compose(o Transform3) Transform3 {
	var out Transform3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.R[i][j] = t.R[i][0]*o.R[0][j] + t.R[i][1]*o.R[1][j] + t.R[i][2]*o.R[2][j]
		}
	}
	out.T = t.Apply(o.T)
	return out
}

// Inverse returns the inverse transform.
func (t Transform3) Inverse() Transform3 {
	var out Transform3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.R[i][j] = t.R[j][i]
		}
	}
	inv := r3.Vector{
		X: out.R[0][0]*t.T.X + out.R[0][1]*t.T.Y + out.R[0][2]*t.T.Z,
		Y: out.R[1][0]*t.T.X + out.R[1][1]*t.T.Y + out.R[1][2]*t.T.Z,
		Z: out.R[2][0]*t.T.X + out.R[2][1]*t.T.Y + out.R[2][2]*t.T.Z,
	}
	out.T = r3.Vector{X: -inv.X, Y: -inv.Y, Z: -inv.Z}
	return out
}

// Planar projects the transform onto SE(2), discarding z and keeping yaw.
func (t Transform3) Planar() Pose {
	return Pose{X: t.T.X, Y: t.T.Y, Theta: math.Atan2(t.R[1][0], t.R[0][0])}
}
