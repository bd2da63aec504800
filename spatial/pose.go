// Package spatial provides the planar rigid-transform math used by the
// navigation stack. Poses are elements of SE(2); angles are radians.
package spatial

import (
	"fmt"
	"math"
)

// Point is a 2D point or vector in metres.
type Point struct {
	X float64
	Y float64
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y}
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dot returns the dot product of p and o.
func (p Point) Dot(o Point) float64 {
	return p.X*o.X + p.Y*o.Y
}

// Pose is a planar rigid transform: a translation plus a heading.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// NewPose returns the pose at (x, y) with heading theta.
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: NormalizeAngle(theta)}
}

// Compose returns the transform p * o.
func (p Pose) Compose(o Pose) Pose {
	sin, cos := math.Sincos(p.Theta)
	return Pose{
		X:     p.X + cos*o.X - sin*o.Y,
		Y:     p.Y + sin*o.X + cos*o.Y,
		Theta: NormalizeAngle(p.Theta + o.Theta),
	}
}

// Inverse returns the transform q such that p * q is identity.
func (p Pose) Inverse() Pose {
	sin, cos := math.Sincos(p.Theta)
	return Pose{
		X:     -cos*p.X - sin*p.Y,
		Y:     sin*p.X - cos*p.Y,
		Theta: NormalizeAngle(-p.Theta),
	}
}

// TransformPoint applies p to a point in p's local frame.
func (p Pose) TransformPoint(pt Point) Point {
	sin, cos := math.Sincos(p.Theta)
	return Point{
		X: p.X + cos*pt.X - sin*pt.Y,
		Y: p.Y + sin*pt.X + cos*pt.Y,
	}
}

// RotatePoint applies only the rotation of p to a vector.
func (p Pose) RotatePoint(pt Point) Point {
	sin, cos := math.Sincos(p.Theta)
	return Point{
		X: cos*pt.X - sin*pt.Y,
		Y: sin*pt.X + cos*pt.Y,
	}
}

// Translation returns the translational part of p.
func (p Pose) Translation() Point {
	return Point{p.X, p.Y}
}

// Distance returns the Euclidean distance between the translations of p and o.
func (p Pose) Distance(o Pose) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Lerp interpolates between p and o by fraction t in [0, 1], taking the
// shortest rotation between the two headings.
func (p Pose) Lerp(o Pose, t float64) Pose {
	return Pose{
		X:     p.X + (o.X-p.X)*t,
		Y:     p.Y + (o.Y-p.Y)*t,
		Theta: NormalizeAngle(p.Theta + AngleDiff(p.Theta, o.Theta)*t),
	}
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Theta)
}

// NormalizeAngle wraps an angle to (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the smallest signed rotation from a to b.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(b - a)
}
