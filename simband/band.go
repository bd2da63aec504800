// Package simband is the elastic-band trajectory planner: a moving window of
// the nominal path is relaxed against a local distance field, then converted
// into an odom-frame trajectory with obstacle-scaled speeds.
package simband

import (
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// ControlPoint is a body-frame offset sampled against the distance field.
type ControlPoint struct {
	Offset   spatial.Point
	Distance float64
	Gradient spatial.Point
}

// defaultControlPoints approximate the footprint along the robot's long axis.
var defaultControlPoints = []spatial.Point{
	{X: 0, Y: 0},
	{X: 0.2, Y: 0},
	{X: -0.2, Y: 0},
}

// Node is one bubble of the band.
type Node struct {
	Pose    spatial.Pose
	Control []ControlPoint
	Closest int

	velocity spatial.Point
	angular  float64
}

// NewNode returns a band node with the given control-point offsets.
func NewNode(pose spatial.Pose, offsets []spatial.Point) *Node {
	control := make([]ControlPoint, len(offsets))
	for i, o := range offsets {
		control[i] = ControlPoint{Offset: o}
	}
	return &Node{Pose: pose, Control: control}
}

// MinDistance is the obstacle distance of the closest control point.
func (n *Node) MinDistance() float64 {
	return n.Control[n.Closest].Distance
}

// Radius is the bubble radius: the free distance, floored at minRadius.
func (n *Node) Radius(minRadius float64) float64 {
	if d := n.MinDistance(); d > minRadius {
		return d
	}
	return minRadius
}

// Band is a sequence of bubbles from the robot toward the window end.
type Band struct {
	Nodes []*Node
}

// Length is the sum of consecutive node distances.
func (b *Band) Length() float64 {
	var length float64
	for i := 1; i < len(b.Nodes); i++ {
		length += b.Nodes[i-1].Pose.Distance(b.Nodes[i].Pose)
	}
	return length
}
