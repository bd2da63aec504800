// Package navigation defines the types and plugin contracts shared by the
// path planner, trajectory planner, and controller stages.
package navigation

import (
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// KinodynamicState is a pose with enough velocity to predict short-horizon
// motion. Velocity is (linear x, linear y, angular z) in the body frame.
type KinodynamicState struct {
	Pose     spatial.Pose
	Velocity r3.Vector
}

// Path is an ordered sequence of poses in the map frame with a stable id.
type Path struct {
	ID    string
	Nodes []spatial.Pose
	Cost  float64
}

// NewPath returns a path over the given nodes with a fresh id.
func NewPath(nodes []spatial.Pose) *Path {
	return &Path{ID: uuid.New().String(), Nodes: nodes}
}

// Length returns the sum of consecutive Euclidean distances along the path.
func (p *Path) Length() float64 {
	var length float64
	for i := 1; i < len(p.Nodes); i++ {
		length += p.Nodes[i-1].Distance(p.Nodes[i])
	}
	return length
}

// Trajectory is a short-horizon sequence of kinodynamic states in the odom
// frame, derived from the path identified by PathID.
type Trajectory struct {
	ID     string
	PathID string
	Stamp  time.Time
	States []KinodynamicState
}

// NewTrajectory returns a trajectory with a fresh id.
func NewTrajectory(pathID string, stamp time.Time, states []KinodynamicState) *Trajectory {
	return &Trajectory{ID: uuid.New().String(), PathID: pathID, Stamp: stamp, States: states}
}
