package autonomy

import (
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// TrackingPath is the path the supervisor is currently following, with the
// bookkeeping the swap rule needs.
type TrackingPath struct {
	// transformed goal in the map frame
	Goal spatial.Pose

	StartTime time.Time
	StartCost float64

	// re-calculation of cost
	LastSuccessfulTime time.Time
	LastSuccessfulCost float64

	Path *navigation.Path
}

// ControlTrajectory is the trajectory the controller executes; GoalTrajectory
// marks a trajectory whose final state reaches the goal.
type ControlTrajectory struct {
	GoalTrajectory bool
	Trajectory     *navigation.Trajectory
}

// RobotState is the shared odometry-derived state, updated on every odometry
// message and read by all three planning threads.
type RobotState struct {
	Time  time.Time
	State navigation.KinodynamicState

	// Localised is true while the map->odom transform resolves
	Localised bool
	MapToOdom spatial.Pose
}
