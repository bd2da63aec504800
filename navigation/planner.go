package navigation

import (
	"image"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
)

// PathOutcome reports whether path planning produced a usable path.
type PathOutcome int

// Path planning outcomes.
const (
	PathFailed PathOutcome = iota
	PathSuccessful
)

// PathPlanResult is the result of one PathPlanner.Plan call.
type PathPlanResult struct {
	Outcome PathOutcome
	Path    *Path
	Cost    float64
}

// PathPlanner turns a start and goal pose into a path over a snapshot of the
// layered map.
//
// Valid and Cost may reuse internal state from the most recent Plan call;
// callers must not interleave calls across planner instances.
type PathPlanner interface {
	Initialize(attrs utils.AttributeMap, m *gridmap.LayeredMap, logger golog.Logger) error
	MapDataChanged()

	Plan(start, goal spatial.Pose) PathPlanResult
	Valid(path *Path) bool
	Cost(path *Path) float64
}

// TrajectoryOutcome reports the quality of a trajectory planning tick.
type TrajectoryOutcome int

// Trajectory planning outcomes.
const (
	TrajectoryFailed TrajectoryOutcome = iota
	TrajectoryPartial
	TrajectorySuccessful
)

// TrajectoryPlanResult is the result of one TrajectoryPlanner.Plan call.
// PathStartI and PathEndI locate the planned window on the nominal path.
type TrajectoryPlanResult struct {
	Outcome    TrajectoryOutcome
	Trajectory *Trajectory
	PathStartI int
	PathEndI   int
	Cost       float64
}

// TrajectoryPlanner refines a window of the current path into a short-horizon
// trajectory in the odom frame.
type TrajectoryPlanner interface {
	Initialize(attrs utils.AttributeMap, m *gridmap.LayeredMap, logger golog.Logger) error
	MapDataChanged()

	SetPath(path *Path) bool
	ClearPath()
	PathID() (string, bool)

	Plan(localRegion image.Rectangle, robotState KinodynamicState, mapToOdom spatial.Pose) TrajectoryPlanResult
}

// ControlState is the controller's report for one control tick.
type ControlState int

// Control states.
const (
	ControlFailed ControlState = iota
	ControlRunning
	ControlComplete
)

// Control is a velocity command paired with the controller state.
type Control struct {
	State ControlState
	Cmd   msgs.Twist
}

// Controller tracks the current trajectory and emits velocity commands.
//
// After returning ControlComplete for a trajectory, ComputeControl must not
// produce motion for that trajectory again.
type Controller interface {
	Initialize(attrs utils.AttributeMap, m *gridmap.LayeredMap, logger golog.Logger) error

	SetTrajectory(trajectory *Trajectory)
	ClearTrajectory()
	TrajectoryID() (string, bool)

	ComputeControl(steadyTime, now time.Time, odom msgs.Odometry) Control
}
