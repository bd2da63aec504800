// Package bandcontroller tracks the current trajectory with proportional
// control toward a lookahead state, damped by the measured velocity.
package bandcontroller

import (
	"math"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

func init() {
	navigation.RegisterController("band_tracker", func() navigation.Controller { return &Controller{} })
}

type controllerConfig struct {
	KProp            float64 `json:"k_prop"`
	KDamp            float64 `json:"k_damp"`
	MaxVelX          float64 `json:"max_vel_x"`
	MaxVelY          float64 `json:"max_vel_y"`
	MaxVelTheta      float64 `json:"max_vel_theta"`
	XYGoalTolerance  float64 `json:"xy_goal_tolerance"`
	YawGoalTolerance float64 `json:"yaw_goal_tolerance"`
	MaxDivergence    float64 `json:"max_divergence"`
	LookaheadTime    float64 `json:"lookahead_time"`
}

// Controller is the trajectory tracker.
type Controller struct {
	conf   controllerConfig
	m      *gridmap.LayeredMap
	logger golog.Logger

	trajectory *navigation.Trajectory
	targetI    int
	done       bool
}

// Initialize implements navigation.Controller.
func (c *Controller) Initialize(attrs utils.AttributeMap, m *gridmap.LayeredMap, logger golog.Logger) error {
	c.conf = controllerConfig{
		KProp:            4.0,
		KDamp:            3.5,
		MaxVelX:          0.75,
		MaxVelY:          0.5,
		MaxVelTheta:      1.0,
		XYGoalTolerance:  0.1,
		YawGoalTolerance: 0.05,
		MaxDivergence:    0.6,
		LookaheadTime:    0.5,
	}
	if err := attrs.Decode(&c.conf); err != nil {
		return errors.Wrap(err, "band_tracker")
	}
	if c.conf.XYGoalTolerance <= 0 || c.conf.YawGoalTolerance <= 0 {
		return errors.Errorf("band_tracker: goal tolerances must be positive, got %+v", c.conf)
	}
	c.m = m
	c.logger = logger
	return nil
}

// SetTrajectory implements navigation.Controller.
func (c *Controller) SetTrajectory(trajectory *navigation.Trajectory) {
	c.trajectory = trajectory
	c.targetI = 0
	c.done = false
}

// ClearTrajectory implements navigation.Controller.
func (c *Controller) ClearTrajectory() {
	c.trajectory = nil
	c.targetI = 0
	c.done = false
}

// TrajectoryID implements navigation.Controller.
func (c *Controller) TrajectoryID() (string, bool) {
	if c.trajectory == nil {
		return "", false
	}
	return c.trajectory.ID, true
}

// ComputeControl implements navigation.Controller.
func (c *Controller) ComputeControl(steadyTime, now time.Time, odom msgs.Odometry) navigation.Control {
	failed := navigation.Control{State: navigation.ControlFailed}

	if c.trajectory == nil || len(c.trajectory.States) == 0 {
		return failed
	}
	if c.done {
		// complete is sticky: no further motion on this trajectory
		return navigation.Control{State: navigation.ControlComplete}
	}
	if odom.Header.Stamp.Before(c.trajectory.Stamp) {
		c.logger.Warnw("odometry older than trajectory", "kind", "controller_off_path",
			"odom", odom.Header.Stamp, "trajectory", c.trajectory.Stamp)
		return failed
	}

	robot := odom.Pose
	states := c.trajectory.States

	// the robot must be locatable on the grid; the grid lives in the map
	// frame so an unlocalised robot reads off-map
	if c.m != nil && c.m.Data() != nil {
		dims := c.m.Data().Grid.Dimensions()
		if !dims.Contains(dims.CellIndex(robot.Translation())) {
			c.logger.Warnw("robot is not on the grid", "kind", "controller_off_path",
				"pose", robot.String())
			return failed
		}
	}

	// advance the target monotonically to the closest state, then look ahead
	closest := c.targetI
	closestDist := robot.Distance(states[closest].Pose)
	for i := c.targetI + 1; i < len(states); i++ {
		if d := robot.Distance(states[i].Pose); d <= closestDist {
			closest, closestDist = i, d
		}
	}
	c.targetI = closest

	if closestDist > c.conf.MaxDivergence {
		c.logger.Warnw("robot diverged from trajectory", "kind", "controller_off_path",
			"distance", closestDist)
		return failed
	}

	final := states[len(states)-1]
	if robot.Distance(final.Pose) <= c.conf.XYGoalTolerance &&
		math.Abs(spatial.AngleDiff(robot.Theta, final.Pose.Theta)) <= c.conf.YawGoalTolerance {
		c.done = true
		return navigation.Control{State: navigation.ControlComplete}
	}

	// look ahead along the band by the reference speed
	target := states[closest]
	lookahead := target.Velocity.X * c.conf.LookaheadTime
	acc := 0.0
	for i := closest + 1; i < len(states); i++ {
		acc += states[i-1].Pose.Distance(states[i].Pose)
		target = states[i]
		if acc >= lookahead {
			break
		}
	}

	delta := robot.Inverse().Compose(target.Pose)
	cmd := msgs.Twist{
		LinearX:  c.conf.KProp*delta.X - c.conf.KDamp*odom.Velocity.X,
		LinearY:  c.conf.KProp*delta.Y - c.conf.KDamp*odom.Velocity.Y,
		AngularZ: c.conf.KProp*delta.Theta - c.conf.KDamp*odom.Velocity.Z,
	}

	// cap translation at the band's obstacle-scaled reference speed
	if speed := math.Hypot(cmd.LinearX, cmd.LinearY); target.Velocity.X > 0 && speed > target.Velocity.X {
		scale := target.Velocity.X / speed
		cmd.LinearX *= scale
		cmd.LinearY *= scale
	}
	cmd.LinearX = utils.Clamp(cmd.LinearX, -c.conf.MaxVelX, c.conf.MaxVelX)
	cmd.LinearY = utils.Clamp(cmd.LinearY, -c.conf.MaxVelY, c.conf.MaxVelY)
	cmd.AngularZ = utils.Clamp(cmd.AngularZ, -c.conf.MaxVelTheta, c.conf.MaxVelTheta)

	return navigation.Control{State: navigation.ControlRunning, Cmd: cmd}
}
