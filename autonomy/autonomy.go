// Package autonomy hosts the navigation supervisor: a goal action server, the
// three-stage planning pipeline (path planner, trajectory planner,
// controller), the odometry listener, and the shared layered map.
package autonomy

import (
	"context"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/transform"
	"github.com/2lambda123/Boeing-modular-navigation/transport"
	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

const consecutiveFailureLimit = 3

// Autonomy is the navigation supervisor.
//
// Lock order, outermost first: goalMu, pathMu, trajectoryMu, robotStateMu,
// then the grid mutex inside the layered map.
type Autonomy struct {
	logger golog.Logger
	conf   Config
	clock  clock.Clock

	bus *transport.Bus
	tf  transform.Buffer

	layeredMap        *gridmap.LayeredMap
	pathPlanner       navigation.PathPlanner
	trajectoryPlanner navigation.TrajectoryPlanner
	controller        navigation.Controller

	goalMu      sync.Mutex
	goal        *GoalHandle
	goalArrived chan struct{}

	pathMu      sync.Mutex
	currentPath *TrackingPath

	trajectoryMu      sync.Mutex
	currentTrajectory *ControlTrajectory

	robotStateMu   sync.Mutex
	robotState     RobotState
	latestOdom     msgs.Odometry
	lastLocalised  time.Time
	robotStateCond *sync.Cond

	controllerDone atomic.Bool

	cancelCtx context.Context
	cancelFn  context.CancelFunc
	workers   sync.WaitGroup

	odomSub *transport.Subscription
}

// Option adjusts supervisor construction.
type Option func(*Autonomy)

// WithClock substitutes the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(a *Autonomy) { a.clock = c }
}

// New builds the supervisor, instantiates the configured plugins, and starts
// the process-lifetime workers. Plugin configuration errors are fatal.
func New(
	conf Config,
	bus *transport.Bus,
	tf transform.Buffer,
	m *gridmap.LayeredMap,
	logger golog.Logger,
	opts ...Option,
) (*Autonomy, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration_invalid")
	}

	cancelCtx, cancelFn := context.WithCancel(context.Background())
	a := &Autonomy{
		logger:      logger,
		conf:        conf,
		clock:       clock.New(),
		bus:         bus,
		tf:          tf,
		layeredMap:  m,
		goalArrived: make(chan struct{}, 1),
		cancelCtx:   cancelCtx,
		cancelFn:    cancelFn,
	}
	a.robotStateCond = sync.NewCond(&a.robotStateMu)
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if a.pathPlanner, err = navigation.NewPathPlanner(conf.PathPlanner.Type); err != nil {
		return nil, err
	}
	if err = a.pathPlanner.Initialize(conf.PathPlanner.Attributes, m, logger); err != nil {
		return nil, errors.Wrap(err, "configuration_invalid")
	}
	if a.trajectoryPlanner, err = navigation.NewTrajectoryPlanner(conf.TrajectoryPlanner.Type); err != nil {
		return nil, err
	}
	if err = a.trajectoryPlanner.Initialize(conf.TrajectoryPlanner.Attributes, m, logger); err != nil {
		return nil, errors.Wrap(err, "configuration_invalid")
	}
	if a.controller, err = navigation.NewController(conf.Controller.Type); err != nil {
		return nil, err
	}
	if err = a.controller.Initialize(conf.Controller.Attributes, m, logger); err != nil {
		return nil, errors.Wrap(err, "configuration_invalid")
	}

	a.odomSub = bus.Subscribe(conf.OdomTopic, 16)

	a.workers.Add(3)
	goutils.PanicCapturingGo(func() {
		defer a.workers.Done()
		a.odomWorker()
	})
	goutils.PanicCapturingGo(func() {
		defer a.workers.Done()
		a.executionWorker()
	})
	goutils.PanicCapturingGo(func() {
		defer a.workers.Done()
		a.mapPublishWorker()
	})

	return a, nil
}

// Close stops all workers, preempting any active goal.
func (a *Autonomy) Close() {
	a.goalMu.Lock()
	if a.goal != nil {
		a.goal.Cancel()
	}
	a.goalMu.Unlock()

	a.cancelFn()
	a.odomSub.Close()
	a.robotStateMu.Lock()
	a.robotStateCond.Broadcast()
	a.robotStateMu.Unlock()
	a.workers.Wait()
}

// SetMap installs a new HD map and notifies the plugins.
func (a *Autonomy) SetMap(info *msgs.MapInfo, occupancy *msgs.OccupancyGrid) error {
	if err := a.layeredMap.SetMap(info, occupancy); err != nil {
		return err
	}
	a.pathPlanner.MapDataChanged()
	a.trajectoryPlanner.MapDataChanged()
	return nil
}

// SendGoal accepts a new goal, preempting any goal in flight.
func (a *Autonomy) SendGoal(target msgs.PoseStamped) *GoalHandle {
	h := newGoalHandle(target)

	a.goalMu.Lock()
	if a.goal != nil {
		a.goal.Cancel()
	}
	a.goal = h
	a.goalMu.Unlock()

	select {
	case a.goalArrived <- struct{}{}:
	default:
	}
	a.logger.Infow("goal accepted", "goal", h.ID, "frame", target.Header.FrameID,
		"pose", target.Pose.String())
	return h
}

// executionWorker serialises goal execution: one goal at a time, woken by
// SendGoal.
func (a *Autonomy) executionWorker() {
	for {
		select {
		case <-a.cancelCtx.Done():
			return
		case <-a.goalArrived:
		}

		a.goalMu.Lock()
		h := a.goal
		a.goalMu.Unlock()
		if h == nil {
			continue
		}
		if state, _ := h.State(); state.terminal() {
			continue
		}

		a.executeGoal(h)

		a.goalMu.Lock()
		if a.goal == h {
			a.goal = nil
		}
		a.goalMu.Unlock()
	}
}

func (a *Autonomy) executeGoal(h *GoalHandle) {
	finalState := GoalAborted
	reason := ""
	defer func() {
		a.publishZeroTwist()
		a.clearGoalState()
		h.setState(finalState, reason)
		a.logger.Infow("goal finished", "goal", h.ID, "state", finalState.String(), "reason", reason)
	}()

	if !h.Target.Header.Stamp.IsZero() &&
		a.clock.Now().Sub(h.Target.Header.Stamp) > a.secondsDuration(a.conf.GoalStaleTimeout) {
		reason = "stale_goal"
		return
	}

	goalPose, err := a.transformGoal(h)
	if err != nil {
		a.logger.Warnw("cannot transform goal", "goal", h.ID, "kind", "transform_unavailable", "error", err)
		reason = "transform_unavailable"
		return
	}
	h.setState(GoalPlanning, "")

	// free the robot's immediate surroundings once on entry to planning
	if robot, ok := a.robotPoseInMap(); ok {
		a.layeredMap.ClearRadius(robot, a.conf.ClearRadius)
	}

	a.clearGoalState()
	a.controllerDone.Store(false)

	runCtx, cancel := context.WithCancel(a.cancelCtx)
	defer cancel()
	abort := make(chan string, consecutiveFailureLimit)

	var wg sync.WaitGroup
	wg.Add(3)
	goutils.PanicCapturingGo(func() {
		defer wg.Done()
		a.pathPlannerThread(runCtx, goalPose, abort)
	})
	goutils.PanicCapturingGo(func() {
		defer wg.Done()
		a.trajectoryPlannerThread(runCtx, abort)
	})
	goutils.PanicCapturingGo(func() {
		defer wg.Done()
		a.controllerThread(runCtx, abort)
	})
	defer wg.Wait()
	defer cancel()

	ticker := a.clock.Ticker(a.frequencyPeriod(a.conf.ControllerFrequency))
	defer ticker.Stop()
	executionStart := a.clock.Now()

	for {
		select {
		case <-a.cancelCtx.Done():
			finalState, reason = GoalPreempted, "shutdown"
			return
		case <-h.cancelRequested():
			finalState, reason = GoalPreempted, "preempted"
			return
		case reason = <-abort:
			finalState = GoalAborted
			return
		case <-ticker.C:
			if a.controllerDone.Load() {
				finalState = GoalSucceeded
				return
			}

			a.pathMu.Lock()
			hasPath := a.currentPath != nil
			a.pathMu.Unlock()
			if hasPath {
				h.setState(GoalExecuting, "")
			}

			a.robotStateMu.Lock()
			localised := a.robotState.Localised
			lastLocalised := a.lastLocalised
			a.robotStateMu.Unlock()
			if lastLocalised.Before(executionStart) {
				lastLocalised = executionStart
			}
			if !localised && a.clock.Now().Sub(lastLocalised) > a.secondsDuration(a.conf.LocalisationTimeout) {
				a.logger.Warnw("localisation lost", "goal", h.ID, "kind", "transform_unavailable")
				finalState, reason = GoalAborted, "transform_unavailable"
				return
			}
		}
	}
}

// transformGoal resolves the goal pose into the map frame, retrying until the
// localisation timeout.
func (a *Autonomy) transformGoal(h *GoalHandle) (spatial.Pose, error) {
	if h.Target.Header.FrameID == "" || h.Target.Header.FrameID == a.conf.GlobalFrame {
		return h.Target.Pose, nil
	}

	deadline := a.clock.Now().Add(a.secondsDuration(a.conf.LocalisationTimeout))
	for {
		tf, err := a.tf.Lookup(a.conf.GlobalFrame, h.Target.Header.FrameID, h.Target.Header.Stamp)
		if err == nil {
			return tf.Planar().Compose(h.Target.Pose), nil
		}
		if !a.clock.Now().Before(deadline) {
			return spatial.Pose{}, err
		}
		select {
		case <-a.cancelCtx.Done():
			return spatial.Pose{}, err
		case <-h.cancelRequested():
			return spatial.Pose{}, errors.New("goal cancelled")
		case <-a.clock.After(100 * time.Millisecond):
		}
	}
}

// pathPlannerThread runs the global planner at its tick rate, adopting or
// swapping the tracking path.
func (a *Autonomy) pathPlannerThread(ctx context.Context, goal spatial.Pose, abort chan<- string) {
	ticker := a.clock.Ticker(a.frequencyPeriod(a.conf.PathPlannerFrequency))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		robot, ok := a.robotPoseInMap()
		if !ok {
			continue
		}

		result := a.pathPlanner.Plan(robot, goal)
		now := a.clock.Now()
		if result.Outcome != navigation.PathSuccessful {
			failures++
			a.logger.Warnw("path planning failed", "kind", "planning_budget_exceeded",
				"tick", now, "failures", failures)
			if failures >= consecutiveFailureLimit {
				sendAbort(abort, "planning_budget_exceeded")
				return
			}
			continue
		}
		failures = 0

		a.pathMu.Lock()
		if a.currentPath == nil {
			a.currentPath = &TrackingPath{
				Goal:               goal,
				StartTime:          now,
				StartCost:          result.Cost,
				LastSuccessfulTime: now,
				LastSuccessfulCost: result.Cost,
				Path:               result.Path,
			}
			a.logger.Infow("path adopted", "path", result.Path.ID, "cost", result.Cost)
		} else {
			oldCost := a.pathPlanner.Cost(a.currentPath.Path)
			if oldCost < math.MaxFloat64 {
				a.currentPath.LastSuccessfulTime = now
				a.currentPath.LastSuccessfulCost = oldCost
			}
			persistenceExpired := now.Sub(a.currentPath.LastSuccessfulTime) >
				a.secondsDuration(a.conf.PathPersistenceTime)
			if result.Cost < a.conf.PathSwapFraction*oldCost || persistenceExpired {
				a.logger.Infow("path swapped", "path", result.Path.ID,
					"new_cost", result.Cost, "old_cost", oldCost, "persistence_expired", persistenceExpired)
				a.currentPath = &TrackingPath{
					Goal:               goal,
					StartTime:          now,
					StartCost:          result.Cost,
					LastSuccessfulTime: now,
					LastSuccessfulCost: result.Cost,
					Path:               result.Path,
				}
			}
		}
		a.pathMu.Unlock()
	}
}

// trajectoryPlannerThread refines the tracking path into trajectories over a
// local region around the robot.
func (a *Autonomy) trajectoryPlannerThread(ctx context.Context, abort chan<- string) {
	ticker := a.clock.Ticker(a.frequencyPeriod(a.conf.TrajectoryPlannerFrequency))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		a.pathMu.Lock()
		tp := a.currentPath
		a.pathMu.Unlock()
		if tp == nil {
			continue
		}

		if id, ok := a.trajectoryPlanner.PathID(); !ok || id != tp.Path.ID {
			if !a.trajectoryPlanner.SetPath(tp.Path) {
				continue
			}
		}

		a.robotStateMu.Lock()
		rs := a.robotState
		a.robotStateMu.Unlock()
		if !rs.Localised {
			continue
		}

		result := a.trajectoryPlanner.Plan(a.localRegion(rs), rs.State, rs.MapToOdom)
		if result.Outcome == navigation.TrajectoryFailed {
			failures++
			a.logger.Warnw("trajectory planning failed", "kind", "band_collision",
				"tick", a.clock.Now(), "failures", failures)
			if failures >= consecutiveFailureLimit {
				sendAbort(abort, "band_collision")
				return
			}
			continue
		}
		failures = 0

		goalTrajectory := result.Outcome == navigation.TrajectorySuccessful &&
			result.PathEndI >= len(tp.Path.Nodes)-1
		a.trajectoryMu.Lock()
		a.currentTrajectory = &ControlTrajectory{
			GoalTrajectory: goalTrajectory,
			Trajectory:     result.Trajectory,
		}
		a.trajectoryMu.Unlock()
	}
}

// controllerThread turns the current trajectory into velocity commands.
func (a *Autonomy) controllerThread(ctx context.Context, abort chan<- string) {
	ticker := a.clock.Ticker(a.frequencyPeriod(a.conf.ControllerFrequency))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		a.trajectoryMu.Lock()
		ct := a.currentTrajectory
		a.trajectoryMu.Unlock()
		if ct == nil {
			continue
		}

		if id, ok := a.controller.TrajectoryID(); !ok || id != ct.Trajectory.ID {
			a.controller.SetTrajectory(ct.Trajectory)
		}

		a.robotStateMu.Lock()
		odom := a.latestOdom
		a.robotStateMu.Unlock()

		now := a.clock.Now()
		control := a.controller.ComputeControl(now, now, odom)
		switch control.State {
		case navigation.ControlRunning:
			failures = 0
			a.bus.Publish(a.conf.CmdVelTopic, control.Cmd)
		case navigation.ControlComplete:
			failures = 0
			a.publishZeroTwist()
			if ct.GoalTrajectory {
				a.controllerDone.Store(true)
			}
		case navigation.ControlFailed:
			failures++
			a.publishZeroTwist()
			a.logger.Warnw("control failed", "kind", "controller_off_path",
				"tick", now, "failures", failures)
			// force a trajectory reset
			a.controller.ClearTrajectory()
			a.trajectoryMu.Lock()
			if a.currentTrajectory == ct {
				a.currentTrajectory = nil
			}
			a.trajectoryMu.Unlock()
			if failures >= consecutiveFailureLimit {
				sendAbort(abort, "controller_off_path")
				return
			}
		}
	}
}

// odomWorker is the single producer of the shared robot state.
func (a *Autonomy) odomWorker() {
	for raw := range a.odomSub.C {
		odom, ok := raw.(msgs.Odometry)
		if !ok {
			continue
		}

		tf, err := a.tf.Lookup(a.conf.GlobalFrame, a.conf.OdomFrame, odom.Header.Stamp)

		a.robotStateMu.Lock()
		a.latestOdom = odom
		a.robotState.Time = a.clock.Now()
		a.robotState.State = navigation.KinodynamicState{Pose: odom.Pose, Velocity: odom.Velocity}
		if err != nil {
			a.robotState.Localised = false
		} else {
			a.robotState.Localised = true
			a.robotState.MapToOdom = tf.Planar()
			a.lastLocalised = a.clock.Now()
		}
		a.robotStateCond.Broadcast()
		a.robotStateMu.Unlock()

		if err != nil {
			a.logger.Debugw("odometry without localisation", "kind", "transform_unavailable", "error", err)
		}
	}
}

// mapPublishWorker publishes full grid snapshots at the configured rate with
// robot-vicinity updates in between.
func (a *Autonomy) mapPublishWorker() {
	ticker := a.clock.Ticker(a.frequencyPeriod(a.conf.MapPublishFrequency * 4))
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-a.cancelCtx.Done():
			return
		case <-ticker.C:
		}
		if a.layeredMap.Data() == nil {
			continue
		}
		grid := a.layeredMap.Data().Grid

		if tick%4 == 0 {
			a.bus.Publish(a.conf.CostmapTopic, grid.SnapshotMessage(a.conf.GlobalFrame, a.clock.Now()))
		} else {
			a.robotStateMu.Lock()
			rs := a.robotState
			a.robotStateMu.Unlock()
			if rs.Localised {
				a.bus.Publish(a.conf.CostmapUpdateTopic,
					grid.RegionMessage(a.localRegion(rs), a.conf.GlobalFrame, a.clock.Now()))
			}
		}
		tick++
	}
}

// localRegion is the clear-radius cell box around the robot.
func (a *Autonomy) localRegion(rs RobotState) image.Rectangle {
	dims := a.layeredMap.Data().Grid.Dimensions()
	robot := rs.MapToOdom.Compose(rs.State.Pose)
	c := dims.CellIndex(robot.Translation())
	half := int(a.conf.ClearRadius / dims.Resolution())
	return image.Rect(c.X-half, c.Y-half, c.X+half+1, c.Y+half+1)
}

// robotPoseInMap returns the robot pose in the map frame, if localised.
func (a *Autonomy) robotPoseInMap() (spatial.Pose, bool) {
	a.robotStateMu.Lock()
	defer a.robotStateMu.Unlock()
	if !a.robotState.Localised {
		return spatial.Pose{}, false
	}
	return a.robotState.MapToOdom.Compose(a.robotState.State.Pose), true
}

func (a *Autonomy) clearGoalState() {
	a.pathMu.Lock()
	a.currentPath = nil
	a.pathMu.Unlock()
	a.trajectoryMu.Lock()
	a.currentTrajectory = nil
	a.trajectoryMu.Unlock()
	a.trajectoryPlanner.ClearPath()
	a.controller.ClearTrajectory()
}

func (a *Autonomy) publishZeroTwist() {
	a.bus.Publish(a.conf.CmdVelTopic, msgs.Twist{})
}

func (a *Autonomy) frequencyPeriod(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

func (a *Autonomy) secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func sendAbort(abort chan<- string, reason string) {
	select {
	case abort <- reason:
	default:
	}
}
