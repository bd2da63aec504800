package autonomy

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/transform"
	"github.com/2lambda123/Boeing-modular-navigation/transport"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"
)

// The fake plugins below stand in for the real planner plugins so the
// supervisor's state machine can be driven deterministically.

type fakePathPlanner struct {
	mu          sync.Mutex
	failAll     bool
	planCost    float64
	recostValue float64
	plans       int
}

func (f *fakePathPlanner) Initialize(utils.AttributeMap, *gridmap.LayeredMap, golog.Logger) error {
	return nil
}
func (f *fakePathPlanner) MapDataChanged() {}
func (f *fakePathPlanner) Plan(start, goal spatial.Pose) navigation.PathPlanResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans++
	if f.failAll {
		return navigation.PathPlanResult{Outcome: navigation.PathFailed}
	}
	var nodes []spatial.Pose
	const steps = 20
	for i := 0; i <= steps; i++ {
		nodes = append(nodes, start.Lerp(goal, float64(i)/steps))
	}
	path := navigation.NewPath(nodes)
	path.Cost = f.planCost
	return navigation.PathPlanResult{Outcome: navigation.PathSuccessful, Path: path, Cost: f.planCost}
}
func (f *fakePathPlanner) Valid(*navigation.Path) bool { return true }
func (f *fakePathPlanner) Cost(*navigation.Path) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recostValue
}
func (f *fakePathPlanner) setPlanCost(c float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planCost = c
}

type fakeTrajectoryPlanner struct {
	mu      sync.Mutex
	failAll bool
	path    *navigation.Path
	pathIDs []string
}

func (f *fakeTrajectoryPlanner) Initialize(utils.AttributeMap, *gridmap.LayeredMap, golog.Logger) error {
	return nil
}
func (f *fakeTrajectoryPlanner) MapDataChanged() {}
func (f *fakeTrajectoryPlanner) SetPath(path *navigation.Path) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = path
	f.pathIDs = append(f.pathIDs, path.ID)
	return true
}
func (f *fakeTrajectoryPlanner) ClearPath() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = nil
}
func (f *fakeTrajectoryPlanner) PathID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.path == nil {
		return "", false
	}
	return f.path.ID, true
}
func (f *fakeTrajectoryPlanner) Plan(
	_ image.Rectangle,
	_ navigation.KinodynamicState,
	mapToOdom spatial.Pose,
) navigation.TrajectoryPlanResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.path == nil {
		return navigation.TrajectoryPlanResult{Outcome: navigation.TrajectoryFailed}
	}
	odomToMap := mapToOdom.Inverse()
	states := make([]navigation.KinodynamicState, 0, len(f.path.Nodes))
	for _, n := range f.path.Nodes {
		states = append(states, navigation.KinodynamicState{
			Pose:     odomToMap.Compose(n),
			Velocity: r3.Vector{X: 0.5},
		})
	}
	return navigation.TrajectoryPlanResult{
		Outcome:    navigation.TrajectorySuccessful,
		Trajectory: navigation.NewTrajectory(f.path.ID, time.Now(), states),
		PathEndI:   len(f.path.Nodes) - 1,
	}
}
func (f *fakeTrajectoryPlanner) seenPathIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.pathIDs...)
}

type fakeController struct {
	mu            sync.Mutex
	alwaysRunning bool
	failAll       bool
	trajectory    *navigation.Trajectory
}

func (f *fakeController) Initialize(utils.AttributeMap, *gridmap.LayeredMap, golog.Logger) error {
	return nil
}
func (f *fakeController) SetTrajectory(trajectory *navigation.Trajectory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trajectory = trajectory
}
func (f *fakeController) ClearTrajectory() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trajectory = nil
}
func (f *fakeController) TrajectoryID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trajectory == nil {
		return "", false
	}
	return f.trajectory.ID, true
}
func (f *fakeController) ComputeControl(_, _ time.Time, _ msgs.Odometry) navigation.Control {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return navigation.Control{State: navigation.ControlFailed}
	}
	if f.alwaysRunning {
		return navigation.Control{State: navigation.ControlRunning, Cmd: msgs.Twist{LinearX: 0.2}}
	}
	return navigation.Control{State: navigation.ControlComplete}
}

// one registration for the whole test binary; tests swap the shared instances
var fakes struct {
	mu   sync.Mutex
	path *fakePathPlanner
	traj *fakeTrajectoryPlanner
	ctrl *fakeController
}

func init() {
	navigation.RegisterPathPlanner("fake_path", func() navigation.PathPlanner {
		fakes.mu.Lock()
		defer fakes.mu.Unlock()
		return fakes.path
	})
	navigation.RegisterTrajectoryPlanner("fake_traj", func() navigation.TrajectoryPlanner {
		fakes.mu.Lock()
		defer fakes.mu.Unlock()
		return fakes.traj
	})
	navigation.RegisterController("fake_ctrl", func() navigation.Controller {
		fakes.mu.Lock()
		defer fakes.mu.Unlock()
		return fakes.ctrl
	})
}

func installFakes(path *fakePathPlanner, traj *fakeTrajectoryPlanner, ctrl *fakeController) {
	fakes.mu.Lock()
	defer fakes.mu.Unlock()
	fakes.path, fakes.traj, fakes.ctrl = path, traj, ctrl
}

type testEnv struct {
	a   *Autonomy
	bus *transport.Bus
	tf  *transform.StaticBuffer

	cmdVel *transport.Subscription

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func testConfig() Config {
	conf := DefaultConfig()
	conf.PathPlannerFrequency = 50
	conf.TrajectoryPlannerFrequency = 50
	conf.ControllerFrequency = 100
	conf.MapPublishFrequency = 10
	conf.ClearRadius = 1.0
	conf.LocalisationTimeout = 0.3
	conf.PathPersistenceTime = 60 // keep the persistence rule out of swap tests
	conf.PathPlanner = PluginConfig{Type: "fake_path"}
	conf.TrajectoryPlanner = PluginConfig{Type: "fake_traj"}
	conf.Controller = PluginConfig{Type: "fake_ctrl"}
	return conf
}

// newTestEnv starts a supervisor over an empty 10x10 m map with an odometry
// pump at the given pose. localise=false withholds the map->odom transform.
func newTestEnv(t *testing.T, conf Config, pose spatial.Pose, localise bool) *testEnv {
	t.Helper()
	logger := golog.NewTestLogger(t)
	bus := transport.NewBus()
	tf := transform.NewStaticBuffer(1024)

	info := &msgs.MapInfo{
		Name: "test",
		Meta: msgs.MapMetaData{
			Resolution: 0.05,
			Width:      200,
			Height:     200,
			Origin:     spatial.NewPose(-5, -5, 0),
		},
	}
	occ := &msgs.OccupancyGrid{Info: info.Meta, Data: make([]int8, 200*200)}
	m, err := gridmap.NewLayeredMap(conf.Map, &gridmap.BaseMapLayer{}, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.SetMap(info, occ), test.ShouldBeNil)

	a, err := New(conf, bus, tf, m, logger)
	test.That(t, err, test.ShouldBeNil)

	env := &testEnv{a: a, bus: bus, tf: tf}
	env.cmdVel = bus.Subscribe(conf.CmdVelTopic, 256)

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	env.wg.Add(1)
	go func() {
		defer env.wg.Done()
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stamp := time.Now()
				if localise {
					tf.Set(conf.GlobalFrame, conf.OdomFrame, stamp, spatial.Identity3())
				}
				bus.Publish(conf.OdomTopic, msgs.Odometry{
					Header:       msgs.Header{Stamp: stamp, FrameID: conf.OdomFrame},
					ChildFrameID: conf.RobotFrame,
					Pose:         pose,
				})
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		env.wg.Wait()
		a.Close()
	})
	return env
}

func mapGoal(x, y, theta float64) msgs.PoseStamped {
	return msgs.PoseStamped{
		Header: msgs.Header{Stamp: time.Now(), FrameID: "map"},
		Pose:   spatial.NewPose(x, y, theta),
	}
}

func waitForState(t *testing.T, h *GoalHandle, want GoalState) {
	t.Helper()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		state, _ := h.State()
		test.That(tb, state, test.ShouldEqual, want)
	})
}

func waitDone(t *testing.T, h *GoalHandle) (GoalState, string) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("goal did not finish")
	}
	return h.State()
}

// drainLastTwist returns the most recent velocity command.
func (env *testEnv) drainLastTwist(t *testing.T) msgs.Twist {
	t.Helper()
	var last msgs.Twist
	seen := false
	for {
		select {
		case raw := <-env.cmdVel.C:
			last = raw.(msgs.Twist)
			seen = true
		default:
			if !seen {
				t.Fatal("no velocity command published")
			}
			return last
		}
	}
}

func TestGoalSucceeds(t *testing.T) {
	installFakes(&fakePathPlanner{planCost: 10, recostValue: 10}, &fakeTrajectoryPlanner{}, &fakeController{})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	h := env.a.SendGoal(mapGoal(2, 0, 0))
	state, reason := waitDone(t, h)
	test.That(t, state, test.ShouldEqual, GoalSucceeded)
	test.That(t, reason, test.ShouldEqual, "")

	// the final published command is a zero twist
	time.Sleep(50 * time.Millisecond)
	test.That(t, env.drainLastTwist(t), test.ShouldResemble, msgs.Twist{})
}

func TestPreemption(t *testing.T) {
	installFakes(&fakePathPlanner{planCost: 10, recostValue: 10}, &fakeTrajectoryPlanner{}, &fakeController{alwaysRunning: true})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	h := env.a.SendGoal(mapGoal(2, 0, 0))
	waitForState(t, h, GoalExecuting)

	h.Cancel()
	state, reason := waitDone(t, h)
	test.That(t, state, test.ShouldEqual, GoalPreempted)
	test.That(t, reason, test.ShouldEqual, "preempted")

	time.Sleep(50 * time.Millisecond)
	test.That(t, env.drainLastTwist(t), test.ShouldResemble, msgs.Twist{})
}

func TestNewGoalPreemptsOld(t *testing.T) {
	installFakes(&fakePathPlanner{planCost: 10, recostValue: 10}, &fakeTrajectoryPlanner{}, &fakeController{alwaysRunning: true})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	first := env.a.SendGoal(mapGoal(2, 0, 0))
	waitForState(t, first, GoalExecuting)

	second := env.a.SendGoal(mapGoal(-2, 0, 0))
	state, _ := waitDone(t, first)
	test.That(t, state, test.ShouldEqual, GoalPreempted)

	waitForState(t, second, GoalExecuting)
	second.Cancel()
	waitDone(t, second)
}

func TestLocalisationLossAborts(t *testing.T) {
	installFakes(&fakePathPlanner{planCost: 10, recostValue: 10}, &fakeTrajectoryPlanner{}, &fakeController{alwaysRunning: true})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), false)

	start := time.Now()
	h := env.a.SendGoal(mapGoal(2, 0, 0))
	state, reason := waitDone(t, h)
	test.That(t, state, test.ShouldEqual, GoalAborted)
	test.That(t, reason, test.ShouldEqual, "transform_unavailable")
	// the abort fires at the localisation timeout, not immediately
	test.That(t, time.Since(start), test.ShouldBeGreaterThan, 250*time.Millisecond)
}

func TestStaleGoalAborts(t *testing.T) {
	installFakes(&fakePathPlanner{planCost: 10, recostValue: 10}, &fakeTrajectoryPlanner{}, &fakeController{})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	goal := mapGoal(2, 0, 0)
	goal.Header.Stamp = time.Now().Add(-time.Minute)
	h := env.a.SendGoal(goal)
	state, reason := waitDone(t, h)
	test.That(t, state, test.ShouldEqual, GoalAborted)
	test.That(t, reason, test.ShouldEqual, "stale_goal")
}

func TestRepeatedPlanningFailureAborts(t *testing.T) {
	installFakes(&fakePathPlanner{failAll: true}, &fakeTrajectoryPlanner{}, &fakeController{})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	h := env.a.SendGoal(mapGoal(2, 0, 0))
	state, reason := waitDone(t, h)
	test.That(t, state, test.ShouldEqual, GoalAborted)
	test.That(t, reason, test.ShouldEqual, "planning_budget_exceeded")
}

func TestPathSwapOnCheaperPath(t *testing.T) {
	pathPlanner := &fakePathPlanner{planCost: 10, recostValue: 10}
	trajPlanner := &fakeTrajectoryPlanner{}
	installFakes(pathPlanner, trajPlanner, &fakeController{alwaysRunning: true})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	h := env.a.SendGoal(mapGoal(2, 0, 0))
	waitForState(t, h, GoalExecuting)

	// a much cheaper plan appears; the swap rule must adopt it and the
	// trajectory planner must observe the new path id
	pathPlanner.setPlanCost(1)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		ids := trajPlanner.seenPathIDs()
		test.That(tb, len(ids), test.ShouldBeGreaterThanOrEqualTo, 2)
		test.That(tb, ids[len(ids)-1], test.ShouldNotEqual, ids[0])
	})

	h.Cancel()
	waitDone(t, h)
}

func TestGoalTransformedFromOtherFrame(t *testing.T) {
	installFakes(&fakePathPlanner{planCost: 10, recostValue: 10}, &fakeTrajectoryPlanner{}, &fakeController{})
	env := newTestEnv(t, testConfig(), spatial.NewPose(0, 0, 0), true)

	stamp := time.Now()
	env.tf.Set("map", "workspace", stamp, spatial.NewTransform3FromPose(spatial.NewPose(1, 1, 0)))

	h := env.a.SendGoal(msgs.PoseStamped{
		Header: msgs.Header{Stamp: stamp, FrameID: "workspace"},
		Pose:   spatial.NewPose(1, 0, 0),
	})
	state, _ := waitDone(t, h)
	test.That(t, state, test.ShouldEqual, GoalSucceeded)
}

func TestInvalidConfigRejected(t *testing.T) {
	conf := testConfig()
	conf.PathSwapFraction = 2.0
	_, err := New(conf, transport.NewBus(), transform.NewStaticBuffer(0), nil, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
