package simband

import (
	"image"
	"testing"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func testMap(t *testing.T) *gridmap.LayeredMap {
	t.Helper()
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
	m, err := gridmap.NewLayeredMap(gridmap.DefaultLayeredMapConfig(), &gridmap.BaseMapLayer{}, nil, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.SetMap(info, occ), test.ShouldBeNil)
	return m
}

func occupySquare(m *gridmap.LayeredMap, cx, cy, hw float64) {
	grid := m.Data().Grid
	dims := grid.Dimensions()
	min := dims.CellIndex(spatial.Point{X: cx - hw, Y: cy - hw})
	max := dims.CellIndex(spatial.Point{X: cx + hw, Y: cy + hw})
	grid.Lock()
	defer grid.Unlock()
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			c := image.Point{x, y}
			if dims.Contains(c) {
				grid.Set(c, grid.MaxLog())
			}
		}
	}
}

func straightPath(x0, x1, y float64) *navigation.Path {
	var nodes []spatial.Pose
	for x := x0; x <= x1; x += 0.1 {
		nodes = append(nodes, spatial.NewPose(x, y, 0))
	}
	return navigation.NewPath(nodes)
}

func newBandPlanner(t *testing.T, m *gridmap.LayeredMap, attrs utils.AttributeMap) *SimBandPlanner {
	t.Helper()
	p := &SimBandPlanner{}
	if attrs == nil {
		attrs = utils.AttributeMap{"robot_radius": 0.3}
	}
	test.That(t, p.Initialize(attrs, m, golog.NewTestLogger(t)), test.ShouldBeNil)
	return p
}

func TestDistanceField(t *testing.T) {
	m := testMap(t)
	occupySquare(m, 0, 0, 0.5)

	df := NewDistanceField(m.Data().Grid, m.Data().Grid.Dimensions().Bounds(), 0.3)

	// inside the obstacle the robot overlaps
	test.That(t, df.Distance(spatial.Point{X: 0, Y: 0}), test.ShouldBeLessThan, 0)
	// two metres away there is clearance
	test.That(t, df.Distance(spatial.Point{X: 2.5, Y: 0}), test.ShouldBeGreaterThan, 1.0)

	// gradient points away from the obstacle
	g := df.Gradient(spatial.Point{X: 1.0, Y: 0})
	test.That(t, g.X, test.ShouldBeGreaterThan, 0.5)
}

func TestSimulatePullsBandOffObstacle(t *testing.T) {
	m := testMap(t)
	occupySquare(m, 0, 0.3, 0.25)

	df := NewDistanceField(m.Data().Grid, m.Data().Grid.Dimensions().Bounds(), 0.2)

	band := &Band{}
	for x := -1.0; x <= 1.01; x += 0.2 {
		band.Nodes = append(band.Nodes, NewNode(spatial.NewPose(x, 0, 0), defaultControlPoints))
	}
	updateDistances(band, df, 0.25)
	before := band.Nodes[len(band.Nodes)/2].MinDistance()

	simulate(band, df, simParams{
		Iterations:    60,
		MinOverlap:    0.7,
		MinDistance:   0.02,
		InternalGain:  0.002,
		ExternalGain:  0.02,
		VelocityDecay: 0.6,
		Alpha:         1.0,
		AlphaDecay:    0.99,
		MaxDistance:   0.25,
	})

	var minAfter float64 = 1e9
	for _, n := range band.Nodes[1 : len(band.Nodes)-1] {
		if d := n.MinDistance(); d < minAfter {
			minAfter = d
		}
	}
	test.That(t, minAfter, test.ShouldBeGreaterThan, before)
}

func TestMovingWindowAdvances(t *testing.T) {
	path := straightPath(0, 5, 0)
	w := NewMovingWindow(path, defaultControlPoints)

	w.Update(spatial.NewPose(0, 0, 0), 1.0)
	test.That(t, len(w.Window.Nodes), test.ShouldBeGreaterThan, 0)
	firstEnd := w.EndI

	w.Update(spatial.NewPose(2, 0, 0), 1.0)
	test.That(t, w.EndI, test.ShouldBeGreaterThan, firstEnd)
	// window front follows the robot
	test.That(t, w.Window.Nodes[0].Pose.X, test.ShouldBeGreaterThan, 0.9)
}

func TestPlanProducesTrajectory(t *testing.T) {
	m := testMap(t)
	p := newBandPlanner(t, m, nil)

	path := straightPath(0, 4, 0)
	test.That(t, p.SetPath(path), test.ShouldBeTrue)
	id, ok := p.PathID()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, path.ID)

	robot := navigation.KinodynamicState{Pose: spatial.NewPose(0, 0, 0)}
	result := p.Plan(m.Data().Grid.Dimensions().Bounds(), robot, spatial.NewPose(0, 0, 0))

	test.That(t, result.Outcome, test.ShouldEqual, navigation.TrajectorySuccessful)
	test.That(t, result.Trajectory, test.ShouldNotBeNil)
	test.That(t, result.Trajectory.PathID, test.ShouldEqual, path.ID)
	test.That(t, len(result.Trajectory.States), test.ShouldBeGreaterThan, 1)

	for _, s := range result.Trajectory.States {
		test.That(t, s.Velocity.X, test.ShouldBeGreaterThanOrEqualTo, 0.2*0.75-1e-9)
		test.That(t, s.Velocity.X, test.ShouldBeLessThanOrEqualTo, 0.75+1e-9)
	}
}

func TestPlanPartialOnCollision(t *testing.T) {
	m := testMap(t)
	occupySquare(m, 2, 0, 0.5)
	p := newBandPlanner(t, m, utils.AttributeMap{"robot_radius": 0.3, "spline": false})

	path := straightPath(0, 4, 0)
	test.That(t, p.SetPath(path), test.ShouldBeTrue)

	robot := navigation.KinodynamicState{Pose: spatial.NewPose(0, 0, 0)}
	result := p.Plan(m.Data().Grid.Dimensions().Bounds(), robot, spatial.NewPose(0, 0, 0))

	test.That(t, result.Outcome, test.ShouldEqual, navigation.TrajectoryPartial)
	test.That(t, result.Trajectory, test.ShouldNotBeNil)
	// the band was reset to force a fresh start next tick
	test.That(t, len(p.window.Window.Nodes), test.ShouldEqual, 0)
	// truncated trajectory stays out of the obstacle
	for _, s := range result.Trajectory.States {
		test.That(t, s.Pose.X, test.ShouldBeLessThan, 1.5)
	}
}

func TestPlanWithoutPathFails(t *testing.T) {
	m := testMap(t)
	p := newBandPlanner(t, m, nil)

	robot := navigation.KinodynamicState{Pose: spatial.NewPose(0, 0, 0)}
	result := p.Plan(m.Data().Grid.Dimensions().Bounds(), robot, spatial.NewPose(0, 0, 0))
	test.That(t, result.Outcome, test.ShouldEqual, navigation.TrajectoryFailed)

	_, ok := p.PathID()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestClearPath(t *testing.T) {
	m := testMap(t)
	p := newBandPlanner(t, m, nil)
	test.That(t, p.SetPath(straightPath(0, 1, 0)), test.ShouldBeTrue)
	p.ClearPath()
	_, ok := p.PathID()
	test.That(t, ok, test.ShouldBeFalse)
}
