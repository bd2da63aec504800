package simband

import (
	"image"
	"math"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

func init() {
	navigation.RegisterTrajectoryPlanner("sim_band", func() navigation.TrajectoryPlanner { return &SimBandPlanner{} })
}

type simBandConfig struct {
	NumIterations        int     `json:"num_iterations"`
	InternalForceGain    float64 `json:"internal_force_gain"`
	ExternalForceGain    float64 `json:"external_force_gain"`
	MinDistance          float64 `json:"min_distance"`
	MaxDistance          float64 `json:"max_distance"`
	MinOverlap           float64 `json:"min_overlap"`
	MaxWindowLength      float64 `json:"max_window_length"`
	MaxHolonomicDistance float64 `json:"max_holonomic_distance"`
	MaxReverseDistance   float64 `json:"max_reverse_distance"`
	RobotRadius          float64 `json:"robot_radius"`
	RotationFactor       float64 `json:"rotation_factor"`
	VelocityDecay        float64 `json:"velocity_decay"`
	AlphaDecay           float64 `json:"alpha_decay"`
	DesiredSpeed         float64 `json:"desired_speed"`
	Spline               bool    `json:"spline"`
}

// SimBandPlanner relaxes a moving window of the nominal path as an elastic
// band over the local distance field.
type SimBandPlanner struct {
	conf   simBandConfig
	m      *gridmap.LayeredMap
	logger golog.Logger

	window *MovingWindow
}

// Initialize implements navigation.TrajectoryPlanner.
func (p *SimBandPlanner) Initialize(attrs utils.AttributeMap, m *gridmap.LayeredMap, logger golog.Logger) error {
	p.conf = simBandConfig{
		NumIterations:        30,
		InternalForceGain:    0.002,
		ExternalForceGain:    0.004,
		MinDistance:          0.02,
		MaxDistance:          0.25,
		MinOverlap:           0.7,
		MaxWindowLength:      4.0,
		MaxHolonomicDistance: 0.5,
		MaxReverseDistance:   1.5,
		RobotRadius:          0.5,
		RotationFactor:       1.0,
		VelocityDecay:        0.6,
		AlphaDecay:           0.98,
		DesiredSpeed:         0.75,
		Spline:               true,
	}
	if err := attrs.Decode(&p.conf); err != nil {
		return errors.Wrap(err, "sim_band")
	}
	if p.conf.NumIterations <= 0 {
		return errors.Errorf("sim_band: num_iterations must be positive, got %d", p.conf.NumIterations)
	}
	if p.conf.RobotRadius <= 0 {
		return errors.Errorf("sim_band: robot_radius must be positive, got %f", p.conf.RobotRadius)
	}
	p.m = m
	p.logger = logger
	return nil
}

// MapDataChanged implements navigation.TrajectoryPlanner.
func (p *SimBandPlanner) MapDataChanged() {
	if p.window != nil {
		p.window.Reset()
	}
}

// SetPath implements navigation.TrajectoryPlanner.
func (p *SimBandPlanner) SetPath(path *navigation.Path) bool {
	if path == nil || len(path.Nodes) == 0 {
		return false
	}
	p.window = NewMovingWindow(path, defaultControlPoints)
	return true
}

// ClearPath implements navigation.TrajectoryPlanner.
func (p *SimBandPlanner) ClearPath() {
	p.window = nil
}

// PathID implements navigation.TrajectoryPlanner.
func (p *SimBandPlanner) PathID() (string, bool) {
	if p.window == nil {
		return "", false
	}
	return p.window.Nominal.ID, true
}

// Plan implements navigation.TrajectoryPlanner.
func (p *SimBandPlanner) Plan(
	localRegion image.Rectangle,
	robotState navigation.KinodynamicState,
	mapToOdom spatial.Pose,
) navigation.TrajectoryPlanResult {
	if p.window == nil {
		return navigation.TrajectoryPlanResult{Outcome: navigation.TrajectoryFailed}
	}

	robotPose := mapToOdom.Compose(robotState.Pose)
	p.window.Update(robotPose, p.conf.MaxWindowLength)

	df := NewDistanceField(p.m.Data().Grid, localRegion, p.conf.RobotRadius)

	// the robot anchors the front of the band
	band := &Band{Nodes: []*Node{NewNode(robotPose, defaultControlPoints)}}
	if len(p.window.Window.Nodes) > 1 {
		band.Nodes = append(band.Nodes, p.window.Window.Nodes[1:]...)
	} else {
		band.Nodes = append(band.Nodes, p.window.Window.Nodes...)
	}

	// regimes: long paths align rotation with travel; short paths strafe;
	// short goals behind the robot reverse
	longPath := true
	reverse := false
	pathLength := p.window.Nominal.Length()
	goalWrtRobot := robotPose.Inverse().Compose(p.window.Nominal.Nodes[len(p.window.Nominal.Nodes)-1])
	rotation := math.Abs(goalWrtRobot.Theta)
	if pathLength < p.conf.MaxHolonomicDistance {
		longPath = false
	} else if goalWrtRobot.X < 0 && pathLength < p.conf.MaxReverseDistance && rotation < math.Pi/2 {
		longPath = false
		reverse = true
	}

	rotationFactor := 0.0
	if longPath {
		rotationFactor = p.conf.RotationFactor
	}

	simulate(band, df, simParams{
		Iterations:     p.conf.NumIterations,
		MinOverlap:     p.conf.MinOverlap,
		MinDistance:    p.conf.MinDistance,
		InternalGain:   p.conf.InternalForceGain,
		ExternalGain:   p.conf.ExternalForceGain,
		RotationFactor: rotationFactor,
		Reverse:        reverse,
		VelocityDecay:  p.conf.VelocityDecay,
		Alpha:          1.0,
		AlphaDecay:     p.conf.AlphaDecay,
		MaxDistance:    p.conf.MaxDistance,
	})

	// copy the simulated nodes back so the next tick continues from here
	p.window.Window.Nodes = append([]*Node{}, band.Nodes...)

	result := navigation.TrajectoryPlanResult{
		Outcome:    navigation.TrajectorySuccessful,
		PathStartI: 0,
		PathEndI:   p.window.EndI,
	}

	// truncate at the first node in collision
	for i, n := range band.Nodes {
		if n.MinDistance() < 0 {
			p.logger.Warnw("band collision, truncating trajectory", "kind", "band_collision", "node", i)
			truncated := len(band.Nodes) - i
			band.Nodes = band.Nodes[:i]
			result.Outcome = navigation.TrajectoryPartial
			result.PathEndI = p.window.EndI - truncated
			// the band is broken; start fresh from nominal next tick
			p.window.Reset()
			break
		}
	}

	if len(band.Nodes) == 0 {
		return navigation.TrajectoryPlanResult{Outcome: navigation.TrajectoryFailed}
	}

	out := band
	if p.conf.Spline && len(band.Nodes) > 1 {
		splined, err := resampleSpline(band, 4*df.resolution)
		if err != nil {
			p.logger.Warnw("spline fit failed", "error", err)
			return navigation.TrajectoryPlanResult{Outcome: navigation.TrajectoryFailed}
		}
		updateDistances(splined, df, p.conf.MaxDistance)
		for _, n := range splined.Nodes {
			if n.MinDistance() < 0 {
				p.logger.Warnw("splined trajectory in collision", "kind", "band_collision")
				return navigation.TrajectoryPlanResult{Outcome: navigation.TrajectoryFailed}
			}
		}
		out = splined
	}

	// convert to the odom frame and assign obstacle-scaled speeds
	odomToMap := mapToOdom.Inverse()
	states := make([]navigation.KinodynamicState, 0, len(out.Nodes))
	for _, n := range out.Nodes {
		speedScale := 1.0
		if d := n.MinDistance(); d < p.conf.MaxDistance {
			speedScale = 4 * d
		}
		if speedScale < 0.2 {
			speedScale = 0.2
		}
		states = append(states, navigation.KinodynamicState{
			Pose:     odomToMap.Compose(n.Pose),
			Velocity: velocityX(p.conf.DesiredSpeed * speedScale),
		})
	}

	result.Trajectory = navigation.NewTrajectory(p.window.Nominal.ID, time.Now(), states)
	return result
}
