package omniplanner

import (
	"math"
	"math/rand"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

func init() {
	navigation.RegisterPathPlanner("omni_rrt", func() navigation.PathPlanner { return &OmniPlanner{} })
}

type omniConfig struct {
	RobotRadius           float64 `json:"robot_radius"`
	ExponentialWeight     float64 `json:"exponential_weight"`
	MaxStep               float64 `json:"max_step"`
	GoalBias              float64 `json:"goal_bias"`
	InitialSolveTime      float64 `json:"initial_solve_time"`
	ContinuationSolveTime float64 `json:"continuation_solve_time"`
	SimplifyTime          float64 `json:"simplify_time"`
	RepairAttempts        int     `json:"repair_attempts"`
	Seed                  int64   `json:"seed"`
}

// OmniPlanner is the sampling-based SE(2) path planner for a holonomic base.
type OmniPlanner struct {
	conf   omniConfig
	m      *gridmap.LayeredMap
	logger golog.Logger
	rng    *rand.Rand

	// snapshot reused by Valid and Cost after a Plan call
	costmap *Costmap
}

// Initialize implements navigation.PathPlanner.
func (p *OmniPlanner) Initialize(attrs utils.AttributeMap, m *gridmap.LayeredMap, logger golog.Logger) error {
	p.conf = omniConfig{
		RobotRadius:           0.5,
		ExponentialWeight:     2.0,
		MaxStep:               0.25,
		GoalBias:              0.1,
		InitialSolveTime:      0.2,
		ContinuationSolveTime: 2.0,
		SimplifyTime:          0.05,
		RepairAttempts:        1000,
		Seed:                  1,
	}
	if err := attrs.Decode(&p.conf); err != nil {
		return errors.Wrap(err, "omni_rrt")
	}
	if p.conf.RobotRadius <= 0 {
		return errors.Errorf("omni_rrt: robot_radius must be positive, got %f", p.conf.RobotRadius)
	}
	if p.conf.MaxStep <= 0 {
		return errors.Errorf("omni_rrt: max_step must be positive, got %f", p.conf.MaxStep)
	}
	p.m = m
	p.logger = logger
	p.rng = rand.New(rand.NewSource(p.conf.Seed))
	return nil
}

// MapDataChanged implements navigation.PathPlanner.
func (p *OmniPlanner) MapDataChanged() {
	p.costmap = nil
}

// Plan implements navigation.PathPlanner. The search runs for a short initial
// budget and, if that fails, one longer continuation before giving up.
func (p *OmniPlanner) Plan(start, goal spatial.Pose) navigation.PathPlanResult {
	cm := BuildCostmap(p.m, p.conf.RobotRadius, p.conf.ExponentialWeight)
	p.costmap = cm

	deadline := time.Now().Add(time.Duration(p.conf.InitialSolveTime * float64(time.Second)))
	states := p.solveRRT(cm, start, goal, deadline, p.rng)
	if states == nil {
		deadline = time.Now().Add(time.Duration(p.conf.ContinuationSolveTime * float64(time.Second)))
		states = p.solveRRT(cm, start, goal, deadline, p.rng)
	}
	if states == nil {
		p.logger.Warnw("planning failed", "kind", "planning_budget_exceeded",
			"start", start.String(), "goal", goal.String())
		return navigation.PathPlanResult{Outcome: navigation.PathFailed}
	}

	simplifyBudget := time.Duration(p.conf.SimplifyTime * float64(time.Second))
	states = shortcut(cm, states, simplifyBudget, cm.Resolution, p.rng)
	states = interpolate(states, cm.Resolution)

	states, ok := checkAndRepair(cm, states, p.conf.RepairAttempts, 2*cm.Resolution, p.rng)
	if !ok {
		p.logger.Warnw("planning failed", "kind", "planning_budget_exceeded",
			"reason", "path repair failed")
		return navigation.PathPlanResult{Outcome: navigation.PathFailed}
	}

	path := navigation.NewPath(states)
	path.Cost = p.pathCost(cm, states)
	return navigation.PathPlanResult{
		Outcome: navigation.PathSuccessful,
		Path:    path,
		Cost:    path.Cost,
	}
}

// Valid implements navigation.PathPlanner; it reuses the costmap snapshot of
// the most recent Plan call.
func (p *OmniPlanner) Valid(path *navigation.Path) bool {
	cm := p.snapshot()
	for _, s := range path.Nodes {
		if !stateValid(cm, s) {
			return false
		}
	}
	return true
}

// Cost implements navigation.PathPlanner; infinite for paths through
// collision.
func (p *OmniPlanner) Cost(path *navigation.Path) float64 {
	cm := p.snapshot()
	if !p.Valid(path) {
		return math.MaxFloat64
	}
	return p.pathCost(cm, path.Nodes)
}

func (p *OmniPlanner) snapshot() *Costmap {
	if p.costmap == nil {
		p.costmap = BuildCostmap(p.m, p.conf.RobotRadius, p.conf.ExponentialWeight)
	}
	return p.costmap
}

// pathCost integrates the max-offset state cost along the path.
func (p *OmniPlanner) pathCost(cm *Costmap, states []spatial.Pose) float64 {
	if len(states) == 0 {
		return 0
	}
	var cost float64
	prev := stateCost(cm, states[0])
	for i := 1; i < len(states); i++ {
		cur := stateCost(cm, states[i])
		cost += 0.5 * (prev + cur) * states[i-1].Distance(states[i])
		prev = cur
	}
	return cost
}
