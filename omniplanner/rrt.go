package omniplanner

import (
	"math"
	"math/rand"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

type rrtNode struct {
	pose   spatial.Pose
	parent *rrtNode
}

// se2Distance weights heading into the nearest-neighbour metric so the tree
// does not thrash rotationally.
func se2Distance(a, b spatial.Pose) float64 {
	return a.Distance(b) + 0.3*math.Abs(spatial.AngleDiff(a.Theta, b.Theta))
}

// solveRRT grows a goal-biased random tree from start until the goal is
// reached or the deadline passes. Returns the solution states, start and goal
// inclusive, or nil.
func (p *OmniPlanner) solveRRT(cm *Costmap, start, goal spatial.Pose, deadline time.Time, rng *rand.Rand) []spatial.Pose {
	if !stateValid(cm, start) || !stateValid(cm, goal) {
		return nil
	}

	// sample bounds: +/- half the grid extent around its centre
	halfX := float64(cm.Width) * cm.Resolution / 2.0
	halfY := float64(cm.Height) * cm.Resolution / 2.0
	centreX := cm.OriginX + halfX
	centreY := cm.OriginY + halfY

	tree := []*rrtNode{{pose: start}}

	for time.Now().Before(deadline) {
		var sample spatial.Pose
		if rng.Float64() < p.conf.GoalBias {
			sample = goal
		} else {
			sample = spatial.NewPose(
				centreX+(rng.Float64()*2-1)*halfX,
				centreY+(rng.Float64()*2-1)*halfY,
				(rng.Float64()*2-1)*math.Pi,
			)
		}

		nearest := tree[0]
		nearestDist := se2Distance(nearest.pose, sample)
		for _, n := range tree[1:] {
			if d := se2Distance(n.pose, sample); d < nearestDist {
				nearest, nearestDist = n, d
			}
		}

		next := steer(nearest.pose, sample, p.conf.MaxStep)
		mid := nearest.pose.Lerp(next, 0.5)
		if !stateValid(cm, next) || !stateValid(cm, mid) {
			continue
		}

		node := &rrtNode{pose: next, parent: nearest}
		tree = append(tree, node)

		if next.Distance(goal) <= p.conf.MaxStep &&
			stateValid(cm, next.Lerp(goal, 0.5)) {
			states := []spatial.Pose{goal}
			for n := node; n != nil; n = n.parent {
				states = append(states, n.pose)
			}
			// reverse into start -> goal order
			for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
				states[i], states[j] = states[j], states[i]
			}
			return states
		}
	}
	return nil
}

// steer moves from toward to, at most maxStep in translation, interpolating
// heading by the travelled fraction.
func steer(from, to spatial.Pose, maxStep float64) spatial.Pose {
	d := from.Distance(to)
	if d <= maxStep {
		return to
	}
	return from.Lerp(to, maxStep/d)
}
