package omniplanner

import (
	"math"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// footprintOffsets approximates the robot footprint with ten body-frame
// points; validity and cost sample the fields at each.
var footprintOffsets = []spatial.Point{
	{X: -0.268, Y: 0.000},
	{X: 0.268, Y: 0.000},
	{X: 0.265, Y: -0.185},
	{X: 0.077, Y: -0.185},
	{X: -0.077, Y: -0.185},
	{X: -0.265, Y: -0.185},
	{X: 0.265, Y: 0.185},
	{X: -0.265, Y: 0.185},
	{X: -0.077, Y: 0.185},
	{X: 0.077, Y: 0.185},
}

// clearance is the minimum obstacle distance across the footprint offsets at
// the given state. A state is valid iff its clearance is positive.
func clearance(cm *Costmap, pose spatial.Pose) float64 {
	minDistance := math.MaxFloat64
	for _, offset := range footprintOffsets {
		pt := pose.TransformPoint(offset)
		if d := cm.DistanceAt(pt.X, pt.Y); d < minDistance {
			minDistance = d
		}
	}
	return minDistance
}

func stateValid(cm *Costmap, pose spatial.Pose) bool {
	return clearance(cm, pose) > 0
}

// stateCost is the maximum cell cost across the footprint offsets.
func stateCost(cm *Costmap, pose spatial.Pose) float64 {
	var maxCost float64
	for _, offset := range footprintOffsets {
		pt := pose.TransformPoint(offset)
		if c := cm.CostAt(pt.X, pt.Y); c > maxCost {
			maxCost = c
		}
	}
	return maxCost
}
