// Package omniplanner is the sampling-based path planner: a goal-biased
// random tree over SE(2), steered by a distance-to-collision field built from
// the shared grid.
package omniplanner

import (
	"math"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
)

// Costmap is a planning snapshot of the grid: per-cell distance to the
// nearest inflated obstacle and the exponential cost derived from it.
type Costmap struct {
	Distance []float64
	Cost     []float64

	Width      int
	Height     int
	OriginX    float64
	OriginY    float64
	Resolution float64
}

// BuildCostmap snapshots the grid under its mutex, dilates occupied cells by
// the robot radius, and runs an exact Euclidean distance transform. Cost is
// exp(-w*d): 1 on collision, falling toward 0 in open space.
func BuildCostmap(m *gridmap.LayeredMap, robotRadius, exponentialWeight float64) *Costmap {
	var (
		mask []bool
		cm   = &Costmap{}
	)
	m.Lock()
	grid := m.Data().Grid
	dims := grid.Dimensions()
	cm.Width = dims.SizeX()
	cm.Height = dims.SizeY()
	cm.OriginX = dims.Origin().X
	cm.OriginY = dims.Origin().Y
	cm.Resolution = dims.Resolution()
	mask, _ = grid.OccupiedMask(dims.Bounds())
	m.Unlock()

	cellRadius := int(robotRadius / cm.Resolution)
	dilated := gridmap.DilateEllipse(mask, cm.Width, cm.Height, cellRadius)

	cm.Distance = gridmap.DistanceTransform(dilated, cm.Width, cm.Height)
	cm.Cost = make([]float64, len(cm.Distance))
	for i := range cm.Distance {
		cm.Distance[i] *= cm.Resolution
		cm.Cost[i] = math.Exp(-exponentialWeight * cm.Distance[i])
	}
	return cm
}

func (c *Costmap) cell(x, y float64) (int, int) {
	return int((x-c.OriginX)/c.Resolution - 0.5), int((y-c.OriginY)/c.Resolution - 0.5)
}

// DistanceAt returns the obstacle distance at a world point, 0 off the map.
func (c *Costmap) DistanceAt(x, y float64) float64 {
	mx, my := c.cell(x, y)
	if mx < 0 || mx >= c.Width || my < 0 || my >= c.Height {
		return 0
	}
	return c.Distance[my*c.Width+mx]
}

// CostAt returns the cell cost at a world point, 1 off the map.
func (c *Costmap) CostAt(x, y float64) float64 {
	mx, my := c.cell(x, y)
	if mx < 0 || mx >= c.Width || my < 0 || my >= c.Height {
		return 1
	}
	return c.Cost[my*c.Width+mx]
}
