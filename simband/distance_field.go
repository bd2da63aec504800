package simband

import (
	"image"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
)

// DistanceField is a local snapshot of obstacle distances, already reduced by
// the robot radius: negative values mean the robot overlaps an obstacle.
type DistanceField struct {
	dist        []float64
	width       int
	height      int
	originX     float64
	originY     float64
	resolution  float64
	robotRadius float64
}

// NewDistanceField snapshots the grid region under the grid mutex and runs a
// Euclidean distance transform over its occupied cells.
func NewDistanceField(grid *gridmap.OccupancyGrid, region image.Rectangle, robotRadius float64) *DistanceField {
	grid.Lock()
	mask, clipped := grid.OccupiedMask(region)
	dims := grid.Dimensions()
	grid.Unlock()

	df := &DistanceField{
		width:       clipped.Dx(),
		height:      clipped.Dy(),
		originX:     dims.Origin().X + float64(clipped.Min.X)*dims.Resolution(),
		originY:     dims.Origin().Y + float64(clipped.Min.Y)*dims.Resolution(),
		resolution:  dims.Resolution(),
		robotRadius: robotRadius,
	}
	df.dist = gridmap.DistanceTransform(mask, df.width, df.height)
	for i := range df.dist {
		df.dist[i] = df.dist[i]*df.resolution - robotRadius
	}
	return df
}

// Distance returns the robot-reduced obstacle distance at a world point.
// Queries outside the field clamp to its edge cells.
func (df *DistanceField) Distance(pt spatial.Point) float64 {
	mx := utils.ClampInt(int((pt.X-df.originX)/df.resolution), 0, df.width-1)
	my := utils.ClampInt(int((pt.Y-df.originY)/df.resolution), 0, df.height-1)
	return df.dist[my*df.width+mx]
}

// Gradient is the central-difference ascent direction of the distance field:
// it points away from the nearest obstacle.
func (df *DistanceField) Gradient(pt spatial.Point) spatial.Point {
	h := df.resolution
	gx := (df.Distance(spatial.Point{X: pt.X + h, Y: pt.Y}) - df.Distance(spatial.Point{X: pt.X - h, Y: pt.Y})) / (2 * h)
	gy := (df.Distance(spatial.Point{X: pt.X, Y: pt.Y + h}) - df.Distance(spatial.Point{X: pt.X, Y: pt.Y - h})) / (2 * h)
	g := spatial.Point{X: gx, Y: gy}
	if n := g.Norm(); n > 1e-9 {
		return g.Scale(1 / n)
	}
	return spatial.Point{}
}
