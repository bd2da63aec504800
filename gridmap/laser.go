package gridmap

import (
	"image"
	"math"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrGridOutOfBounds reports a sensor origin that does not fall on the grid.
var ErrGridOutOfBounds = errors.New("grid_out_of_bounds")

func init() {
	RegisterLayer("laser", func(name string) Layer { return &LaserLayer{name: name} })
}

type laserConfig struct {
	Topic             string  `json:"topic"`
	HitProbability    float64 `json:"hit_probability"`
	MissProbability   float64 `json:"miss_probability"`
	MinObstacleHeight float64 `json:"min_obstacle_height"`
	MaxObstacleHeight float64 `json:"max_obstacle_height"`
	ObstacleRange     float64 `json:"obstacle_range"`
	RaytraceRange     float64 `json:"raytrace_range"`
	SubSample         int     `json:"sub_sample"`
}

// LaserLayer ingests planar laser scans: free space along each beam, a hit at
// the endpoint when the return is close enough.
type LaserLayer struct {
	name string
	conf laserConfig
	src  topicSource[msgs.LaserScan]

	hitLog  float64
	missLog float64

	// per-beam unit directions in the sensor frame, keyed by beam count
	directions []r3.Vector
	angleMin   float64
	angleInc   float64
}

// Name implements Layer.
func (l *LaserLayer) Name() string { return l.name }

// Initialize implements Layer.
func (l *LaserLayer) Initialize(attrs utils.AttributeMap, deps LayerDeps) error {
	l.conf = laserConfig{
		Topic:             "scan",
		HitProbability:    0.8,
		MissProbability:   0.4,
		MinObstacleHeight: 0.0,
		MaxObstacleHeight: 2.0,
		ObstacleRange:     3.5,
		RaytraceRange:     4.0,
	}
	if err := attrs.Decode(&l.conf); err != nil {
		return errors.Wrapf(err, "laser layer %s", l.name)
	}
	if l.conf.HitProbability <= 0.5 || l.conf.HitProbability >= 1.0 {
		return errors.Errorf("laser layer %s: hit_probability %f outside (0.5, 1.0)", l.name, l.conf.HitProbability)
	}
	if l.conf.MissProbability <= 0.0 || l.conf.MissProbability >= 0.5 {
		return errors.Errorf("laser layer %s: miss_probability %f outside (0.0, 0.5)", l.name, l.conf.MissProbability)
	}
	l.hitLog = LogOdds(l.conf.HitProbability)
	l.missLog = LogOdds(l.conf.MissProbability)

	l.src.init(l.name, l.conf.Topic, deps, l.conf.SubSample)
	l.src.start(
		func(m msgs.LaserScan) msgs.Header { return m.Header },
		func(m msgs.LaserScan, tf spatial.Transform3) error {
			grid := l.src.data.Grid
			return l.mark(grid, m, tf, grid.Dimensions().Bounds())
		},
	)
	return nil
}

// MapDataChanged implements Layer.
func (l *LaserLayer) MapDataChanged(data *MapData) error {
	l.src.setMapData(data)
	return nil
}

// Apply implements Layer. The caller holds the grid mutex.
func (l *LaserLayer) Apply(region image.Rectangle) error {
	return l.src.reapply(
		func(m msgs.LaserScan) msgs.Header { return m.Header },
		func(m msgs.LaserScan, tf spatial.Transform3) error {
			return l.mark(l.src.data.Grid, m, tf, region)
		},
	)
}

// Close implements Layer.
func (l *LaserLayer) Close() { l.src.close() }

func (l *LaserLayer) beamDirections(m msgs.LaserScan) []r3.Vector {
	if len(l.directions) == len(m.Ranges) && l.angleMin == m.AngleMin && l.angleInc == m.AngleIncrement {
		return l.directions
	}
	l.directions = make([]r3.Vector, len(m.Ranges))
	angle := m.AngleMin
	for i := range m.Ranges {
		sin, cos := math.Sincos(angle)
		l.directions[i] = r3.Vector{X: cos, Y: sin}
		angle += m.AngleIncrement
	}
	l.angleMin = m.AngleMin
	l.angleInc = m.AngleIncrement
	return l.directions
}

func (l *LaserLayer) mark(grid *OccupancyGrid, m msgs.LaserScan, sensorTF spatial.Transform3, region image.Rectangle) error {
	dims := grid.Dimensions()
	sensorCell := dims.CellIndex(spatial.Point{X: sensorTF.T.X, Y: sensorTF.T.Y})
	if !dims.Contains(sensorCell) {
		return errors.Wrapf(ErrGridOutOfBounds, "laser sensor at cell %v", sensorCell)
	}

	directions := l.beamDirections(m)
	raytraceCells := int(l.conf.RaytraceRange / dims.Resolution())

	for i, r := range m.Ranges {
		hit := true
		if math.IsInf(r, 0) || math.IsNaN(r) || r <= 0 {
			r = m.RangeMax
			hit = false
		}

		pt := sensorTF.Apply(directions[i].Mul(r))
		if pt.Z < l.conf.MinObstacleHeight || pt.Z > l.conf.MaxObstacleHeight {
			continue
		}

		end := dims.CellIndex(spatial.Point{X: pt.X, Y: pt.Y})
		ex, ey := ClipRayEnd(sensorCell.X, sensorCell.Y, end.X, end.Y, dims.SizeX()-1, dims.SizeY()-1)
		TraceLine(sensorCell.X, sensorCell.Y, ex, ey, raytraceCells, func(x, y int) {
			if pointInRegion(x, y, region) {
				grid.Update(image.Point{x, y}, l.missLog)
			}
		})

		if hit && r < m.RangeMax && r < l.conf.ObstacleRange && pointInRegion(ex, ey, region) {
			// a hit overrides the miss just traced through the same cell
			endCell := image.Point{ex, ey}
			grid.Update(endCell, -l.missLog)
			grid.Update(endCell, l.hitLog)
		}
	}

	clearFootprint(grid, l.src.robotFootprintCells(dims, m.Header.Stamp), region)
	return nil
}

func pointInRegion(x, y int, region image.Rectangle) bool {
	return x >= region.Min.X && x < region.Max.X && y >= region.Min.Y && y < region.Max.Y
}

// clearFootprint forces the robot's own cells to the lower clamping bound so
// the robot never marks itself as an obstacle.
func clearFootprint(grid *OccupancyGrid, cells []image.Point, region image.Rectangle) {
	for _, c := range cells {
		if pointInRegion(c.X, c.Y, region) {
			grid.SetMin(c)
		}
	}
}
