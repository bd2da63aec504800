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

func init() {
	RegisterLayer("range", func(name string) Layer { return &RangeLayer{name: name} })
}

type rangeConfig struct {
	Topic           string  `json:"topic"`
	HitProbability  float64 `json:"hit_probability"`
	MissProbability float64 `json:"miss_probability"`
	RaytraceRange   float64 `json:"raytrace_range"`
	SubSample       int     `json:"sub_sample"`
}

// RangeLayer ingests single-beam cone sensors (sonar, IR). The cone is swept
// as rays to the segment between its far corners; endpoint evidence is
// strongest at the cone centre.
type RangeLayer struct {
	name string
	conf rangeConfig
	src  topicSource[msgs.Range]

	hitLog  float64
	missLog float64
}

// Name implements Layer.
func (l *RangeLayer) Name() string { return l.name }

// Initialize implements Layer.
func (l *RangeLayer) Initialize(attrs utils.AttributeMap, deps LayerDeps) error {
	l.conf = rangeConfig{
		Topic:           l.name + "/range",
		HitProbability:  0.65,
		MissProbability: 0.1,
		RaytraceRange:   3.0,
	}
	if err := attrs.Decode(&l.conf); err != nil {
		return errors.Wrapf(err, "range layer %s", l.name)
	}
	l.hitLog = LogOdds(l.conf.HitProbability)
	l.missLog = LogOdds(l.conf.MissProbability)

	l.src.init(l.name, l.conf.Topic, deps, l.conf.SubSample)
	l.src.start(
		func(m msgs.Range) msgs.Header { return m.Header },
		func(m msgs.Range, tf spatial.Transform3) error {
			grid := l.src.data.Grid
			return l.mark(grid, m, tf, grid.Dimensions().Bounds())
		},
	)
	return nil
}

// MapDataChanged implements Layer.
func (l *RangeLayer) MapDataChanged(data *MapData) error {
	l.src.setMapData(data)
	return nil
}

// Apply implements Layer. The caller holds the grid mutex.
func (l *RangeLayer) Apply(region image.Rectangle) error {
	return l.src.reapply(
		func(m msgs.Range) msgs.Header { return m.Header },
		func(m msgs.Range, tf spatial.Transform3) error {
			return l.mark(l.src.data.Grid, m, tf, region)
		},
	)
}

// Close implements Layer.
func (l *RangeLayer) Close() { l.src.close() }

func (l *RangeLayer) mark(grid *OccupancyGrid, m msgs.Range, sensorTF spatial.Transform3, region image.Rectangle) error {
	dims := grid.Dimensions()
	sensorCell := dims.CellIndex(spatial.Point{X: sensorTF.T.X, Y: sensorTF.T.Y})
	if !dims.Contains(sensorCell) {
		return errors.Wrapf(ErrGridOutOfBounds, "range sensor at cell %v", sensorCell)
	}

	halfFOV := m.FieldOfView / 2.0
	sin, cos := math.Sincos(halfFOV)
	left := sensorTF.Apply(r3.Vector{X: m.Range * cos, Y: m.Range * sin})
	right := sensorTF.Apply(r3.Vector{X: m.Range * cos, Y: -m.Range * sin})

	leftCell := dims.CellIndex(spatial.Point{X: left.X, Y: left.Y})
	rightCell := dims.CellIndex(spatial.Point{X: right.X, Y: right.Y})

	line := LineCells(leftCell.X, leftCell.Y, rightCell.X, rightCell.Y)
	raytraceCells := int(l.conf.RaytraceRange / dims.Resolution())

	for i, end := range line {
		ex, ey := ClipRayEnd(sensorCell.X, sensorCell.Y, end[0], end[1], dims.SizeX()-1, dims.SizeY()-1)
		TraceLine(sensorCell.X, sensorCell.Y, ex, ey, raytraceCells, func(x, y int) {
			if pointInRegion(x, y, region) {
				grid.Update(image.Point{x, y}, l.missLog)
			}
		})
		if m.Range < m.MaxRange && pointInRegion(ex, ey, region) {
			// cancel the miss just traced, then add hit evidence scaled so
			// the centre of the cone carries the most
			fraction := 1.0 - math.Abs(float64(i)/float64(len(line))-0.5)
			endCell := image.Point{ex, ey}
			grid.Update(endCell, -l.missLog)
			grid.Update(endCell, fraction*l.hitLog)
		}
	}

	clearFootprint(grid, l.src.robotFootprintCells(dims, m.Header.Stamp), region)
	return nil
}
