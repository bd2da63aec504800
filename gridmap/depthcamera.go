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
	RegisterLayer("depth_camera", func(name string) Layer { return &DepthCameraLayer{name: name} })
}

// PinholeIntrinsics are the calibration of a depth camera.
type PinholeIntrinsics struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

// BackProject lifts pixel (u, v) at metric depth d into the camera optical
// frame (z forward, x right, y down).
func (in PinholeIntrinsics) BackProject(u, v int, d float64) r3.Vector {
	return r3.Vector{
		X: (float64(u) - in.Cx) / in.Fx * d,
		Y: (float64(v) - in.Cy) / in.Fy * d,
		Z: d,
	}
}

type depthCameraConfig struct {
	Topic             string            `json:"topic"`
	Intrinsics        PinholeIntrinsics `json:"intrinsics"`
	PixelStride       int               `json:"pixel_stride"`
	HitProbability    float64           `json:"hit_probability"`
	MissProbability   float64           `json:"miss_probability"`
	MinObstacleHeight float64           `json:"min_obstacle_height"`
	MaxObstacleHeight float64           `json:"max_obstacle_height"`
	ObstacleRange     float64           `json:"obstacle_range"`
	RaytraceRange     float64           `json:"raytrace_range"`
	SubSample         int               `json:"sub_sample"`
}

// DepthCameraLayer ingests compressed depth images: each sampled pixel is
// reprojected through the intrinsics into a 3D point and treated like a laser
// endpoint.
type DepthCameraLayer struct {
	name string
	conf depthCameraConfig
	src  topicSource[msgs.CompressedDepthImage]

	hitLog  float64
	missLog float64
}

// Name implements Layer.
func (l *DepthCameraLayer) Name() string { return l.name }

// Initialize implements Layer.
func (l *DepthCameraLayer) Initialize(attrs utils.AttributeMap, deps LayerDeps) error {
	l.conf = depthCameraConfig{
		Topic:             "depth/compressed",
		PixelStride:       4,
		HitProbability:    0.7,
		MissProbability:   0.4,
		MinObstacleHeight: 0.05,
		MaxObstacleHeight: 2.0,
		ObstacleRange:     2.5,
		RaytraceRange:     3.0,
	}
	if err := attrs.Decode(&l.conf); err != nil {
		return errors.Wrapf(err, "depth camera layer %s", l.name)
	}
	if l.conf.Intrinsics.Fx <= 0 || l.conf.Intrinsics.Fy <= 0 {
		return errors.Errorf("depth camera layer %s: intrinsics not set", l.name)
	}
	if l.conf.PixelStride < 1 {
		return errors.Errorf("depth camera layer %s: pixel_stride must be >= 1", l.name)
	}
	l.hitLog = LogOdds(l.conf.HitProbability)
	l.missLog = LogOdds(l.conf.MissProbability)

	l.src.init(l.name, l.conf.Topic, deps, l.conf.SubSample)
	l.src.start(
		func(m msgs.CompressedDepthImage) msgs.Header { return m.Header },
		func(m msgs.CompressedDepthImage, tf spatial.Transform3) error {
			grid := l.src.data.Grid
			return l.mark(grid, m, tf, grid.Dimensions().Bounds())
		},
	)
	return nil
}

// MapDataChanged implements Layer.
func (l *DepthCameraLayer) MapDataChanged(data *MapData) error {
	l.src.setMapData(data)
	return nil
}

// Apply implements Layer. The caller holds the grid mutex.
func (l *DepthCameraLayer) Apply(region image.Rectangle) error {
	return l.src.reapply(
		func(m msgs.CompressedDepthImage) msgs.Header { return m.Header },
		func(m msgs.CompressedDepthImage, tf spatial.Transform3) error {
			return l.mark(l.src.data.Grid, m, tf, region)
		},
	)
}

// Close implements Layer.
func (l *DepthCameraLayer) Close() { l.src.close() }

func (l *DepthCameraLayer) mark(grid *OccupancyGrid, m msgs.CompressedDepthImage, sensorTF spatial.Transform3, region image.Rectangle) error {
	dims := grid.Dimensions()
	sensorCell := dims.CellIndex(spatial.Point{X: sensorTF.T.X, Y: sensorTF.T.Y})
	if !dims.Contains(sensorCell) {
		return errors.Wrapf(ErrGridOutOfBounds, "depth camera at cell %v", sensorCell)
	}

	depth, err := DecodeCompressedDepth(m)
	if err != nil {
		return err
	}

	raytraceCells := int(l.conf.RaytraceRange / dims.Resolution())
	for v := 0; v < depth.Height; v += l.conf.PixelStride {
		for u := 0; u < depth.Width; u += l.conf.PixelStride {
			d := depth.At(u, v)
			if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				continue
			}

			pt := sensorTF.Apply(l.conf.Intrinsics.BackProject(u, v, d))
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

			if d < l.conf.ObstacleRange && pointInRegion(ex, ey, region) {
				endCell := image.Point{ex, ey}
				grid.Update(endCell, -l.missLog)
				grid.Update(endCell, l.hitLog)
			}
		}
	}

	clearFootprint(grid, l.src.robotFootprintCells(dims, m.Header.Stamp), region)
	return nil
}
