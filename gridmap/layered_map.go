package gridmap

import (
	"image"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// LayeredMapConfig sets the probability model of the shared grid.
type LayeredMapConfig struct {
	ClampMin float64 `json:"clamping_min_probability"`
	ClampMax float64 `json:"clamping_max_probability"`
	Occupied float64 `json:"occupied_probability"`
}

// Validate checks the probability ordering.
func (c LayeredMapConfig) Validate() error {
	if !(c.ClampMin > 0 && c.ClampMin < c.Occupied && c.Occupied < c.ClampMax && c.ClampMax < 1) {
		return errors.Errorf("probabilities must satisfy 0 < min < occupied < max < 1, got %+v", c)
	}
	return nil
}

// DefaultLayeredMapConfig mirrors the probability model of the original
// deployment.
func DefaultLayeredMapConfig() LayeredMapConfig {
	return LayeredMapConfig{ClampMin: 0.1, ClampMax: 0.9, Occupied: 0.8}
}

// LayeredMap composes the static base layer with the sensor layers over one
// shared cell store. It owns the store; everything else borrows snapshots
// under the grid mutex.
type LayeredMap struct {
	logger golog.Logger
	conf   LayeredMapConfig

	base   *BaseMapLayer
	layers []Layer

	data *MapData
}

// NewLayeredMap composes the base layer and the sensor layers; layer order is
// stable and follows the slice.
func NewLayeredMap(conf LayeredMapConfig, base *BaseMapLayer, layers []Layer, logger golog.Logger) (*LayeredMap, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &LayeredMap{logger: logger, conf: conf, base: base, layers: layers}, nil
}

// Data returns the current shared map data. Nil until SetMap.
func (m *LayeredMap) Data() *MapData { return m.data }

// Lock acquires the grid mutex.
func (m *LayeredMap) Lock() { m.data.Grid.Lock() }

// Unlock releases the grid mutex.
func (m *LayeredMap) Unlock() { m.data.Grid.Unlock() }

// SetMap re-initialises the grid geometry from a new HD map, redraws the base
// layer, and notifies every sensor layer.
func (m *LayeredMap) SetMap(info *msgs.MapInfo, occupancy *msgs.OccupancyGrid) error {
	if err := m.base.SetMap(info, occupancy, LogOdds(m.conf.ClampMin), LogOdds(m.conf.ClampMax)); err != nil {
		return errors.Wrap(err, "cannot rasterise base map")
	}

	data := NewMapData(info, m.conf.ClampMin, m.conf.ClampMax, m.conf.Occupied)
	for _, layer := range m.layers {
		if err := layer.MapDataChanged(data); err != nil {
			return errors.Wrapf(err, "layer %s rejected new map", layer.Name())
		}
	}
	m.data = data

	return m.Update()
}

// Update rebuilds the whole grid: base cells first, then each sensor layer's
// latest evidence in declared order.
func (m *LayeredMap) Update() error {
	return m.UpdateRegion(m.data.Grid.Dimensions().Bounds())
}

// UpdateRegion is Update restricted to a bounding box. Cells outside the
// region are untouched.
func (m *LayeredMap) UpdateRegion(region image.Rectangle) error {
	grid := m.data.Grid
	region = region.Intersect(grid.Dimensions().Bounds())

	grid.Lock()
	defer grid.Unlock()

	m.base.Draw(grid, region)

	var result error
	for _, layer := range m.layers {
		if err := layer.Apply(region); err != nil {
			result = multierr.Append(result, errors.Wrapf(err, "layer %s", layer.Name()))
		}
	}
	return result
}

// ClearRadius forces every cell within radius metres of the pose to the lower
// clamping bound. This is the only operation that overrides sensor evidence;
// the supervisor uses it to free the robot's immediate surroundings on goal
// entry.
func (m *LayeredMap) ClearRadius(pose spatial.Pose, radius float64) {
	grid := m.data.Grid
	dims := grid.Dimensions()
	centre := dims.CellIndex(pose.Translation())
	cellRadius := int(radius / dims.Resolution())

	grid.Lock()
	defer grid.Unlock()
	for _, c := range CircleCells(dims, centre, cellRadius) {
		grid.SetMin(c)
	}
}

// Close stops all sensor layers.
func (m *LayeredMap) Close() {
	for _, layer := range m.layers {
		layer.Close()
	}
}
