package gridmap

import (
	"image"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/pkg/errors"
)

// BaseMapLayer rasterises the static occupancy image of the HD map into
// log-odds. It is a pure function of its inputs and carries no sensor state.
type BaseMapLayer struct {
	dims  Dimensions
	cells []float64
}

// SetMap rasterises the occupancy image: occupied cells saturate to maxLog,
// free cells to minLog, unknown cells stay unknown.
func (b *BaseMapLayer) SetMap(info *msgs.MapInfo, occupancy *msgs.OccupancyGrid, minLog, maxLog float64) error {
	if occupancy.Info.Width != info.Meta.Width || occupancy.Info.Height != info.Meta.Height {
		return errors.Errorf("occupancy image %dx%d does not match map %dx%d",
			occupancy.Info.Width, occupancy.Info.Height, info.Meta.Width, info.Meta.Height)
	}
	if len(occupancy.Data) != occupancy.Info.Width*occupancy.Info.Height {
		return errors.Errorf("occupancy image has %d cells, want %d",
			len(occupancy.Data), occupancy.Info.Width*occupancy.Info.Height)
	}

	b.dims = NewDimensions(
		occupancy.Info.Origin.Translation(),
		occupancy.Info.Resolution,
		occupancy.Info.Width,
		occupancy.Info.Height,
	)
	b.cells = make([]float64, len(occupancy.Data))
	for i, v := range occupancy.Data {
		switch {
		case v < 0:
			b.cells[i] = 0
		case v >= 50:
			b.cells[i] = maxLog
		default:
			b.cells[i] = minLog
		}
	}
	return nil
}

// Dimensions returns the geometry of the rasterised map.
func (b *BaseMapLayer) Dimensions() Dimensions { return b.dims }

// Draw copies the base cells into the grid within region. The caller holds
// the grid mutex.
func (b *BaseMapLayer) Draw(grid *OccupancyGrid, region image.Rectangle) {
	region = region.Intersect(b.dims.Bounds())
	for y := region.Min.Y; y < region.Max.Y; y++ {
		row := y * b.dims.SizeX()
		for x := region.Min.X; x < region.Max.X; x++ {
			grid.Set(image.Point{x, y}, b.cells[row+x])
		}
	}
}
