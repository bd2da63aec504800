package gridmap

import (
	"image"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// occupancyValue flattens a log-odds cell to the occupancy wire convention.
func occupancyValue(logOdds float64) int8 {
	if logOdds == 0 {
		return -1
	}
	return int8(Probability(logOdds) * 100)
}

// SnapshotMessage renders the whole grid as an occupancy message for the
// diagnostic publisher. It takes the grid mutex.
func (g *OccupancyGrid) SnapshotMessage(frame string, stamp time.Time) *msgs.OccupancyGrid {
	g.Lock()
	defer g.Unlock()

	out := &msgs.OccupancyGrid{
		Header: msgs.Header{Stamp: stamp, FrameID: frame},
		Info: msgs.MapMetaData{
			Resolution: g.dims.Resolution(),
			Width:      g.dims.SizeX(),
			Height:     g.dims.SizeY(),
			Origin:     spatial.NewPose(g.dims.Origin().X, g.dims.Origin().Y, 0),
		},
		Data: make([]int8, len(g.cells)),
	}
	for i, v := range g.cells {
		out.Data[i] = occupancyValue(v)
	}
	return out
}

// RegionMessage renders a bounded patch of the grid as an occupancy update.
// It takes the grid mutex.
func (g *OccupancyGrid) RegionMessage(region image.Rectangle, frame string, stamp time.Time) *msgs.OccupancyGridUpdate {
	g.Lock()
	defer g.Unlock()

	region = region.Intersect(g.dims.Bounds())
	out := &msgs.OccupancyGridUpdate{
		Header: msgs.Header{Stamp: stamp, FrameID: frame},
		MinX:   region.Min.X,
		MinY:   region.Min.Y,
		Width:  region.Dx(),
		Height: region.Dy(),
		Data:   make([]int8, region.Dx()*region.Dy()),
	}
	for y := 0; y < out.Height; y++ {
		row := (region.Min.Y + y) * g.dims.SizeX()
		for x := 0; x < out.Width; x++ {
			out.Data[y*out.Width+x] = occupancyValue(g.cells[row+region.Min.X+x])
		}
	}
	return out
}
