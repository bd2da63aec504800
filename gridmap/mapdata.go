package gridmap

import (
	"github.com/2lambda123/Boeing-modular-navigation/msgs"
)

// MapData is the shared resource guarded by the grid mutex: geometry, the
// log-odds cell store, and the descriptor of the HD map it was built from.
type MapData struct {
	Grid *OccupancyGrid
	Info *msgs.MapInfo
}

// NewMapData builds the cell store for the given HD map geometry.
func NewMapData(info *msgs.MapInfo, clampMin, clampMax, occupied float64) *MapData {
	dims := NewDimensions(
		info.Meta.Origin.Translation(),
		info.Meta.Resolution,
		info.Meta.Width,
		info.Meta.Height,
	)
	return &MapData{
		Grid: NewOccupancyGrid(dims, clampMin, clampMax, occupied),
		Info: info,
	}
}
