// Package gridmap maintains the layered occupancy grid: a log-odds cell store
// shared by a static base layer and per-sensor data-source layers.
package gridmap

import (
	"image"
	"math"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// Dimensions describes the geometry of the grid: the world coordinates of the
// lower-left corner of cell (0, 0), the metres-per-cell resolution, and the
// cell counts in x and y.
type Dimensions struct {
	origin     spatial.Point
	resolution float64
	sizeX      int
	sizeY      int
}

// NewDimensions returns the grid geometry.
func NewDimensions(origin spatial.Point, resolution float64, sizeX, sizeY int) Dimensions {
	return Dimensions{origin: origin, resolution: resolution, sizeX: sizeX, sizeY: sizeY}
}

// Origin returns the world position of the lower-left corner of cell (0, 0).
func (d Dimensions) Origin() spatial.Point { return d.origin }

// Resolution returns metres per cell.
func (d Dimensions) Resolution() float64 { return d.resolution }

// SizeX returns the cell count in x.
func (d Dimensions) SizeX() int { return d.sizeX }

// SizeY returns the cell count in y.
func (d Dimensions) SizeY() int { return d.sizeY }

// Bounds returns the grid extent as a half-open cell rectangle.
func (d Dimensions) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.sizeX, d.sizeY)
}

// CellIndex maps a world point to the cell containing it. The result may be
// out of bounds; check Contains before indexing.
func (d Dimensions) CellIndex(pt spatial.Point) image.Point {
	return image.Point{
		X: int(math.Floor((pt.X - d.origin.X) / d.resolution)),
		Y: int(math.Floor((pt.Y - d.origin.Y) / d.resolution)),
	}
}

// CellCentre maps a cell to the world position of its centre.
func (d Dimensions) CellCentre(c image.Point) spatial.Point {
	return spatial.Point{
		X: d.origin.X + (float64(c.X)+0.5)*d.resolution,
		Y: d.origin.Y + (float64(c.Y)+0.5)*d.resolution,
	}
}

// Contains reports whether the cell lies on the grid.
func (d Dimensions) Contains(c image.Point) bool {
	return c.X >= 0 && c.X < d.sizeX && c.Y >= 0 && c.Y < d.sizeY
}
