package gridmap

import (
	"image"
	"math"
	"sync"
)

// LogOdds converts a probability to its log-odds representation.
func LogOdds(probability float64) float64 {
	return math.Log(probability / (1.0 - probability))
}

// Probability converts log-odds back to a probability.
func Probability(logOdds float64) float64 {
	return 1.0 - 1.0/(1.0+math.Exp(logOdds))
}

// OccupancyGrid is a dense log-odds cell store over a Dimensions.
//
// A cell value of 0 means unknown; positive values lean occupied, negative
// lean free, and every update clamps to [MinLog, MaxLog].
//
// Locking contract: any caller that reads more than one cell or performs any
// write must hold the grid mutex via Lock. The accessors themselves do not
// lock.
type OccupancyGrid struct {
	mu    sync.Mutex
	dims  Dimensions
	cells []float64

	minLog float64
	maxLog float64
	occLog float64
}

// NewOccupancyGrid returns a grid of unknown cells with the given clamping
// probabilities and occupancy threshold probability.
func NewOccupancyGrid(dims Dimensions, clampMin, clampMax, occupied float64) *OccupancyGrid {
	return &OccupancyGrid{
		dims:   dims,
		cells:  make([]float64, dims.SizeX()*dims.SizeY()),
		minLog: LogOdds(clampMin),
		maxLog: LogOdds(clampMax),
		occLog: LogOdds(occupied),
	}
}

// Lock acquires the grid mutex.
func (g *OccupancyGrid) Lock() { g.mu.Lock() }

// Unlock releases the grid mutex.
func (g *OccupancyGrid) Unlock() { g.mu.Unlock() }

// Dimensions returns the grid geometry.
func (g *OccupancyGrid) Dimensions() Dimensions { return g.dims }

// MinLog returns the lower clamping bound.
func (g *OccupancyGrid) MinLog() float64 { return g.minLog }

// MaxLog returns the upper clamping bound.
func (g *OccupancyGrid) MaxLog() float64 { return g.maxLog }

// OccupiedLog returns the log-odds above which a cell counts as occupied.
func (g *OccupancyGrid) OccupiedLog() float64 { return g.occLog }

// Index flattens a cell coordinate.
func (g *OccupancyGrid) Index(c image.Point) int {
	return c.Y*g.dims.SizeX() + c.X
}

// At returns the cell value.
func (g *OccupancyGrid) At(c image.Point) float64 {
	return g.cells[g.Index(c)]
}

// Set overwrites the cell value without clamping. Used by base-layer draws.
func (g *OccupancyGrid) Set(c image.Point, value float64) {
	g.cells[g.Index(c)] = value
}

// Update adds delta to the cell, clamping to the grid bounds. An unknown cell
// (0) plus delta is just delta.
func (g *OccupancyGrid) Update(c image.Point, delta float64) {
	i := g.Index(c)
	v := g.cells[i] + delta
	if v < g.minLog {
		v = g.minLog
	} else if v > g.maxLog {
		v = g.maxLog
	}
	g.cells[i] = v
}

// SetMin forces the cell to the lower clamping bound, overriding evidence.
func (g *OccupancyGrid) SetMin(c image.Point) {
	g.cells[g.Index(c)] = g.minLog
}

// Occupied reports whether the cell's log-odds crosses the occupancy
// threshold.
func (g *OccupancyGrid) Occupied(c image.Point) bool {
	return g.cells[g.Index(c)] >= g.occLog
}

// CopyCells returns a snapshot of the whole cell store.
func (g *OccupancyGrid) CopyCells() []float64 {
	out := make([]float64, len(g.cells))
	copy(out, g.cells)
	return out
}

// OccupiedMask returns, for each cell in region (clipped to the grid), whether
// it counts as occupied, along with the clipped region.
func (g *OccupancyGrid) OccupiedMask(region image.Rectangle) ([]bool, image.Rectangle) {
	region = region.Intersect(g.dims.Bounds())
	w, h := region.Dx(), region.Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := (region.Min.Y + y) * g.dims.SizeX()
		for x := 0; x < w; x++ {
			mask[y*w+x] = g.cells[row+region.Min.X+x] >= g.occLog
		}
	}
	return mask, region
}
