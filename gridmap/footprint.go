package gridmap

import (
	"image"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// FootprintCells rasterises the robot footprint polygon (body-frame metres,
// scaled by scale) at the given pose and returns the grid cells inside it.
// Cells off the grid are omitted.
func FootprintCells(dims Dimensions, robot spatial.Pose, footprint []spatial.Point, scale float64) []image.Point {
	if len(footprint) < 3 {
		return nil
	}
	world := make([]spatial.Point, len(footprint))
	for i, pt := range footprint {
		world[i] = robot.TransformPoint(pt.Scale(scale))
	}

	minC := dims.CellIndex(world[0])
	maxC := minC
	for _, pt := range world[1:] {
		c := dims.CellIndex(pt)
		if c.X < minC.X {
			minC.X = c.X
		}
		if c.Y < minC.Y {
			minC.Y = c.Y
		}
		if c.X > maxC.X {
			maxC.X = c.X
		}
		if c.Y > maxC.Y {
			maxC.Y = c.Y
		}
	}

	var cells []image.Point
	for y := minC.Y; y <= maxC.Y; y++ {
		for x := minC.X; x <= maxC.X; x++ {
			c := image.Point{x, y}
			if !dims.Contains(c) {
				continue
			}
			if pointInPolygon(dims.CellCentre(c), world) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// pointInPolygon is a standard even-odd ray cast.
func pointInPolygon(pt spatial.Point, poly []spatial.Point) bool {
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) &&
			pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// CircleCells returns the on-grid cells within cellRadius of centre.
func CircleCells(dims Dimensions, centre image.Point, cellRadius int) []image.Point {
	var cells []image.Point
	r2 := cellRadius * cellRadius
	for dy := -cellRadius; dy <= cellRadius; dy++ {
		for dx := -cellRadius; dx <= cellRadius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			c := image.Point{centre.X + dx, centre.Y + dy}
			if dims.Contains(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}
