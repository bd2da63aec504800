package gridmap

import (
	"github.com/2lambda123/Boeing-modular-navigation/utils"
)

// TraceLine visits the cells of the discrete line from (x0, y0) to (x1, y1)
// inclusive, in order, stopping after maxCells visits when maxCells > 0.
func TraceLine(x0, y0, x1, y1, maxCells int, visit func(x, y int)) {
	dx := utils.AbsInt(x1 - x0)
	dy := utils.AbsInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx - dy
	x, y := x0, y0
	count := 0
	for {
		visit(x, y)
		count++
		if (x == x1 && y == y1) || (maxCells > 0 && count >= maxCells) {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// LineCells returns the cells of the discrete line from a to b inclusive.
func LineCells(ax, ay, bx, by int) [][2]int {
	var cells [][2]int
	TraceLine(ax, ay, bx, by, 0, func(x, y int) {
		cells = append(cells, [2]int{x, y})
	})
	return cells
}
