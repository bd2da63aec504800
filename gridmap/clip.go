package gridmap

const (
	clipInside = 0
	clipLeft   = 1 << iota
	clipRight
	clipBottom
	clipTop
)

func outcode(x, y, maxX, maxY int) int {
	code := clipInside
	if x < 0 {
		code |= clipLeft
	} else if x > maxX {
		code |= clipRight
	}
	if y < 0 {
		code |= clipBottom
	} else if y > maxY {
		code |= clipTop
	}
	return code
}

// ClipRayEnd clips the end of the ray (x0, y0) -> (x1, y1) against the cell
// box [0, maxX] x [0, maxY] with a Cohen-Sutherland style outcode loop. The
// start must already be on the grid. The returned end is the last cell of the
// ray before it would leave the grid.
func ClipRayEnd(x0, y0, x1, y1, maxX, maxY int) (int, int) {
	for {
		code := outcode(x1, y1, maxX, maxY)
		if code == clipInside {
			return x1, y1
		}
		// walk the offending coordinate back onto the grid along the ray
		if code&clipTop != 0 {
			x1 = x0 + (x1-x0)*(maxY-y0)/(y1-y0)
			y1 = maxY
		} else if code&clipBottom != 0 {
			x1 = x0 + (x1-x0)*(0-y0)/(y1-y0)
			y1 = 0
		} else if code&clipRight != 0 {
			y1 = y0 + (y1-y0)*(maxX-x0)/(x1-x0)
			x1 = maxX
		} else if code&clipLeft != 0 {
			y1 = y0 + (y1-y0)*(0-x0)/(x1-x0)
			x1 = 0
		}
	}
}
