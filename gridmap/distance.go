package gridmap

import "math"

// DilateEllipse expands every true cell of the w x h mask by an elliptical
// (here circular) structuring element of the given cell radius.
func DilateEllipse(mask []bool, w, h, radius int) []bool {
	if radius <= 0 {
		out := make([]bool, len(mask))
		copy(out, mask)
		return out
	}
	// precompute the half-widths of the disc per row offset
	halfWidths := make([]int, 2*radius+1)
	for dy := -radius; dy <= radius; dy++ {
		halfWidths[dy+radius] = int(math.Sqrt(float64(radius*radius - dy*dy)))
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				hw := halfWidths[dy+radius]
				x0, x1 := x-hw, x+hw
				if x0 < 0 {
					x0 = 0
				}
				if x1 >= w {
					x1 = w - 1
				}
				row := yy * w
				for xx := x0; xx <= x1; xx++ {
					out[row+xx] = true
				}
			}
		}
	}
	return out
}

// DistanceTransform returns, for each cell of the w x h mask, the exact
// Euclidean distance in cells to the nearest true cell, using the
// Felzenszwalb-Huttenlocher lower-envelope transform.
func DistanceTransform(mask []bool, w, h int) []float64 {
	const inf = math.MaxFloat64 / 4

	sq := make([]float64, w*h)
	for i, occ := range mask {
		if occ {
			sq[i] = 0
		} else {
			sq[i] = inf
		}
	}

	// columns
	f := make([]float64, h)
	d := make([]float64, h)
	v := make([]int, h)
	z := make([]float64, h+1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = sq[y*w+x]
		}
		dt1d(f, d, v, z, h)
		for y := 0; y < h; y++ {
			sq[y*w+x] = d[y]
		}
	}

	// rows
	f = make([]float64, w)
	d = make([]float64, w)
	v = make([]int, w)
	z = make([]float64, w+1)
	for y := 0; y < h; y++ {
		copy(f, sq[y*w:(y+1)*w])
		dt1d(f, d, v, z, w)
		for x := 0; x < w; x++ {
			sq[y*w+x] = math.Sqrt(d[x])
		}
	}
	return sq
}

// dt1d computes the 1-D squared distance transform of sampled function f.
func dt1d(f, d []float64, v []int, z []float64, n int) {
	const inf = math.MaxFloat64 / 4
	k := 0
	v[0] = 0
	z[0] = -inf
	z[1] = inf
	for q := 1; q < n; q++ {
		var s float64
		for {
			s = ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
			if s <= z[k] {
				k--
				continue
			}
			break
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = inf
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
