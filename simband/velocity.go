package simband

import "github.com/golang/geo/r3"

func velocityX(v float64) r3.Vector {
	return r3.Vector{X: v}
}
