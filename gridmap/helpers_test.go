package gridmap

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

func r3VecZ(z float64) r3.Vector {
	return r3.Vector{Z: z}
}

func errorsIsOutOfBounds(err error) bool {
	return errors.Is(err, ErrGridOutOfBounds)
}
