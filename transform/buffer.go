// Package transform provides time-indexed lookup of rigid transforms between
// named frames. The real system feeds this from a localisation pipeline; here
// only the lookup contract and an in-memory implementation live.
package transform

import (
	"sync"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/pkg/errors"
)

// Lookup failure kinds. Callers branch on these with errors.Is.
var (
	ErrExtrapolation = errors.New("transform extrapolation")
	ErrUnknownFrame  = errors.New("unknown frame")
	ErrTimeout       = errors.New("transform timeout")
)

// Buffer answers transform queries at a point in time.
type Buffer interface {
	// Lookup returns the transform taking points in the source frame to the
	// target frame, valid at the given time.
	Lookup(target, source string, at time.Time) (spatial.Transform3, error)
}

type stampedTransform struct {
	stamp time.Time
	tf    spatial.Transform3
}

type framePair struct {
	target string
	source string
}

// StaticBuffer is an in-memory Buffer fed by Set calls. Lookups interpolate
// translation linearly and yaw by shortest arc between bracketing samples.
type StaticBuffer struct {
	mu      sync.Mutex
	history map[framePair][]stampedTransform
	depth   int
}

// NewStaticBuffer returns a buffer retaining up to depth samples per pair.
func NewStaticBuffer(depth int) *StaticBuffer {
	if depth <= 0 {
		depth = 128
	}
	return &StaticBuffer{history: map[framePair][]stampedTransform{}, depth: depth}
}

// Set records a transform sample. Samples must arrive in time order per pair.
func (b *StaticBuffer) Set(target, source string, at time.Time, tf spatial.Transform3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := framePair{target, source}
	hist := append(b.history[key], stampedTransform{at, tf})
	if len(hist) > b.depth {
		hist = hist[len(hist)-b.depth:]
	}
	b.history[key] = hist
}

// Lookup implements Buffer.
func (b *StaticBuffer) Lookup(target, source string, at time.Time) (spatial.Transform3, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hist, ok := b.history[framePair{target, source}]
	if !ok {
		if inv, ok := b.history[framePair{source, target}]; ok {
			tf, err := lookupIn(inv, at)
			if err != nil {
				return spatial.Transform3{}, errors.Wrapf(err, "%s -> %s", source, target)
			}
			return tf.Inverse(), nil
		}
		return spatial.Transform3{}, errors.Wrapf(ErrUnknownFrame, "%s -> %s", source, target)
	}
	tf, err := lookupIn(hist, at)
	if err != nil {
		return spatial.Transform3{}, errors.Wrapf(err, "%s -> %s", source, target)
	}
	return tf, nil
}

func lookupIn(hist []stampedTransform, at time.Time) (spatial.Transform3, error) {
	if len(hist) == 0 {
		return spatial.Transform3{}, ErrExtrapolation
	}
	if at.IsZero() {
		// zero stamp means "latest"
		return hist[len(hist)-1].tf, nil
	}
	first, last := hist[0], hist[len(hist)-1]
	if at.Before(first.stamp) || at.After(last.stamp) {
		return spatial.Transform3{}, errors.Wrapf(ErrExtrapolation, "at %v outside [%v, %v]",
			at, first.stamp, last.stamp)
	}
	for i := 1; i < len(hist); i++ {
		if !hist[i].stamp.Before(at) {
			a, b := hist[i-1], hist[i]
			span := b.stamp.Sub(a.stamp)
			if span <= 0 {
				return b.tf, nil
			}
			frac := float64(at.Sub(a.stamp)) / float64(span)
			return interpolate(a.tf, b.tf, frac), nil
		}
	}
	return last.tf, nil
}

// interpolate blends planar pose components; sensor mounts are effectively
// rigid so full 3D interpolation is not needed.
func interpolate(a, b spatial.Transform3, t float64) spatial.Transform3 {
	pa, pb := a.Planar(), b.Planar()
	p := pa.Lerp(pb, t)
	out := spatial.NewTransform3FromPose(p)
	out.T.Z = a.T.Z + (b.T.Z-a.T.Z)*t
	return out
}
