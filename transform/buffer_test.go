package transform

import (
	"testing"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestLookupInterpolates(t *testing.T) {
	buf := NewStaticBuffer(0)
	t0 := time.Unix(100, 0)
	buf.Set("map", "odom", t0, spatial.NewTransform3FromPose(spatial.NewPose(0, 0, 0)))
	buf.Set("map", "odom", t0.Add(time.Second), spatial.NewTransform3FromPose(spatial.NewPose(2, 0, 0.4)))

	tf, err := buf.Lookup("map", "odom", t0.Add(500*time.Millisecond))
	test.That(t, err, test.ShouldBeNil)
	p := tf.Planar()
	test.That(t, p.X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, p.Theta, test.ShouldAlmostEqual, 0.2, 1e-9)
}

func TestLookupLatestOnZeroStamp(t *testing.T) {
	buf := NewStaticBuffer(0)
	buf.Set("map", "odom", time.Unix(100, 0), spatial.NewTransform3FromPose(spatial.NewPose(1, 1, 0)))
	buf.Set("map", "odom", time.Unix(101, 0), spatial.NewTransform3FromPose(spatial.NewPose(5, 5, 0)))

	tf, err := buf.Lookup("map", "odom", time.Time{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.Planar().X, test.ShouldAlmostEqual, 5)
}

func TestLookupErrors(t *testing.T) {
	buf := NewStaticBuffer(0)
	_, err := buf.Lookup("map", "base_link", time.Unix(1, 0))
	test.That(t, errors.Is(err, ErrUnknownFrame), test.ShouldBeTrue)

	buf.Set("map", "base_link", time.Unix(100, 0), spatial.Identity3())
	_, err = buf.Lookup("map", "base_link", time.Unix(200, 0))
	test.That(t, errors.Is(err, ErrExtrapolation), test.ShouldBeTrue)
}

func TestLookupInversePair(t *testing.T) {
	buf := NewStaticBuffer(0)
	at := time.Unix(100, 0)
	buf.Set("base_link", "laser", at, spatial.NewTransform3(r3.Vector{X: 0.2, Z: 0.3}, spatial.EulerAngles{}))

	tf, err := buf.Lookup("laser", "base_link", at)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.T.X, test.ShouldAlmostEqual, -0.2, 1e-9)
	test.That(t, tf.T.Z, test.ShouldAlmostEqual, -0.3, 1e-9)
}
