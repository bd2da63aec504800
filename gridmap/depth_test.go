package gridmap

import (
	"image"
	"testing"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"go.viam.com/test"
)

func TestDepthCodecRoundTrip(t *testing.T) {
	const w, h = 4, 3
	depths := []float64{
		0, 0.5, 1.0, 1.5,
		2.0, 2.5, 3.0, 3.5,
		4.0, 4.5, 5.0, 60.0,
	}
	png, err := EncodeDepth16(depths, w, h)
	test.That(t, err, test.ShouldBeNil)

	decoded, err := DecodeCompressedDepth(msgs.CompressedDepthImage{
		Encoding: msgs.DepthEncoding16UC1,
		PNG:      png,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Width, test.ShouldEqual, w)
	test.That(t, decoded.Height, test.ShouldEqual, h)
	for i, d := range depths {
		test.That(t, decoded.Depths[i], test.ShouldAlmostEqual, d, 1e-3)
	}
}

func TestDepthCodecInverseQuantized(t *testing.T) {
	// quantized inverse depth: q = a/d + b
	const a, b = 100.0, 100.0
	depths := []float64{2.0}
	raw := []float64{(a/2.0 + b) / 1000.0} // encode via the 16UC1 helper's mm scaling
	png, err := EncodeDepth16(raw, 1, 1)
	test.That(t, err, test.ShouldBeNil)

	decoded, err := DecodeCompressedDepth(msgs.CompressedDepthImage{
		Encoding:    msgs.DepthEncoding32FC1,
		DepthQuantA: a,
		DepthQuantB: b,
		PNG:         png,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Depths[0], test.ShouldAlmostEqual, depths[0], 1e-6)
}

func TestDepthCodecRejectsBadPayload(t *testing.T) {
	_, err := DecodeCompressedDepth(msgs.CompressedDepthImage{
		Encoding: msgs.DepthEncoding16UC1,
		PNG:      []byte("not a png"),
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDepthCameraMarksObstacle(t *testing.T) {
	_, tf, deps, data, stamp := laserTestEnv(t)

	// camera 0.5 m above the origin, optical z looking along +x, optical y down:
	// roll -90 then yaw -90 maps (x right, y down, z forward) onto the map frame
	camTF := spatial.NewTransform3(r3VecZ(0.5), spatial.EulerAngles{Roll: -1.5707963267948966, Yaw: -1.5707963267948966})
	tf.Set("map", "camera", stamp, camTF)

	layer := &DepthCameraLayer{name: "front_depth"}
	err := layer.Initialize(utils.AttributeMap{
		"topic": "depth",
		"intrinsics": map[string]interface{}{
			"fx": 100.0, "fy": 100.0, "cx": 2.0, "cy": 2.0,
		},
		"pixel_stride": 1,
	}, deps)
	test.That(t, err, test.ShouldBeNil)
	defer layer.Close()
	test.That(t, layer.MapDataChanged(data), test.ShouldBeNil)

	// flat 5x5 image at 2 m depth
	const w, h = 5, 5
	depths := make([]float64, w*h)
	for i := range depths {
		depths[i] = 2.0
	}
	png, err := EncodeDepth16(depths, w, h)
	test.That(t, err, test.ShouldBeNil)

	msg := msgs.CompressedDepthImage{
		Header:   msgs.Header{Stamp: stamp, FrameID: "camera"},
		Encoding: msgs.DepthEncoding16UC1,
		PNG:      png,
	}

	grid := data.Grid
	grid.Lock()
	defer grid.Unlock()
	test.That(t, layer.mark(grid, msg, camTF, grid.Dimensions().Bounds()), test.ShouldBeNil)

	// centre pixel back-projects to (2, 0) in front of the robot
	test.That(t, grid.At(image.Point{140, 100}), test.ShouldBeGreaterThan, 0)
	// free space on the way there
	test.That(t, grid.At(image.Point{120, 100}), test.ShouldBeLessThan, 0)
}
