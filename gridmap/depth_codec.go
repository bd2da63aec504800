package gridmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/pkg/errors"
)

// DepthImage is a decoded metric depth image. Depths are metres, row-major
// from the top-left pixel; zero means no reading.
type DepthImage struct {
	Width  int
	Height int
	Depths []float64
}

// At returns the depth at pixel (u, v).
func (d *DepthImage) At(u, v int) float64 {
	return d.Depths[v*d.Width+u]
}

// DecodeCompressedDepth decodes a PNG-compressed depth payload to metres.
//
// 16UC1 images carry millimetre depths directly. 32FC1 images carry inverse
// depths quantized to 16 bits; metric depth is depth_quant_a / (q - depth_quant_b).
func DecodeCompressedDepth(msg msgs.CompressedDepthImage) (*DepthImage, error) {
	img, err := png.Decode(bytes.NewReader(msg.PNG))
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode depth png")
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, errors.Errorf("depth png is %T, want 16-bit grayscale", img)
	}

	bounds := gray.Bounds()
	out := &DepthImage{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Depths: make([]float64, bounds.Dx()*bounds.Dy()),
	}

	for v := 0; v < out.Height; v++ {
		for u := 0; u < out.Width; u++ {
			raw := gray.Gray16At(bounds.Min.X+u, bounds.Min.Y+v).Y
			if raw == 0 {
				continue
			}
			switch msg.Encoding {
			case msgs.DepthEncoding16UC1:
				out.Depths[v*out.Width+u] = float64(raw) / 1000.0
			case msgs.DepthEncoding32FC1:
				if msg.DepthQuantA == 0 {
					return nil, errors.New("32FC1 depth image without quantization parameters")
				}
				out.Depths[v*out.Width+u] = msg.DepthQuantA / (float64(raw) - msg.DepthQuantB)
			default:
				return nil, errors.Errorf("unsupported depth encoding %q", msg.Encoding)
			}
		}
	}
	return out, nil
}

// EncodeDepth16 packs metre depths into a 16UC1 PNG payload. Used by tests
// and the recording tools; the inverse of DecodeCompressedDepth for 16UC1.
func EncodeDepth16(depths []float64, width, height int) ([]byte, error) {
	if len(depths) != width*height {
		return nil, errors.Errorf("depth image has %d samples, want %d", len(depths), width*height)
	}
	gray := image.NewGray16(image.Rect(0, 0, width, height))
	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			mm := depths[v*width+u] * 1000.0
			if mm < 0 {
				mm = 0
			}
			if mm > 65535 {
				mm = 65535
			}
			gray.SetGray16(u, v, color.Gray16{Y: uint16(mm)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
