package simband

import (
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"gonum.org/v1/gonum/interp"
)

// resampleSpline fits a cubic through the band node positions and resamples
// at the given spacing, interpolating headings by shortest arc. The original
// band nodes are kept at their parameter positions so anchors survive.
func resampleSpline(band *Band, spacing float64) (*Band, error) {
	if len(band.Nodes) < 3 {
		return band, nil
	}

	// chord-length parameterisation; coincident nodes are collapsed
	var (
		params []float64
		nodes  []*Node
	)
	params = append(params, 0)
	nodes = append(nodes, band.Nodes[0])
	for _, n := range band.Nodes[1:] {
		d := nodes[len(nodes)-1].Pose.Distance(n.Pose)
		if d < 1e-9 {
			continue
		}
		params = append(params, params[len(params)-1]+d)
		nodes = append(nodes, n)
	}
	if len(nodes) < 3 {
		return band, nil
	}

	xs := make([]float64, len(nodes))
	ys := make([]float64, len(nodes))
	for i, n := range nodes {
		xs[i] = n.Pose.X
		ys[i] = n.Pose.Y
	}

	var splineX, splineY interp.NaturalCubic
	if err := splineX.Fit(params, xs); err != nil {
		return nil, err
	}
	if err := splineY.Fit(params, ys); err != nil {
		return nil, err
	}

	out := &Band{}
	for i := 0; i+1 < len(nodes); i++ {
		a, b := nodes[i], nodes[i+1]
		span := params[i+1] - params[i]
		steps := int(span / spacing)
		out.Nodes = append(out.Nodes, a)
		for s := 1; s <= steps; s++ {
			frac := float64(s) / float64(steps+1)
			p := params[i] + frac*span
			pose := spatial.NewPose(
				splineX.Predict(p),
				splineY.Predict(p),
				a.Pose.Lerp(b.Pose, frac).Theta,
			)
			out.Nodes = append(out.Nodes, NewNode(pose, offsetsOf(a)))
		}
	}
	out.Nodes = append(out.Nodes, nodes[len(nodes)-1])
	return out, nil
}
