package simband

import (
	"math"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// simParams are the knobs of one band relaxation.
type simParams struct {
	Iterations     int
	MinOverlap     float64
	MinDistance    float64
	InternalGain   float64
	ExternalGain   float64
	RotationFactor float64
	Reverse        bool
	VelocityDecay  float64
	Alpha          float64
	AlphaDecay     float64
	MaxDistance    float64
}

// maxBandNodes bounds bubble insertion so a degenerate field cannot grow the
// band without limit.
const maxBandNodes = 200

// updateDistances refreshes every control point against the field and picks
// each node's closest point. Distances are capped at maxDistance.
func updateDistances(band *Band, df *DistanceField, maxDistance float64) {
	for _, n := range band.Nodes {
		n.Closest = 0
		for i := range n.Control {
			pt := n.Pose.TransformPoint(n.Control[i].Offset)
			d := df.Distance(pt)
			if d > maxDistance {
				d = maxDistance
			}
			n.Control[i].Distance = d
			n.Control[i].Gradient = df.Gradient(pt)
			if d < n.Control[n.Closest].Distance {
				n.Closest = i
			}
		}
	}
}

// simulate relaxes the band: internal contraction toward neighbour midpoints,
// external repulsion along the distance-field gradient, optional rotational
// alignment with the direction of travel, all with velocity damping and a
// decaying step size. The first and last nodes are anchored.
func simulate(band *Band, df *DistanceField, p simParams) {
	alpha := p.Alpha
	for it := 0; it < p.Iterations; it++ {
		updateDistances(band, df, p.MaxDistance)
		maintainOverlap(band, p)

		for i := 1; i < len(band.Nodes)-1; i++ {
			n := band.Nodes[i]
			prev := band.Nodes[i-1]
			next := band.Nodes[i+1]

			mid := prev.Pose.Translation().Add(next.Pose.Translation()).Scale(0.5)
			internal := mid.Sub(n.Pose.Translation()).Scale(p.InternalGain)

			var external spatial.Point
			cp := n.Control[n.Closest]
			if cp.Distance < p.MaxDistance {
				external = cp.Gradient.Scale(p.ExternalGain * (p.MaxDistance - cp.Distance))
			}

			force := internal.Add(external)
			n.velocity = n.velocity.Scale(p.VelocityDecay).Add(force.Scale(alpha))
			n.Pose.X += n.velocity.X
			n.Pose.Y += n.velocity.Y

			if p.RotationFactor > 0 {
				heading := math.Atan2(next.Pose.Y-prev.Pose.Y, next.Pose.X-prev.Pose.X)
				if p.Reverse {
					heading = spatial.NormalizeAngle(heading + math.Pi)
				}
				torque := p.RotationFactor * spatial.AngleDiff(n.Pose.Theta, heading)
				n.angular = n.angular*p.VelocityDecay + alpha*torque
				n.Pose.Theta = spatial.NormalizeAngle(n.Pose.Theta + n.angular)
			}
		}
		alpha *= p.AlphaDecay
	}
	updateDistances(band, df, p.MaxDistance)
}

// maintainOverlap keeps consecutive bubbles overlapping: a node is inserted
// where neighbours drift apart and removed where its neighbours already
// overlap without it.
func maintainOverlap(band *Band, p simParams) {
	// insert
	for i := 0; i+1 < len(band.Nodes) && len(band.Nodes) < maxBandNodes; i++ {
		a, b := band.Nodes[i], band.Nodes[i+1]
		gap := a.Pose.Distance(b.Pose)
		if gap > p.MinOverlap*(a.Radius(p.MinDistance)+b.Radius(p.MinDistance)) {
			mid := NewNode(a.Pose.Lerp(b.Pose, 0.5), offsetsOf(a))
			band.Nodes = append(band.Nodes[:i+1], append([]*Node{mid}, band.Nodes[i+1:]...)...)
			i++
		}
	}
	// remove
	for i := 1; i+1 < len(band.Nodes); i++ {
		a, c := band.Nodes[i-1], band.Nodes[i+1]
		if a.Pose.Distance(c.Pose) < p.MinOverlap*(a.Radius(p.MinDistance)+c.Radius(p.MinDistance)) {
			band.Nodes = append(band.Nodes[:i], band.Nodes[i+1:]...)
			i--
		}
	}
}

func offsetsOf(n *Node) []spatial.Point {
	offsets := make([]spatial.Point, len(n.Control))
	for i, cp := range n.Control {
		offsets[i] = cp.Offset
	}
	return offsets
}
