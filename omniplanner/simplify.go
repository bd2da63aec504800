package omniplanner

import (
	"math/rand"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// shortcut randomly replaces path sections with straight segments while the
// budget lasts, keeping only collision-free shortcuts.
func shortcut(cm *Costmap, states []spatial.Pose, budget time.Duration, step float64, rng *rand.Rand) []spatial.Pose {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) && len(states) > 2 {
		i := rng.Intn(len(states) - 1)
		j := i + 1 + rng.Intn(len(states)-i-1)
		if j-i < 2 {
			continue
		}
		if segmentValid(cm, states[i], states[j], step) {
			states = append(states[:i+1], states[j:]...)
		}
	}
	return states
}

// segmentValid samples the straight motion between two states at the given
// spacing and checks every sample.
func segmentValid(cm *Costmap, a, b spatial.Pose, step float64) bool {
	d := a.Distance(b)
	n := int(d/step) + 1
	for k := 1; k <= n; k++ {
		if !stateValid(cm, a.Lerp(b, float64(k)/float64(n))) {
			return false
		}
	}
	return true
}

// interpolate inserts states along every segment at the given spacing.
func interpolate(states []spatial.Pose, step float64) []spatial.Pose {
	if len(states) < 2 {
		return states
	}
	out := []spatial.Pose{states[0]}
	for i := 1; i < len(states); i++ {
		a, b := states[i-1], states[i]
		n := int(a.Distance(b)/step) + 1
		for k := 1; k <= n; k++ {
			out = append(out, a.Lerp(b, float64(k)/float64(n)))
		}
	}
	return out
}

// checkAndRepair validates every state, nudging invalid intermediate states
// toward free space with random perturbations. It gives up after maxAttempts
// total samples or when an endpoint is itself invalid.
func checkAndRepair(cm *Costmap, states []spatial.Pose, maxAttempts int, radius float64, rng *rand.Rand) ([]spatial.Pose, bool) {
	attempts := 0
	for i, s := range states {
		if stateValid(cm, s) {
			continue
		}
		if i == 0 || i == len(states)-1 {
			return nil, false
		}
		repaired := false
		for !repaired {
			if attempts >= maxAttempts {
				return nil, false
			}
			attempts++
			candidate := spatial.NewPose(
				s.X+(rng.Float64()*2-1)*radius,
				s.Y+(rng.Float64()*2-1)*radius,
				s.Theta,
			)
			if stateValid(cm, candidate) {
				states[i] = candidate
				repaired = true
			}
		}
	}
	return states, true
}
