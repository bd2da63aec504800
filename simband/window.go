package simband

import (
	"github.com/2lambda123/Boeing-modular-navigation/navigation"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
)

// MovingWindow is the contiguous slice of the nominal path the band relaxes
// over, advanced along the path as the robot makes progress.
type MovingWindow struct {
	Nominal *navigation.Path
	Window  Band
	EndI    int

	startI  int
	offsets []spatial.Point
}

// NewMovingWindow starts a window at the head of the path.
func NewMovingWindow(path *navigation.Path, offsets []spatial.Point) *MovingWindow {
	return &MovingWindow{Nominal: path, offsets: offsets}
}

// Reset discards the simulated band; the next Update rebuilds it from the
// nominal path.
func (w *MovingWindow) Reset() {
	w.Window.Nodes = nil
}

// Update advances the window start to the nominal node nearest the robot and
// grows the end until the window spans maxLength along the path. Newly
// exposed nominal nodes are appended to the simulated band; passed band nodes
// are dropped from the front.
func (w *MovingWindow) Update(robot spatial.Pose, maxLength float64) {
	nodes := w.Nominal.Nodes
	if len(nodes) == 0 {
		return
	}

	// monotonic advance of the start index
	for w.startI+1 < len(nodes) &&
		robot.Distance(nodes[w.startI+1]) <= robot.Distance(nodes[w.startI]) {
		w.startI++
	}

	newEnd := w.startI
	var acc float64
	for newEnd+1 < len(nodes) && acc < maxLength {
		acc += nodes[newEnd].Distance(nodes[newEnd+1])
		newEnd++
	}

	if len(w.Window.Nodes) == 0 {
		for i := w.startI; i <= newEnd; i++ {
			w.Window.Nodes = append(w.Window.Nodes, NewNode(nodes[i], w.offsets))
		}
	} else {
		for len(w.Window.Nodes) > 1 &&
			robot.Distance(w.Window.Nodes[1].Pose) < robot.Distance(w.Window.Nodes[0].Pose) {
			w.Window.Nodes = w.Window.Nodes[1:]
		}
		for i := w.EndI + 1; i <= newEnd; i++ {
			w.Window.Nodes = append(w.Window.Nodes, NewNode(nodes[i], w.offsets))
		}
	}
	w.EndI = newEnd
}
