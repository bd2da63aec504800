package gridmap

import (
	"image"
	"sync"
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/msgs"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/transform"
	"github.com/2lambda123/Boeing-modular-navigation/transport"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"
)

// LayerDeps are the collaborators handed to every layer at initialize time.
type LayerDeps struct {
	Bus         *transport.Bus
	TF          transform.Buffer
	GlobalFrame string
	RobotFrame  string
	Footprint   []spatial.Point
	Logger      golog.Logger
}

// Layer is one sensor data source feeding the shared grid.
//
// Initialize subscribes and validates configuration; configuration errors are
// fatal. MapDataChanged hands the layer the (new) shared map data. Apply
// ray-traces the latest accepted sensor message into the shared cell store,
// restricted to region; the caller holds the grid mutex.
type Layer interface {
	Name() string
	Initialize(attrs utils.AttributeMap, deps LayerDeps) error
	MapDataChanged(data *MapData) error
	Apply(region image.Rectangle) error
	Close()
}

// topicSource is the shared skeleton of the sensor layers: one subscription,
// sub-sample rate limiting, sensor-pose lookup at the message stamp, and
// storage of the latest accepted message.
type topicSource[M any] struct {
	name  string
	topic string
	deps  LayerDeps

	subSample      int
	subSampleCount int

	mu     sync.Mutex
	latest *M
	data   *MapData

	sub     *transport.Subscription
	workers sync.WaitGroup
}

// header extracts the stamp and frame of a message.
type headerFn[M any] func(M) msgs.Header

// init sets the source up before start; fields are assigned in place so the
// embedded synchronisation state is never copied.
func (s *topicSource[M]) init(name, topic string, deps LayerDeps, subSample int) {
	s.name = name
	s.topic = topic
	s.deps = deps
	s.subSample = subSample
}

// start subscribes and begins accepting messages. For each accepted message,
// apply is invoked with the grid mutex held.
func (s *topicSource[M]) start(header headerFn[M], apply func(msg M, sensorTF spatial.Transform3) error) {
	s.sub = s.deps.Bus.Subscribe(s.topic, 8)
	s.workers.Add(1)
	goutils.PanicCapturingGo(func() {
		defer s.workers.Done()
		for raw := range s.sub.C {
			msg, ok := raw.(M)
			if !ok {
				s.deps.Logger.Warnw("unexpected message type on topic", "topic", s.topic)
				continue
			}
			if !s.acceptSample() {
				continue
			}
			s.handle(msg, header, apply)
		}
	})
}

// acceptSample implements the integer sub-sample divisor.
func (s *topicSource[M]) acceptSample() bool {
	if s.subSample <= 0 {
		return true
	}
	s.subSampleCount++
	if s.subSampleCount > s.subSample {
		s.subSampleCount = 0
		return true
	}
	return false
}

func (s *topicSource[M]) handle(msg M, header headerFn[M], apply func(M, spatial.Transform3) error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	if data == nil {
		return
	}

	h := header(msg)
	sensorTF, err := s.deps.TF.Lookup(s.deps.GlobalFrame, h.FrameID, h.Stamp)
	if err != nil {
		s.deps.Logger.Warnw("dropping message, no sensor transform",
			"layer", s.name, "frame", h.FrameID, "error", err)
		return
	}

	s.mu.Lock()
	s.latest = &msg
	s.mu.Unlock()

	data.Grid.Lock()
	defer data.Grid.Unlock()
	if err := apply(msg, sensorTF); err != nil {
		s.deps.Logger.Warnw("layer update failed", "layer", s.name, "error", err)
	}
}

// reapply re-runs the latest accepted message, for composite updates. The
// caller holds the grid mutex.
func (s *topicSource[M]) reapply(header headerFn[M], apply func(M, spatial.Transform3) error) error {
	s.mu.Lock()
	msg := s.latest
	s.mu.Unlock()
	if msg == nil {
		return nil
	}
	h := header(*msg)
	sensorTF, err := s.deps.TF.Lookup(s.deps.GlobalFrame, h.FrameID, h.Stamp)
	if err != nil {
		return err
	}
	return apply(*msg, sensorTF)
}

func (s *topicSource[M]) setMapData(data *MapData) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

func (s *topicSource[M]) close() {
	if s.sub != nil {
		s.sub.Close()
	}
	s.workers.Wait()
}

// robotFootprintCells looks up the robot pose at the stamp and rasterises the
// footprint at scale 1.0 (not inflated). An empty result means the pose was
// unavailable.
func (s *topicSource[M]) robotFootprintCells(dims Dimensions, stamp time.Time) []image.Point {
	robotTF, err := s.deps.TF.Lookup(s.deps.GlobalFrame, s.deps.RobotFrame, stamp)
	if err != nil {
		s.deps.Logger.Debugw("no robot transform for footprint clear", "layer", s.name, "error", err)
		return nil
	}
	return FootprintCells(dims, robotTF.Planar(), s.deps.Footprint, 1.0)
}
