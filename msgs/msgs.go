// Package msgs defines the message types exchanged over the transport bus.
// They mirror the wire formats of the external sensor and control topics; the
// drivers producing them are out of scope.
package msgs

import (
	"time"

	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/golang/geo/r3"
)

// Header carries the stamp and originating frame of a message.
type Header struct {
	Stamp   time.Time
	FrameID string
}

// LaserScan is a planar scan: evenly spaced bearings with one range each.
type LaserScan struct {
	Header         Header
	AngleMin       float64
	AngleIncrement float64
	RangeMax       float64
	Ranges         []float64
}

// Range is a single cone-shaped range measurement (sonar, IR).
type Range struct {
	Header      Header
	FieldOfView float64
	Range       float64
	MaxRange    float64
}

// DepthEncoding identifies the payload format of a compressed depth image.
type DepthEncoding string

// Supported depth encodings.
const (
	DepthEncoding16UC1 = DepthEncoding("16UC1")
	DepthEncoding32FC1 = DepthEncoding("32FC1")
)

// CompressedDepthImage is a PNG-compressed depth image. For 16UC1 the PNG
// holds millimetre depths; for 32FC1 it holds quantized inverse depths
// parameterised by DepthQuantA and DepthQuantB.
type CompressedDepthImage struct {
	Header      Header
	Encoding    DepthEncoding
	DepthQuantA float64
	DepthQuantB float64
	PNG         []byte
}

// Twist is a planar velocity command.
type Twist struct {
	LinearX  float64
	LinearY  float64
	AngularZ float64
}

// Odometry is the robot's kinodynamic state estimate in the odom frame.
type Odometry struct {
	Header       Header
	ChildFrameID string
	Pose         spatial.Pose
	Velocity     r3.Vector
}

// PoseStamped is a pose tagged with a frame and stamp, used for goals.
type PoseStamped struct {
	Header Header
	Pose   spatial.Pose
}

// MapMetaData describes the geometry of an occupancy grid message.
type MapMetaData struct {
	Resolution float64
	Width      int
	Height     int
	Origin     spatial.Pose
}

// OccupancyGrid is a static or published occupancy image. Data is row-major
// from the lower-left cell: 100 occupied, 0 free, -1 unknown.
type OccupancyGrid struct {
	Header Header
	Info   MapMetaData
	Data   []int8
}

// OccupancyGridUpdate is a bounded patch of an occupancy grid.
type OccupancyGridUpdate struct {
	Header Header
	MinX   int
	MinY   int
	Width  int
	Height int
	Data   []int8
}

// MapInfo describes an HD map as served by the map manager.
type MapInfo struct {
	Name        string
	Description string
	Created     time.Time
	Modified    time.Time
	Meta        MapMetaData
}
