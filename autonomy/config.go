package autonomy

import (
	"encoding/json"
	"os"

	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/spatial"
	"github.com/2lambda123/Boeing-modular-navigation/utils"
	"github.com/pkg/errors"
)

// PluginConfig selects a registered plugin and carries its attribute block.
type PluginConfig struct {
	Type       string             `json:"type"`
	Attributes utils.AttributeMap `json:"attributes"`
}

// LayerConfig declares one sensor layer. Order in the config is the stable
// apply order.
type LayerConfig struct {
	Name       string             `json:"name"`
	Type       string             `json:"type"`
	Attributes utils.AttributeMap `json:"attributes"`
}

// Config is the supervisor configuration.
type Config struct {
	GlobalFrame string `json:"global_frame"`
	OdomFrame   string `json:"odom_frame"`
	RobotFrame  string `json:"robot_frame"`

	OdomTopic          string `json:"odom_topic"`
	CmdVelTopic        string `json:"cmd_vel_topic"`
	CostmapTopic       string `json:"costmap_topic"`
	CostmapUpdateTopic string `json:"costmap_update_topic"`

	MapPublishFrequency        float64 `json:"map_publish_frequency"`
	ClearRadius                float64 `json:"clear_radius"`
	PathPlannerFrequency       float64 `json:"path_planner_frequency"`
	TrajectoryPlannerFrequency float64 `json:"trajectory_planner_frequency"`
	ControllerFrequency        float64 `json:"controller_frequency"`
	PathSwapFraction           float64 `json:"path_swap_fraction"`
	LocalisationTimeout        float64 `json:"localisation_timeout"`
	PathPersistenceTime        float64 `json:"path_persistence_time"`
	GoalStaleTimeout           float64 `json:"goal_stale_timeout"`

	Footprint []spatial.Point `json:"footprint"`

	Map    gridmap.LayeredMapConfig `json:"map"`
	Layers []LayerConfig            `json:"layers"`

	PathPlanner       PluginConfig `json:"path_planner"`
	TrajectoryPlanner PluginConfig `json:"trajectory_planner"`
	Controller        PluginConfig `json:"controller"`
}

// DefaultConfig returns the supervisor defaults; plugin selections must still
// be filled in.
func DefaultConfig() Config {
	return Config{
		GlobalFrame:                "map",
		OdomFrame:                  "odom",
		RobotFrame:                 "base_link",
		OdomTopic:                  "odom",
		CmdVelTopic:                "cmd_vel",
		CostmapTopic:               "costmap",
		CostmapUpdateTopic:         "costmap_updates",
		MapPublishFrequency:        1.0,
		ClearRadius:                2.0,
		PathPlannerFrequency:       0.5,
		TrajectoryPlannerFrequency: 8.0,
		ControllerFrequency:        20.0,
		PathSwapFraction:           0.8,
		LocalisationTimeout:        5.0,
		PathPersistenceTime:        6.0,
		GoalStaleTimeout:           5.0,
		Footprint: []spatial.Point{
			{X: -0.3, Y: -0.25}, {X: 0.3, Y: -0.25}, {X: 0.3, Y: 0.25}, {X: -0.3, Y: 0.25},
		},
		Map: gridmap.DefaultLayeredMapConfig(),
	}
}

// Validate rejects configurations the supervisor cannot run with.
func (c *Config) Validate() error {
	if c.GlobalFrame == "" || c.OdomFrame == "" || c.RobotFrame == "" {
		return errors.New("frames must be set")
	}
	for _, freq := range []struct {
		name  string
		value float64
	}{
		{"map_publish_frequency", c.MapPublishFrequency},
		{"path_planner_frequency", c.PathPlannerFrequency},
		{"trajectory_planner_frequency", c.TrajectoryPlannerFrequency},
		{"controller_frequency", c.ControllerFrequency},
	} {
		if freq.value <= 0 {
			return errors.Errorf("%s must be positive, got %f", freq.name, freq.value)
		}
	}
	if c.ClearRadius <= 0 {
		return errors.Errorf("clear_radius must be positive, got %f", c.ClearRadius)
	}
	if c.PathSwapFraction <= 0 || c.PathSwapFraction > 1 {
		return errors.Errorf("path_swap_fraction must be in (0, 1], got %f", c.PathSwapFraction)
	}
	if c.LocalisationTimeout <= 0 {
		return errors.Errorf("localisation_timeout must be positive, got %f", c.LocalisationTimeout)
	}
	if len(c.Footprint) < 3 {
		return errors.New("footprint needs at least three points")
	}
	if err := c.Map.Validate(); err != nil {
		return err
	}
	if c.PathPlanner.Type == "" || c.TrajectoryPlanner.Type == "" || c.Controller.Type == "" {
		return errors.New("path_planner, trajectory_planner and controller plugins must be selected")
	}
	return nil
}

// LoadConfig reads a JSON configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	conf := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return conf, errors.Wrap(err, "cannot read config")
	}
	if err := json.Unmarshal(raw, &conf); err != nil {
		return conf, errors.Wrap(err, "cannot parse config")
	}
	if err := conf.Validate(); err != nil {
		return conf, err
	}
	return conf, nil
}
