package autonomy

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

const sampleConfig = `{
	"global_frame": "map",
	"clear_radius": 1.5,
	"path_planner_frequency": 0.5,
	"trajectory_planner_frequency": 10,
	"controller_frequency": 20,
	"path_swap_fraction": 0.8,
	"localisation_timeout": 5.0,
	"layers": [
		{"name": "front_laser", "type": "laser", "attributes": {"topic": "scan", "hit_probability": 0.8}},
		{"name": "sonar", "type": "range", "attributes": {"sub_sample": 2}}
	],
	"path_planner": {"type": "omni_rrt", "attributes": {"robot_radius": 0.4}},
	"trajectory_planner": {"type": "sim_band", "attributes": {"desired_speed": 0.5}},
	"controller": {"type": "band_tracker", "attributes": {}}
}`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autonomy.json")
	test.That(t, os.WriteFile(path, []byte(sampleConfig), 0o644), test.ShouldBeNil)

	conf, err := LoadConfig(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ClearRadius, test.ShouldAlmostEqual, 1.5)
	test.That(t, conf.PathPlanner.Type, test.ShouldEqual, "omni_rrt")
	test.That(t, len(conf.Layers), test.ShouldEqual, 2)
	test.That(t, conf.Layers[0].Attributes["topic"], test.ShouldEqual, "scan")
	// defaults survive a partial file
	test.That(t, conf.OdomTopic, test.ShouldEqual, "odom")
	test.That(t, conf.PathPersistenceTime, test.ShouldAlmostEqual, 6.0)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autonomy.json")
	test.That(t, os.WriteFile(path, []byte(`{"path_swap_fraction": 7}`), 0o644), test.ShouldBeNil)
	_, err := LoadConfig(path)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateGoalStates(t *testing.T) {
	test.That(t, GoalSucceeded.terminal(), test.ShouldBeTrue)
	test.That(t, GoalExecuting.terminal(), test.ShouldBeFalse)
	test.That(t, GoalPreempted.String(), test.ShouldEqual, "preempted")
}
