package navigation

import (
	"sync"

	"github.com/pkg/errors"
)

// Plugin constructors are registered by name at init time and selected by
// configuration.
type (
	// PathPlannerConstructor builds an uninitialised path planner.
	PathPlannerConstructor func() PathPlanner
	// TrajectoryPlannerConstructor builds an uninitialised trajectory planner.
	TrajectoryPlannerConstructor func() TrajectoryPlanner
	// ControllerConstructor builds an uninitialised controller.
	ControllerConstructor func() Controller
)

var (
	registryMu         sync.RWMutex
	pathPlanners       = map[string]PathPlannerConstructor{}
	trajectoryPlanners = map[string]TrajectoryPlannerConstructor{}
	controllers        = map[string]ControllerConstructor{}
)

// RegisterPathPlanner registers a path planner plugin.
func RegisterPathPlanner(name string, ctor PathPlannerConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := pathPlanners[name]; ok {
		panic("duplicate path planner registration: " + name)
	}
	pathPlanners[name] = ctor
}

// RegisterTrajectoryPlanner registers a trajectory planner plugin.
func RegisterTrajectoryPlanner(name string, ctor TrajectoryPlannerConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := trajectoryPlanners[name]; ok {
		panic("duplicate trajectory planner registration: " + name)
	}
	trajectoryPlanners[name] = ctor
}

// RegisterController registers a controller plugin.
func RegisterController(name string, ctor ControllerConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := controllers[name]; ok {
		panic("duplicate controller registration: " + name)
	}
	controllers[name] = ctor
}

// NewPathPlanner builds the named path planner.
func NewPathPlanner(name string) (PathPlanner, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := pathPlanners[name]
	if !ok {
		return nil, errors.Errorf("unknown path planner %q", name)
	}
	return ctor(), nil
}

// NewTrajectoryPlanner builds the named trajectory planner.
func NewTrajectoryPlanner(name string) (TrajectoryPlanner, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := trajectoryPlanners[name]
	if !ok {
		return nil, errors.Errorf("unknown trajectory planner %q", name)
	}
	return ctor(), nil
}

// NewController builds the named controller.
func NewController(name string) (Controller, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := controllers[name]
	if !ok {
		return nil, errors.Errorf("unknown controller %q", name)
	}
	return ctor(), nil
}
