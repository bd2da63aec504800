package gridmap

import (
	"sync"

	"github.com/pkg/errors"
)

// LayerConstructor builds an uninitialised layer with the given instance name.
type LayerConstructor func(name string) Layer

var (
	layerRegistryMu sync.RWMutex
	layerRegistry   = map[string]LayerConstructor{}
)

// RegisterLayer registers a layer kind by type name.
func RegisterLayer(kind string, ctor LayerConstructor) {
	layerRegistryMu.Lock()
	defer layerRegistryMu.Unlock()
	if _, ok := layerRegistry[kind]; ok {
		panic("duplicate layer registration: " + kind)
	}
	layerRegistry[kind] = ctor
}

// NewLayer builds a layer of the given kind.
func NewLayer(kind, name string) (Layer, error) {
	layerRegistryMu.RLock()
	defer layerRegistryMu.RUnlock()
	ctor, ok := layerRegistry[kind]
	if !ok {
		return nil, errors.Errorf("unknown layer kind %q", kind)
	}
	return ctor(name), nil
}
