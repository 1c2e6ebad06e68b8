package renderer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vesta-engine/vesta/engine/resources"
)

// Backend is the device-facing half of the renderer. Implementations own
// the backing store behind texture.InternalData.
type Backend interface {
	Initialize(appName string) error
	Shutdown() error
	TextureCreate(pixels []uint8, texture *resources.Texture) error
	TextureDestroy(texture *resources.Texture) error
	TextureCreateWriteable(texture *resources.Texture) error
	TextureResize(texture *resources.Texture, newWidth, newHeight uint32) error
	TextureWriteData(texture *resources.Texture, offset, size uint32, pixels []uint8) error
}

type Factory func() Backend

type registration struct {
	factory  Factory
	priority int
}

var registryMu sync.RWMutex
var registry = map[string]registration{}

// Register makes a backend available under the given name. Backends with a
// higher priority win the default pick. Registering the same name twice
// panics.
func Register(name string, priority int, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("renderer: Register with a nil factory")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("renderer: Register called twice for backend '%s'", name))
	}
	registry[name] = registration{factory: factory, priority: priority}
}

// Get instantiates the named backend.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	reg, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no renderer backend named '%s' (available: %v)", name, Backends())
	}
	return reg.factory(), nil
}

// Default instantiates the registered backend with the highest priority.
func Default() (string, Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	best := ""
	bestPriority := 0
	for name, reg := range registry {
		if best == "" || reg.priority > bestPriority {
			best = name
			bestPriority = reg.priority
		}
	}
	if best == "" {
		return "", nil, fmt.Errorf("no renderer backends registered")
	}
	return best, registry[best].factory(), nil
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
