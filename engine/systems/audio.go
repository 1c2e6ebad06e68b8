package systems

import (
	"fmt"
	"sync"

	"github.com/vesta-engine/vesta/engine/assets"
	"github.com/vesta-engine/vesta/engine/audio"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/loader"
	"github.com/vesta-engine/vesta/engine/resources"
)

type AudioSystemConfig struct {
	/** @brief The maximum number of audio buffers that can be loaded at once. */
	MaxBufferCount uint32
}

// AudioSystem tracks decoded audio buffers by name with reference counts,
// the same way the texture system tracks textures. Acquiring an unknown
// name enqueues an asynchronous load; Generation stays InvalidID until the
// decode lands.
type AudioSystem struct {
	Config *AudioSystemConfig

	RegisteredBuffers     []*resources.AudioBuffer
	RegisteredBufferTable map[string]*resources.Reference

	// The decode handler runs on the loader's dispatcher goroutine.
	mutex sync.Mutex

	assetManager *assets.Manager
	loader       *loader.AsyncLoader
}

func NewAudioSystem(config *AudioSystemConfig, am *assets.Manager) (*AudioSystem, error) {
	if config.MaxBufferCount == 0 {
		err := fmt.Errorf("func NewAudioSystem - config.MaxBufferCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	as := &AudioSystem{
		Config:                config,
		RegisteredBuffers:     make([]*resources.AudioBuffer, config.MaxBufferCount),
		RegisteredBufferTable: make(map[string]*resources.Reference),
		assetManager:          am,
	}

	for i := uint32(0); i < config.MaxBufferCount; i++ {
		as.RegisteredBuffers[i] = &resources.AudioBuffer{
			ID:         resources.InvalidID,
			Generation: resources.InvalidID,
		}
	}

	return as, nil
}

func (as *AudioSystem) BindLoader(l *loader.AsyncLoader) {
	as.loader = l
}

func (as *AudioSystem) Shutdown() error {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	for i := uint32(0); i < as.Config.MaxBufferCount; i++ {
		b := as.RegisteredBuffers[i]
		b.Samples = nil
		b.ID = resources.InvalidID
		b.Generation = resources.InvalidID
	}
	as.RegisteredBufferTable = make(map[string]*resources.Reference)
	return nil
}

/**
 * @brief Attempts to acquire an audio buffer with the given name. An
 * unknown name registers a buffer and enqueues an asynchronous load for it;
 * a known one has its reference count incremented. The returned buffer
 * carries an InvalidID generation until its samples arrive.
 */
func (as *AudioSystem) Acquire(name string, autoRelease bool) (*resources.AudioBuffer, error) {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	ref, exists := as.RegisteredBufferTable[name]
	if !exists {
		ref = &resources.Reference{Handle: resources.InvalidID, AutoRelease: autoRelease}
		as.RegisteredBufferTable[name] = ref
	}
	ref.ReferenceCount++

	if ref.Handle != resources.InvalidID {
		return as.RegisteredBuffers[ref.Handle], nil
	}

	handle := as.findFreeSlot()
	if handle == resources.InvalidID {
		as.rollbackReference(name, ref)
		err := fmt.Errorf("audio system cannot hold any more buffers, adjust MaxBufferCount")
		core.LogError(err.Error())
		return nil, err
	}

	b := as.RegisteredBuffers[handle]
	b.ID = handle
	b.Name = name
	b.Generation = resources.InvalidID
	ref.Handle = handle

	path, err := as.assetManager.ResolvePath(resources.ResourceTypeAudio, name)
	if err != nil {
		as.rollbackBuffer(name, ref, b)
		return nil, err
	}
	if as.loader == nil || !as.loader.EnqueueAudioLoad(path, b) {
		as.rollbackBuffer(name, ref, b)
		return nil, fmt.Errorf("failed to enqueue load for audio buffer '%s'", name)
	}
	return b, nil
}

func (as *AudioSystem) Release(name string) {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	ref, exists := as.RegisteredBufferTable[name]
	if !exists || ref.ReferenceCount == 0 {
		core.LogWarn("tried to release non-acquired audio buffer '%s'", name)
		return
	}
	ref.ReferenceCount--

	if ref.ReferenceCount == 0 && ref.AutoRelease {
		b := as.RegisteredBuffers[ref.Handle]
		b.Samples = nil
		b.ID = resources.InvalidID
		b.Generation = resources.InvalidID
		b.Name = ""
		delete(as.RegisteredBufferTable, name)
		core.LogDebug("released audio buffer '%s' with no references left", name)
	}
}

// Reload re-enqueues the sample data of an already registered buffer.
func (as *AudioSystem) Reload(name string) bool {
	as.mutex.Lock()
	ref, exists := as.RegisteredBufferTable[name]
	if !exists || ref.Handle == resources.InvalidID {
		as.mutex.Unlock()
		return false
	}
	b := as.RegisteredBuffers[ref.Handle]
	as.mutex.Unlock()

	path, err := as.assetManager.ResolvePath(resources.ResourceTypeAudio, name)
	if err != nil {
		core.LogWarn("reload of audio buffer '%s': %s", name, err.Error())
		return false
	}
	return as.loader != nil && as.loader.EnqueueAudioLoad(path, b)
}

/**
 * @brief Decodes an audio payload into the target buffer.
 *
 * Runs on the loader's dispatcher goroutine as the audio handler. The
 * generation increments on a reload; the first decode sets it to 0.
 */
func (as *AudioSystem) DecodeInto(buffer *resources.AudioBuffer, payload []byte) error {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	previousGeneration := buffer.Generation
	if err := audio.DecodeWAVInto(buffer, payload); err != nil {
		return err
	}

	if previousGeneration == resources.InvalidID {
		buffer.Generation = 0
	} else {
		buffer.Generation = previousGeneration + 1
	}
	return nil
}

func (as *AudioSystem) findFreeSlot() uint32 {
	for i := uint32(0); i < as.Config.MaxBufferCount; i++ {
		if as.RegisteredBuffers[i].ID == resources.InvalidID {
			return i
		}
	}
	return resources.InvalidID
}

func (as *AudioSystem) rollbackReference(name string, ref *resources.Reference) {
	ref.ReferenceCount--
	if ref.ReferenceCount == 0 {
		delete(as.RegisteredBufferTable, name)
	}
}

func (as *AudioSystem) rollbackBuffer(name string, ref *resources.Reference, b *resources.AudioBuffer) {
	b.ID = resources.InvalidID
	b.Generation = resources.InvalidID
	b.Name = ""
	ref.Handle = resources.InvalidID
	as.rollbackReference(name, ref)
}
