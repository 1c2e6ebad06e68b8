package systems

import (
	"path/filepath"
	"strings"

	"github.com/vesta-engine/vesta/engine/assets"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/loader"
	"github.com/vesta-engine/vesta/engine/renderer"
	"github.com/vesta-engine/vesta/engine/resources"
)

type SystemManagerConfig struct {
	AppName       string
	AssetBasePath string
	// Watch the asset tree and reload resources when files change.
	WatchAssets bool
	// Renderer backend name; empty picks the highest priority one.
	RendererBackend string

	MaxTextureCount     uint32
	MaxAudioBufferCount uint32
	LoaderReaders       int
	LoaderQueueCapacity int
}

// SystemManager owns the resource systems and the async loader feeding
// them. Construction order matters: the systems exist first, then the
// loader gets their handlers, then the loader is bound back into them.
type SystemManager struct {
	AssetManager  *assets.Manager
	Renderer      *renderer.Renderer
	TextureSystem *TextureSystem
	AudioSystem   *AudioSystem
	FontSystem    *FontSystem
	Loader        *loader.AsyncLoader

	watching bool
}

func NewSystemManager(config *SystemManagerConfig) (*SystemManager, error) {
	core.EventInitialize()
	if err := core.MetricsInitialize(); err != nil {
		return nil, err
	}

	if config.MaxTextureCount == 0 {
		config.MaxTextureCount = 1024
	}
	if config.MaxAudioBufferCount == 0 {
		config.MaxAudioBufferCount = 256
	}

	am, err := assets.NewManager(config.AssetBasePath, config.WatchAssets)
	if err != nil {
		return nil, err
	}

	r, err := renderer.New(config.RendererBackend, config.AppName)
	if err != nil {
		am.Close()
		return nil, err
	}

	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: config.MaxTextureCount,
	}, am, r)
	if err != nil {
		am.Close()
		return nil, err
	}
	as, err := NewAudioSystem(&AudioSystemConfig{
		MaxBufferCount: config.MaxAudioBufferCount,
	}, am)
	if err != nil {
		am.Close()
		return nil, err
	}
	fs, err := NewFontSystem(am, ts)
	if err != nil {
		am.Close()
		return nil, err
	}

	l, err := loader.NewAsyncLoader(&loader.Config{
		Readers:       config.LoaderReaders,
		QueueCapacity: config.LoaderQueueCapacity,
		UploadImage: func(texture *resources.Texture, payload []byte) error {
			return ts.UploadImage(texture, payload)
		},
		DecodeAudio: func(buffer *resources.AudioBuffer, payload []byte) error {
			return as.DecodeInto(buffer, payload)
		},
		OnFailure: func(path string, err error) {
			core.LogWarn("asset load of '%s' failed: %s", path, err.Error())
		},
	})
	if err != nil {
		am.Close()
		return nil, err
	}

	ts.BindLoader(l)
	as.BindLoader(l)
	fs.BindLoader(l)

	sm := &SystemManager{
		AssetManager:  am,
		Renderer:      r,
		TextureSystem: ts,
		AudioSystem:   as,
		FontSystem:    fs,
		Loader:        l,
	}

	if err := ts.Initialize(); err != nil {
		sm.Shutdown()
		return nil, err
	}

	if config.WatchAssets {
		sm.watching = core.EventRegister(core.EVENT_CODE_ASSET_FILE_CHANGED, sm.onAssetFileChanged)
	}

	return sm, nil
}

// onAssetFileChanged routes a changed file to the system owning its type.
func (sm *SystemManager) onAssetFileChanged(context core.EventContext) {
	rel, ok := context.Data.(string)
	if !ok {
		return
	}
	info, ok := sm.AssetManager.Info(rel)
	if !ok {
		return
	}
	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	reloaded := false
	switch info.Type {
	case resources.ResourceTypeImage:
		reloaded = sm.TextureSystem.Reload(name)
	case resources.ResourceTypeAudio:
		reloaded = sm.AudioSystem.Reload(name)
	case resources.ResourceTypeBitmapFont:
		reloaded = sm.FontSystem.Reload(name)
	}
	if reloaded {
		core.LogInfo("reloading changed asset '%s'", rel)
	}
}

func (sm *SystemManager) Shutdown() error {
	if sm.watching {
		core.EventUnregisterAll(core.EVENT_CODE_ASSET_FILE_CHANGED)
		sm.watching = false
	}

	// The loader goes down first so no handler runs mid teardown.
	if err := sm.Loader.Shutdown(); err != nil {
		return err
	}
	if err := sm.FontSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.AudioSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.Renderer.Shutdown(); err != nil {
		return err
	}
	return sm.AssetManager.Close()
}
