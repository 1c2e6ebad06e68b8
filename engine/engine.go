package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine systems are up and resources can be acquired
	EngineStageInitialized
	// Engine is inside Run
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const targetFrameTime = time.Second / 60

// UpdateFn runs once per frame with the time since the previous frame.
type UpdateFn func(delta time.Duration) error

type Engine struct {
	config        *Config
	systemManager *systems.SystemManager
	clock         *core.Clock

	currentStage Stage
	isRunning    atomic.Bool

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.LogLevel != "" {
		level, err := core.ParseLogLevel(config.LogLevel)
		if err != nil {
			return nil, err
		}
		core.SetLogLevel(level)
	}

	core.EventInitialize()
	if err := core.MetricsInitialize(); err != nil {
		return nil, err
	}

	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		AppName:             config.AppName,
		AssetBasePath:       config.Assets.Path,
		WatchAssets:         config.Assets.Watch,
		RendererBackend:     config.Renderer.Backend,
		MaxTextureCount:     config.Limits.MaxTextures,
		MaxAudioBufferCount: config.Limits.MaxAudioBuffers,
		LoaderReaders:       config.Loader.Readers,
		LoaderQueueCapacity: config.Loader.QueueCapacity,
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := &Engine{
		config:        config,
		systemManager: sm,
		clock:         core.NewClock(),
		currentStage:  EngineStageInitialized,
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onQuit)

	core.LogInfo("%s up: '%s' renderer, assets under '%s'",
		config.AppName, sm.Renderer.BackendName(), sm.AssetManager.BasePath())
	return e, nil
}

// Systems exposes the resource systems and the async loader.
func (e *Engine) Systems() *systems.SystemManager {
	return e.systemManager
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

/**
 * @brief Drives the frame loop until a quit is requested or the update
 * callback fails.
 *
 * The callback receives the time since the previous frame; a nil callback
 * just idles the loop. Whatever is left of the frame budget is handed back
 * to the OS.
 */
func (e *Engine) Run(update UpdateFn) error {
	e.currentStage = EngineStageRunning
	defer func() { e.currentStage = EngineStageInitialized }()

	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	lastTime := e.clock.Elapsed()

	for e.isRunning.Load() {
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - lastTime
		frameStart := time.Now()

		if update != nil {
			if err := update(delta); err != nil {
				core.LogError("update failed, stopping: %s", err.Error())
				e.isRunning.Store(false)
				return err
			}
		}

		if remaining := targetFrameTime - time.Since(frameStart); remaining > 0 {
			time.Sleep(remaining)
		}
		lastTime = currentTime
	}
	return nil
}

// RequestQuit stops the frame loop after the current frame.
func (e *Engine) RequestQuit() {
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (e *Engine) onQuit(context core.EventContext) {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
	}
}

func (e *Engine) Shutdown() error {
	e.shutdownOnce.Do(func() {
		e.currentStage = EngineStageShuttingDown
		e.isRunning.Store(false)

		core.EventUnregisterAll(core.EVENT_CODE_APPLICATION_QUIT)
		e.shutdownErr = e.systemManager.Shutdown()
		if err := core.EventShutdown(); err != nil && e.shutdownErr == nil {
			e.shutdownErr = err
		}
	})
	return e.shutdownErr
}
