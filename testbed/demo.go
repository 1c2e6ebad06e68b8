/*
Package testbed drives the engine the way a game would: it acquires one
resource of every type, waits for the async pipeline to deliver them and
reports what the loader measured.
*/
package testbed

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vesta-engine/vesta/engine"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/resources"
)

// How long the demo waits for every load to land before giving up.
const loadDeadline = 10 * time.Second

// Manifest is the demo's custom resource, pulled through the loader's
// custom callback path instead of a built-in handler.
type Manifest struct {
	Name   string   `toml:"name"`
	Scenes []string `toml:"scenes"`
}

type Demo struct {
	engine *engine.Engine

	texture *resources.Texture
	clip    *resources.AudioBuffer
	font    string

	manifest      Manifest
	manifestReady atomic.Bool
}

func New(e *engine.Engine) *Demo {
	return &Demo{engine: e, font: "vesta"}
}

/**
 * @brief Kicks off one load of every type and runs the frame loop until
 * the loader drains or the deadline passes.
 *
 * Missing assets log a warning instead of failing the run, so the demo
 * works against a partial asset tree too.
 */
func (d *Demo) Run() error {
	systems := d.engine.Systems()

	core.EventRegister(core.EVENT_CODE_ASSET_LOADED, func(context core.EventContext) {
		if path, ok := context.Data.(string); ok {
			core.LogInfo("asset ready: %s", path)
		}
	})
	core.EventRegister(core.EVENT_CODE_ASSET_LOAD_FAILED, func(context core.EventContext) {
		if path, ok := context.Data.(string); ok {
			core.LogWarn("asset failed: %s", path)
		}
	})

	var err error
	if d.texture, err = systems.TextureSystem.Acquire("checker", true); err != nil {
		core.LogWarn("demo texture: %s", err.Error())
	}
	if d.clip, err = systems.AudioSystem.Acquire("chime", true); err != nil {
		core.LogWarn("demo audio clip: %s", err.Error())
	}
	if _, err = systems.FontSystem.Acquire(d.font); err != nil {
		core.LogWarn("demo font: %s", err.Error())
	}
	if path, err := systems.AssetManager.ResolvePath(resources.ResourceTypeCustom, "manifest.toml"); err != nil {
		core.LogWarn("demo manifest: %s", err.Error())
	} else if !systems.Loader.EnqueueCustomLoad(path, d.ingestManifest, &d.manifest) {
		core.LogWarn("demo manifest: enqueue rejected")
	}

	clock := core.NewClock()
	clock.Start()

	if err := d.engine.Run(func(delta time.Duration) error {
		if systems.Loader.Pending() == 0 {
			d.engine.RequestQuit()
			return nil
		}
		clock.Update()
		if clock.Elapsed() > loadDeadline {
			return fmt.Errorf("loads still pending after %s", loadDeadline)
		}
		return nil
	}); err != nil {
		return err
	}

	d.report()
	return nil
}

func (d *Demo) ingestManifest(context interface{}, payload []byte) error {
	manifest, ok := context.(*Manifest)
	if !ok {
		return fmt.Errorf("manifest load context is %T, not *Manifest", context)
	}
	if err := toml.Unmarshal(payload, manifest); err != nil {
		return err
	}
	d.manifestReady.Store(true)
	return nil
}

func (d *Demo) report() {
	systems := d.engine.Systems()

	if d.texture != nil && d.texture.Generation != resources.InvalidID {
		core.LogInfo("texture '%s': %dx%d, %d channels", d.texture.Name, d.texture.Width, d.texture.Height, d.texture.ChannelCount)
	}
	if d.clip != nil && d.clip.Generation != resources.InvalidID {
		core.LogInfo("audio '%s': %d frames at %d Hz", d.clip.Name, d.clip.FrameCount, d.clip.SampleRate)
	}
	if systems.FontSystem.Loaded(d.font) {
		if width, ok := systems.FontSystem.MeasureString(d.font, "Vesta"); ok {
			core.LogInfo("font '%s': 'Vesta' measures %dpx", d.font, width)
		}
	}
	if d.manifestReady.Load() {
		core.LogInfo("manifest '%s' lists %d scenes", d.manifest.Name, len(d.manifest.Scenes))
	}

	completed, failed, cancelled := core.MetricsLoads()
	core.LogInfo("loads: %d completed, %d failed, %d cancelled", completed, failed, cancelled)
	core.LogInfo("%d bytes loaded, %.2fms average latency", core.MetricsBytesLoaded(), core.MetricsAvgLoadTime())
}
