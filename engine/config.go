package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/loader"
	"github.com/vesta-engine/vesta/engine/math"
)

// Config drives engine startup. It maps one to one onto the TOML
// configuration file.
type Config struct {
	// The application name used in logs and by the renderer backend.
	AppName string `toml:"app_name"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`

	Assets   AssetsConfig   `toml:"assets"`
	Renderer RendererConfig `toml:"renderer"`
	Loader   LoaderConfig   `toml:"loader"`
	Limits   LimitsConfig   `toml:"limits"`
}

type AssetsConfig struct {
	// Base directory the asset tree lives under.
	Path string `toml:"path"`
	// Reload resources when their files change on disk.
	Watch bool `toml:"watch"`
}

type RendererConfig struct {
	// Backend name; empty picks the highest priority registered one.
	Backend string `toml:"backend"`
}

type LoaderConfig struct {
	// Number of reader goroutines feeding the completion queue.
	Readers int `toml:"readers"`
	// Completed loads the queue buffers before dispatch.
	QueueCapacity int `toml:"queue_capacity"`
}

type LimitsConfig struct {
	MaxTextures     uint32 `toml:"max_textures"`
	MaxAudioBuffers uint32 `toml:"max_audio_buffers"`
}

func DefaultConfig() *Config {
	return &Config{
		AppName:  "Vesta",
		LogLevel: "info",
		Assets:   AssetsConfig{Path: "assets"},
		Loader: LoaderConfig{
			Readers:       loader.DefaultReaderCount,
			QueueCapacity: loader.DefaultQueueCapacity,
		},
		Limits: LimitsConfig{MaxTextures: 1024, MaxAudioBuffers: 256},
	}
}

/**
 * @brief Reads a TOML configuration file, filling in defaults for
 * anything the file leaves out.
 *
 * A missing file is not an error; the defaults come back so a bare
 * checkout runs without one.
 */
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogInfo("no configuration at '%s', using defaults", path)
			return config, nil
		}
		return nil, fmt.Errorf("reading configuration '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration '%s': %w", path, err)
	}

	config.sanitize()
	return config, nil
}

// sanitize pulls out-of-range values back to something the systems accept.
func (c *Config) sanitize() {
	if c.AppName == "" {
		c.AppName = "Vesta"
	}
	if c.Assets.Path == "" {
		c.Assets.Path = "assets"
	}
	c.Loader.Readers = math.Clamp(c.Loader.Readers, 0, loader.MaxReaderCount)
	c.Loader.QueueCapacity = math.Max(c.Loader.QueueCapacity, 0)
}
