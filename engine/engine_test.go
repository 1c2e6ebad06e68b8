package engine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	config := DefaultConfig()
	config.Assets.Path = t.TempDir()
	config.Renderer.Backend = "software"
	return config
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Shutdown()) })
	return e
}

func TestEngineNewAndShutdown(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, EngineStageInitialized, e.Stage())
	require.NotNil(t, e.Systems())
	require.NotNil(t, e.Systems().Loader)

	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Shutdown())
}

func TestEngineNewRejectsBadLogLevel(t *testing.T) {
	config := testConfig(t)
	config.LogLevel = "verbose"
	_, err := New(config)
	require.Error(t, err)
}

func TestEngineNewRejectsMissingAssetPath(t *testing.T) {
	config := testConfig(t)
	config.Assets.Path = filepath.Join(t.TempDir(), "missing")
	_, err := New(config)
	require.Error(t, err)
}

func TestEngineRunQuitsOnRequest(t *testing.T) {
	e := newTestEngine(t)

	frames := 0
	err := e.Run(func(delta time.Duration) error {
		frames++
		if frames == 3 {
			e.RequestQuit()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, frames)
	assert.Equal(t, EngineStageInitialized, e.Stage())
}

func TestEngineRunPropagatesUpdateError(t *testing.T) {
	e := newTestEngine(t)

	wantErr := fmt.Errorf("update blew up")
	err := e.Run(func(delta time.Duration) error {
		return wantErr
	})
	assert.Equal(t, wantErr, err)
}

func TestEngineRunStopsFromAnotherGoroutine(t *testing.T) {
	e := newTestEngine(t)

	go func() {
		time.Sleep(50 * time.Millisecond)
		e.RequestQuit()
	}()

	done := make(chan error, 1)
	go func() { done <- e.Run(nil) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("the frame loop did not stop on quit")
	}
}

func TestEngineLoadsThroughSystems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "textures"), 0o755))

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.SetNRGBA(i%2, i/2, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "textures", "pixel.png"), buf.Bytes(), 0o644))

	config := DefaultConfig()
	config.Assets.Path = dir
	config.Renderer.Backend = "software"
	e, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Shutdown()) })

	tex, err := e.Systems().TextureSystem.Acquire("pixel", true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return e.Systems().Loader.CompletedCount() >= 1 && e.Systems().Loader.Pending() == 0
	}, 5*time.Second, 2*time.Millisecond)

	assert.Equal(t, uint32(0), tex.Generation)
	assert.Equal(t, uint32(2), tex.Width)
}
