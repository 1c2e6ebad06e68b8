package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/resources"
)

func seedAssetTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{TexturesDir, AudioDir, FontsDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	files := map[string][]byte{
		filepath.Join(TexturesDir, "stone.png"): []byte("png"),
		filepath.Join(AudioDir, "chime.wav"):    []byte("riff"),
		filepath.Join(FontsDir, "ubuntu.fnt"):   []byte("info"),
		"manifest.toml":                         []byte("[assets]"),
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), content, 0o644))
	}
	return dir
}

func TestManagerResolvePath(t *testing.T) {
	dir := seedAssetTree(t)
	m, err := NewManager(dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	p, err := m.ResolvePath(resources.ResourceTypeImage, "stone")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TexturesDir, "stone.png"), p)

	p, err = m.ResolvePath(resources.ResourceTypeAudio, "chime")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AudioDir, "chime.wav"), p)

	p, err = m.ResolvePath(resources.ResourceTypeBitmapFont, "ubuntu")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FontsDir, "ubuntu.fnt"), p)

	// Explicit relative paths resolve for any type.
	p, err = m.ResolvePath(resources.ResourceTypeCustom, "manifest.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manifest.toml"), p)

	p, err = m.ResolvePath(resources.ResourceTypeImage, filepath.Join(TexturesDir, "stone.png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TexturesDir, "stone.png"), p)

	_, err = m.ResolvePath(resources.ResourceTypeImage, "no-such-texture")
	assert.Error(t, err)
}

func TestManagerResolveExtensionPriority(t *testing.T) {
	dir := seedAssetTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, TexturesDir, "rock.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TexturesDir, "rock.png"), []byte("png"), 0o644))

	m, err := NewManager(dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	p, err := m.ResolvePath(resources.ResourceTypeImage, "rock")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(p))
}

func TestManagerIndexesTypedAssets(t *testing.T) {
	dir := seedAssetTree(t)
	m, err := NewManager(dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	// The toml manifest has no tracked type and stays out of the index.
	assert.Equal(t, 3, m.Indexed())

	info, ok := m.Info(filepath.Join(TexturesDir, "stone.png"))
	require.True(t, ok)
	assert.Equal(t, resources.ResourceTypeImage, info.Type)
	assert.False(t, info.LastSeen.IsZero())

	_, ok = m.Info("manifest.toml")
	assert.False(t, ok)
}

func TestManagerMissingBasePath(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "nope"), false)
	assert.Error(t, err)
}

func TestManagerWatchFiresChangeEvent(t *testing.T) {
	core.EventInitialize()
	changed := make(chan string, 8)
	require.True(t, core.EventRegister(core.EVENT_CODE_ASSET_FILE_CHANGED, func(context core.EventContext) {
		changed <- context.Data.(string)
	}))
	t.Cleanup(func() { core.EventUnregisterAll(core.EVENT_CODE_ASSET_FILE_CHANGED) })

	dir := seedAssetTree(t)
	m, err := NewManager(dir, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, TexturesDir, "stone.png"), []byte("png v2"), 0o644))

	select {
	case rel := <-changed:
		assert.Equal(t, filepath.Join(TexturesDir, "stone.png"), rel)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event for the modified asset")
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestManagerWatchIndexesNewFiles(t *testing.T) {
	dir := seedAssetTree(t)
	m, err := NewManager(dir, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, AudioDir, "blip.wav"), []byte("riff"), 0o644))

	require.Eventually(t, func() bool {
		_, ok := m.Info(filepath.Join(AudioDir, "blip.wav"))
		return ok
	}, 3*time.Second, 10*time.Millisecond)
}
