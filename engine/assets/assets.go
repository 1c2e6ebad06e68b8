package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/resources"
)

// Subdirectories probed per resource type, relative to the base path.
const (
	TexturesDir = "textures"
	AudioDir    = "audio"
	FontsDir    = "fonts"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}
var audioExtensions = []string{".wav"}
var fontExtensions = []string{".fnt"}

type AssetInfo struct {
	// Path relative to the base path.
	Path string
	Type resources.ResourceType
	// When the file was last indexed or seen changing.
	LastSeen time.Time
}

// Manager indexes the asset tree and resolves resource names to files on
// disk. When watching is enabled, changes under the tree update the index
// and fire EVENT_CODE_ASSET_FILE_CHANGED so systems can reload.
type Manager struct {
	basePath string

	mutex  sync.RWMutex
	assets map[string]AssetInfo

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

func NewManager(basePath string, watch bool) (*Manager, error) {
	fi, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("asset path '%s': %w", basePath, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("asset path '%s' is not a directory", basePath)
	}

	m := &Manager{
		basePath: filepath.Clean(basePath),
		assets:   make(map[string]AssetInfo),
		done:     make(chan struct{}),
	}

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		m.watcher = watcher
	}

	if err := m.watchTree(m.basePath); err != nil {
		if m.watcher != nil {
			m.watcher.Close()
		}
		return nil, err
	}

	if m.watcher != nil {
		go m.watch()
	}
	return m, nil
}

func (m *Manager) BasePath() string {
	return m.basePath
}

/**
 * @brief Resolves a resource name to a file path under the base path.
 *
 * A name carrying a path separator or extension is first probed verbatim
 * relative to the base path. Otherwise the subdirectory for the resource
 * type is probed with each supported extension in priority order.
 * @param resourceType The type of the resource to look up.
 * @param name The resource name, e.g. "stone" or "textures/stone.png".
 * @returns The resolved path, or an error when nothing matches.
 */
func (m *Manager) ResolvePath(resourceType resources.ResourceType, name string) (string, error) {
	direct := filepath.Join(m.basePath, filepath.Clean(name))
	if fileExists(direct) {
		return direct, nil
	}

	subdir, extensions := searchSpace(resourceType)
	for _, ext := range extensions {
		candidate := filepath.Join(m.basePath, subdir, name+ext)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s asset named '%s' under '%s'", resourceType.String(), name, m.basePath)
}

// Info returns the indexed entry for a path relative to the base path.
func (m *Manager) Info(relPath string) (AssetInfo, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	info, ok := m.assets[relPath]
	return info, ok
}

// Indexed returns how many asset files the index currently tracks.
func (m *Manager) Indexed() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.assets)
}

// Close stops the watcher. Safe to call more than once.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		if m.watcher != nil {
			err = m.watcher.Close()
		}
	})
	return err
}

// watchTree indexes every asset file under path and, when watching is
// enabled, adds each directory to the watch list.
func (m *Manager) watchTree(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if m.watcher != nil {
				if err := m.watcher.Add(walkPath); err != nil {
					return err
				}
			}
			return nil
		}
		m.indexFile(walkPath)
		return nil
	})
}

func (m *Manager) watch() {
	for {
		select {
		case e, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(e)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())

		case <-m.done:
			return
		}
	}
}

func (m *Manager) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			// A directory created mid-run gets watched like the rest.
			if err := m.watchTree(e.Name); err != nil {
				core.LogWarn("asset watcher: watching '%s' failed: %s", e.Name, err.Error())
			}
			return
		}
	}

	switch {
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		rel, tracked := m.indexFile(e.Name)
		if !tracked {
			return
		}
		core.LogDebug("asset file changed: %s", rel)
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_ASSET_FILE_CHANGED, Data: rel})

	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		rel := m.relativize(e.Name)
		m.mutex.Lock()
		delete(m.assets, rel)
		m.mutex.Unlock()
	}
}

func (m *Manager) indexFile(path string) (string, bool) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return "", false
	}
	rel := m.relativize(path)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.assets[rel] = AssetInfo{
		Path:     rel,
		Type:     assetType,
		LastSeen: time.Now(),
	}
	return rel, true
}

func (m *Manager) relativize(path string) string {
	rel, err := filepath.Rel(m.basePath, path)
	if err != nil {
		return path
	}
	return rel
}

func searchSpace(resourceType resources.ResourceType) (string, []string) {
	switch resourceType {
	case resources.ResourceTypeImage:
		return TexturesDir, imageExtensions
	case resources.ResourceTypeAudio:
		return AudioDir, audioExtensions
	case resources.ResourceTypeBitmapFont:
		return FontsDir, fontExtensions
	default:
		return "", nil
	}
}

func determineAssetType(path string) resources.ResourceType {
	switch filepath.Ext(path) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return resources.ResourceTypeImage
	case ".wav":
		return resources.ResourceTypeAudio
	case ".fnt":
		return resources.ResourceTypeBitmapFont
	default:
		return resources.ResourceTypeNone
	}
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
