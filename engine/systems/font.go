package systems

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vesta-engine/vesta/engine/assets"
	"github.com/vesta-engine/vesta/engine/assets/loaders"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/loader"
	"github.com/vesta-engine/vesta/engine/resources"
)

// BitmapFont is a parsed font descriptor together with its acquired page
// atlas textures. Generation stays InvalidID until the descriptor has been
// parsed.
type BitmapFont struct {
	Name       string
	Generation uint32

	Data         *resources.FontData
	Pages        []*resources.BitmapFontPage
	PageTextures []*resources.Texture

	glyphs   map[int32]*resources.FontGlyph
	kernings map[[2]int32]int16
}

// FontSystem loads bitmap fonts through the async loader's custom callback
// path. Parsing the descriptor chains into texture acquires for each atlas
// page.
type FontSystem struct {
	mutex sync.Mutex
	fonts map[string]*BitmapFont

	assetManager  *assets.Manager
	textureSystem *TextureSystem
	loader        *loader.AsyncLoader
}

func NewFontSystem(am *assets.Manager, ts *TextureSystem) (*FontSystem, error) {
	if ts == nil {
		return nil, fmt.Errorf("func NewFontSystem - requires a texture system for page atlases")
	}
	return &FontSystem{
		fonts:         make(map[string]*BitmapFont),
		assetManager:  am,
		textureSystem: ts,
	}, nil
}

func (fs *FontSystem) BindLoader(l *loader.AsyncLoader) {
	fs.loader = l
}

func (fs *FontSystem) Shutdown() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	for _, font := range fs.fonts {
		fs.releasePages(font)
	}
	fs.fonts = make(map[string]*BitmapFont)
	return nil
}

/**
 * @brief Acquires a bitmap font by name, loading it on first use.
 *
 * The returned font fills in asynchronously; Loaded reports when the
 * descriptor has been parsed. Acquiring a known name returns the same font.
 */
func (fs *FontSystem) Acquire(name string) (*BitmapFont, error) {
	fs.mutex.Lock()
	if font, exists := fs.fonts[name]; exists {
		fs.mutex.Unlock()
		return font, nil
	}
	font := &BitmapFont{Name: name, Generation: resources.InvalidID}
	fs.fonts[name] = font
	fs.mutex.Unlock()

	path, err := fs.assetManager.ResolvePath(resources.ResourceTypeBitmapFont, name)
	if err != nil {
		fs.drop(name)
		return nil, err
	}
	if fs.loader == nil || !fs.loader.EnqueueCustomLoad(path, fs.ingestFont, font) {
		fs.drop(name)
		return nil, fmt.Errorf("failed to enqueue load for font '%s'", name)
	}
	return font, nil
}

// Release drops a font and releases its page textures.
func (fs *FontSystem) Release(name string) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	font, exists := fs.fonts[name]
	if !exists {
		core.LogWarn("tried to release unknown font '%s'", name)
		return
	}
	fs.releasePages(font)
	delete(fs.fonts, name)
}

// Reload re-enqueues the descriptor of an already acquired font. The page
// textures stay acquired; the generation bumps once the reparse lands.
func (fs *FontSystem) Reload(name string) bool {
	fs.mutex.Lock()
	font, exists := fs.fonts[name]
	fs.mutex.Unlock()
	if !exists {
		return false
	}

	path, err := fs.assetManager.ResolvePath(resources.ResourceTypeBitmapFont, name)
	if err != nil {
		core.LogWarn("reload of font '%s': %s", name, err.Error())
		return false
	}
	return fs.loader != nil && fs.loader.EnqueueCustomLoad(path, fs.ingestFont, font)
}

// Loaded reports whether the named font's descriptor has been parsed.
func (fs *FontSystem) Loaded(name string) bool {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	font, exists := fs.fonts[name]
	return exists && font.Generation != resources.InvalidID
}

// Glyph returns the glyph for a codepoint of a loaded font.
func (fs *FontSystem) Glyph(name string, codepoint rune) (*resources.FontGlyph, bool) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	font, exists := fs.fonts[name]
	if !exists || font.glyphs == nil {
		return nil, false
	}
	g, ok := font.glyphs[int32(codepoint)]
	return g, ok
}

/**
 * @brief Measures the horizontal advance of a single line of text.
 *
 * Kerning pairs are applied; codepoints without a glyph are skipped.
 * @returns The advance in pixels and whether the font was loaded.
 */
func (fs *FontSystem) MeasureString(name, text string) (int32, bool) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	font, exists := fs.fonts[name]
	if !exists || font.glyphs == nil {
		return 0, false
	}

	width := int32(0)
	previous := int32(-1)
	for _, r := range text {
		g, ok := font.glyphs[int32(r)]
		if !ok {
			previous = -1
			continue
		}
		width += int32(g.XAdvance)
		if previous >= 0 {
			if amount, ok := font.kernings[[2]int32{previous, int32(r)}]; ok {
				width += int32(amount)
			}
		}
		previous = int32(r)
	}
	return width, true
}

// ingestFont runs on the loader's dispatcher goroutine as the custom load
// callback for .fnt payloads.
func (fs *FontSystem) ingestFont(context interface{}, payload []byte) error {
	font, ok := context.(*BitmapFont)
	if !ok {
		return fmt.Errorf("font load context is %T, not *BitmapFont", context)
	}

	parsed, err := loaders.ParseBitmapFont(payload)
	if err != nil {
		return err
	}

	fs.mutex.Lock()
	previousGeneration := font.Generation
	font.Data = parsed.Data
	font.Pages = parsed.Pages

	font.glyphs = make(map[int32]*resources.FontGlyph, len(parsed.Data.Glyphs))
	for _, g := range parsed.Data.Glyphs {
		font.glyphs[g.Codepoint] = g
	}
	font.kernings = make(map[[2]int32]int16, len(parsed.Data.Kernings))
	for _, k := range parsed.Data.Kernings {
		font.kernings[[2]int32{k.Codepoint0, k.Codepoint1}] = k.Amount
	}

	if previousGeneration == resources.InvalidID {
		font.Generation = 0
	} else {
		font.Generation = previousGeneration + 1
	}

	alreadyAcquired := len(font.PageTextures) > 0
	fs.mutex.Unlock()

	// The first load acquires the atlas texture each page names. The
	// texture name drops the extension, the texture system probes for it.
	if !alreadyAcquired {
		pageTextures := make([]*resources.Texture, 0, len(parsed.Pages))
		for _, page := range parsed.Pages {
			base := strings.TrimSuffix(page.File, filepath.Ext(page.File))
			t, err := fs.textureSystem.Acquire(base, true)
			if err != nil {
				return fmt.Errorf("font '%s' atlas page '%s': %w", font.Name, base, err)
			}
			pageTextures = append(pageTextures, t)
		}
		fs.mutex.Lock()
		font.PageTextures = pageTextures
		fs.mutex.Unlock()
	}

	core.LogDebug("font '%s' parsed: %d glyphs, %d pages", font.Name, len(parsed.Data.Glyphs), len(parsed.Pages))
	return nil
}

func (fs *FontSystem) releasePages(font *BitmapFont) {
	for _, t := range font.PageTextures {
		fs.textureSystem.Release(t.Name)
	}
	font.PageTextures = nil
}

func (fs *FontSystem) drop(name string) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	delete(fs.fonts, name)
}
