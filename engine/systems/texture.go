package systems

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vesta-engine/vesta/engine/assets"
	"github.com/vesta-engine/vesta/engine/assets/loaders"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/loader"
	"github.com/vesta-engine/vesta/engine/renderer"
	"github.com/vesta-engine/vesta/engine/resources"
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

// TextureSystem tracks textures by name with reference counts. Acquiring an
// unknown name hands back a texture immediately and enqueues its pixel data
// through the async loader; Generation stays InvalidID until the upload
// lands.
type TextureSystem struct {
	Config         *TextureSystemConfig
	DefaultTexture *resources.Texture

	// Array of registered textures.
	RegisteredTextures []*resources.Texture
	// Hashtable for texture lookups.
	RegisteredTextureTable map[string]*resources.Reference

	// The upload handler runs on the loader's dispatcher goroutine.
	mutex sync.Mutex

	assetManager *assets.Manager
	renderer     *renderer.Renderer
	loader       *loader.AsyncLoader
}

func NewTextureSystem(config *TextureSystemConfig, am *assets.Manager, r *renderer.Renderer) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	ts := &TextureSystem{
		Config:                 config,
		RegisteredTextures:     make([]*resources.Texture, config.MaxTextureCount),
		RegisteredTextureTable: make(map[string]*resources.Reference),
		assetManager:           am,
		renderer:               r,
	}

	// Invalidate all textures in the array.
	for i := uint32(0); i < config.MaxTextureCount; i++ {
		ts.RegisteredTextures[i] = &resources.Texture{
			ID:         resources.InvalidID,
			Generation: resources.InvalidID,
		}
	}

	ts.DefaultTexture = &resources.Texture{
		ID:           resources.InvalidID,
		Name:         resources.DEFAULT_TEXTURE_NAME,
		Width:        defaultTextureSize,
		Height:       defaultTextureSize,
		ChannelCount: 4,
		Generation:   resources.InvalidID,
	}

	return ts, nil
}

// BindLoader wires the async loader in after both are constructed. The
// loader's image handler points back at this system.
func (ts *TextureSystem) BindLoader(l *loader.AsyncLoader) {
	ts.loader = l
}

func (ts *TextureSystem) Initialize() error {
	if err := ts.renderer.TextureCreate(defaultTexturePixels(), ts.DefaultTexture); err != nil {
		return err
	}
	ts.DefaultTexture.Generation = 0
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	// Destroy all loaded textures.
	for i := uint32(0); i < ts.Config.MaxTextureCount; i++ {
		t := ts.RegisteredTextures[i]
		if t.Generation != resources.InvalidID || t.InternalData != nil {
			if err := ts.renderer.TextureDestroy(t); err != nil {
				return err
			}
		}
	}
	return ts.renderer.TextureDestroy(ts.DefaultTexture)
}

/**
 * @brief Attempts to acquire a texture with the given name. An unknown name
 * registers a texture and enqueues an asynchronous load for it; a known one
 * has its reference count incremented. The returned texture is usable right
 * away but carries an InvalidID generation until its pixels arrive.
 * @param name The name of the texture, resolved under the textures asset dir.
 * @param autoRelease Whether the texture is destroyed when its last reference is released.
 * @returns A pointer to the registered texture, or an error.
 */
func (ts *TextureSystem) Acquire(name string, autoRelease bool) (*resources.Texture, error) {
	if name == resources.DEFAULT_TEXTURE_NAME {
		core.LogWarn("texture system Acquire called for default texture. Use GetDefaultTexture for texture 'default'")
		return ts.DefaultTexture, nil
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, exists := ts.RegisteredTextureTable[name]
	if !exists {
		// This can only be set the first time the texture is acquired.
		ref = &resources.Reference{Handle: resources.InvalidID, AutoRelease: autoRelease}
		ts.RegisteredTextureTable[name] = ref
	}
	ref.ReferenceCount++

	if ref.Handle != resources.InvalidID {
		return ts.RegisteredTextures[ref.Handle], nil
	}

	handle := ts.findFreeSlot()
	if handle == resources.InvalidID {
		ts.rollbackReference(name, ref)
		err := fmt.Errorf("texture system cannot hold any more textures, adjust MaxTextureCount")
		core.LogError(err.Error())
		return nil, err
	}

	t := ts.RegisteredTextures[handle]
	t.ID = handle
	t.Name = name
	t.Generation = resources.InvalidID
	ref.Handle = handle

	path, err := ts.assetManager.ResolvePath(resources.ResourceTypeImage, name)
	if err != nil {
		ts.rollbackTexture(name, ref, t)
		return nil, err
	}
	if ts.loader == nil || !ts.loader.EnqueueImageLoad(path, t) {
		ts.rollbackTexture(name, ref, t)
		return nil, fmt.Errorf("failed to enqueue load for texture '%s'", name)
	}
	return t, nil
}

/**
 * @brief Acquires a writeable texture with no pixels loaded for it.
 * @param name The texture name; empty picks a generated unique name.
 * @param width The texture width in texels.
 * @param height The texture height in texels.
 * @param channelCount The number of channels per texel.
 * @param hasTransparency Whether the texture carries transparency.
 * @returns A pointer to the created texture, or an error.
 */
func (ts *TextureSystem) AcquireWriteable(name string, width, height uint32, channelCount uint8, hasTransparency bool) (*resources.Texture, error) {
	// Writeable textures are managed by whoever acquired them.
	if name == "" {
		name = uuid.NewString()
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, exists := ts.RegisteredTextureTable[name]
	if !exists {
		ref = &resources.Reference{Handle: resources.InvalidID, AutoRelease: false}
		ts.RegisteredTextureTable[name] = ref
	}
	ref.ReferenceCount++

	if ref.Handle != resources.InvalidID {
		return ts.RegisteredTextures[ref.Handle], nil
	}

	handle := ts.findFreeSlot()
	if handle == resources.InvalidID {
		ts.rollbackReference(name, ref)
		return nil, fmt.Errorf("texture system cannot hold any more textures, adjust MaxTextureCount")
	}

	t := ts.RegisteredTextures[handle]
	t.ID = handle
	t.Name = name
	t.Width = width
	t.Height = height
	t.ChannelCount = channelCount
	t.Flags = resources.TextureFlagBits(resources.TextureFlagIsWriteable)
	if hasTransparency {
		t.Flags |= resources.TextureFlagBits(resources.TextureFlagHasTransparency)
	}
	ref.Handle = handle

	if err := ts.renderer.TextureCreateWriteable(t); err != nil {
		ts.rollbackTexture(name, ref, t)
		return nil, err
	}
	t.Generation = 0
	return t, nil
}

/**
 * @brief Releases a texture by name. When the last reference of an
 * auto-release texture goes away, the texture is destroyed.
 */
func (ts *TextureSystem) Release(name string) {
	// Ignore release requests for the default texture.
	if name == resources.DEFAULT_TEXTURE_NAME {
		return
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, exists := ts.RegisteredTextureTable[name]
	if !exists || ref.ReferenceCount == 0 {
		core.LogWarn("tried to release non-acquired texture '%s'", name)
		return
	}
	ref.ReferenceCount--

	if ref.ReferenceCount == 0 && ref.AutoRelease {
		t := ts.RegisteredTextures[ref.Handle]
		if err := ts.destroyTexture(t); err != nil {
			core.LogError("releasing texture '%s': %s", name, err.Error())
		}
		delete(ts.RegisteredTextureTable, name)
		core.LogDebug("released texture '%s' with no references left", name)
	}
}

// Reload re-enqueues the pixel data of an already registered texture. Used
// when the asset file changes on disk; the generation bumps once the new
// pixels land.
func (ts *TextureSystem) Reload(name string) bool {
	ts.mutex.Lock()
	ref, exists := ts.RegisteredTextureTable[name]
	if !exists || ref.Handle == resources.InvalidID {
		ts.mutex.Unlock()
		return false
	}
	t := ts.RegisteredTextures[ref.Handle]
	ts.mutex.Unlock()

	path, err := ts.assetManager.ResolvePath(resources.ResourceTypeImage, name)
	if err != nil {
		core.LogWarn("reload of texture '%s': %s", name, err.Error())
		return false
	}
	return ts.loader != nil && ts.loader.EnqueueImageLoad(path, t)
}

// WriteData writes pixels into a writeable texture and bumps its generation.
func (ts *TextureSystem) WriteData(texture *resources.Texture, offset, size uint32, pixels []uint8) error {
	if texture == nil {
		return fmt.Errorf("cannot write to a nil texture")
	}
	if err := ts.renderer.TextureWriteData(texture, offset, size, pixels); err != nil {
		return err
	}
	texture.Generation++
	return nil
}

func (ts *TextureSystem) GetDefaultTexture() *resources.Texture {
	return ts.DefaultTexture
}

/**
 * @brief Decodes an image payload and uploads it into the target texture.
 *
 * Runs on the loader's dispatcher goroutine as the image handler. On a
 * reload the previous backend data is destroyed first and the generation
 * increments; the first upload sets it to 0.
 */
func (ts *TextureSystem) UploadImage(texture *resources.Texture, payload []byte) error {
	img, err := loaders.DecodeImage(payload, false)
	if err != nil {
		return err
	}

	hasTransparency := false
	for i := 3; i < len(img.Pixels); i += 4 {
		if img.Pixels[i] < 255 {
			hasTransparency = true
			break
		}
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	previousGeneration := texture.Generation
	texture.Width = img.Width
	texture.Height = img.Height
	texture.ChannelCount = img.ChannelCount
	if hasTransparency {
		texture.Flags |= resources.TextureFlagBits(resources.TextureFlagHasTransparency)
	}

	if texture.InternalData != nil {
		if err := ts.renderer.TextureDestroy(texture); err != nil {
			return err
		}
	}
	if err := ts.renderer.TextureCreate(img.Pixels, texture); err != nil {
		return err
	}

	if previousGeneration == resources.InvalidID {
		texture.Generation = 0
	} else {
		texture.Generation = previousGeneration + 1
	}
	return nil
}

func (ts *TextureSystem) destroyTexture(t *resources.Texture) error {
	if err := ts.renderer.TextureDestroy(t); err != nil {
		return err
	}
	t.ID = resources.InvalidID
	t.Generation = resources.InvalidID
	t.Name = ""
	t.Flags = 0
	return nil
}

func (ts *TextureSystem) findFreeSlot() uint32 {
	for i := uint32(0); i < ts.Config.MaxTextureCount; i++ {
		if ts.RegisteredTextures[i].ID == resources.InvalidID {
			return i
		}
	}
	return resources.InvalidID
}

func (ts *TextureSystem) rollbackReference(name string, ref *resources.Reference) {
	ref.ReferenceCount--
	if ref.ReferenceCount == 0 {
		delete(ts.RegisteredTextureTable, name)
	}
}

func (ts *TextureSystem) rollbackTexture(name string, ref *resources.Reference, t *resources.Texture) {
	t.ID = resources.InvalidID
	t.Generation = resources.InvalidID
	t.Name = ""
	ref.Handle = resources.InvalidID
	ts.rollbackReference(name, ref)
}

const defaultTextureSize = 256

// defaultTexturePixels builds the blue and white checkerboard used until
// real textures finish loading.
func defaultTexturePixels() []uint8 {
	pixels := make([]uint8, defaultTextureSize*defaultTextureSize*4)
	for y := 0; y < defaultTextureSize; y++ {
		for x := 0; x < defaultTextureSize; x++ {
			i := (y*defaultTextureSize + x) * 4
			pixels[i+0] = 255
			pixels[i+1] = 255
			pixels[i+2] = 255
			pixels[i+3] = 255
			if (x/16+y/16)%2 == 0 {
				pixels[i+0] = 0
				pixels[i+1] = 0
			}
		}
	}
	return pixels
}
