package renderer

import (
	"fmt"
	"sync/atomic"

	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/resources"
)

func init() {
	Register("software", 10, func() Backend { return &softwareBackend{} })
}

// softwareTexture is the backing store the software backend hangs off
// texture.InternalData.
type softwareTexture struct {
	pixels []uint8
}

// softwareBackend keeps texture pixels in process memory. A GPU backend
// registers under its own name with a higher priority and takes over the
// default pick.
type softwareBackend struct {
	appName  string
	textures atomic.Int64
}

func (sb *softwareBackend) Initialize(appName string) error {
	sb.appName = appName
	core.LogInfo("software renderer backend initialized for '%s'", appName)
	return nil
}

func (sb *softwareBackend) Shutdown() error {
	if n := sb.textures.Load(); n != 0 {
		core.LogWarn("software renderer backend shut down with %d live textures", n)
	}
	return nil
}

func (sb *softwareBackend) TextureCreate(pixels []uint8, texture *resources.Texture) error {
	if err := validateTexture(texture); err != nil {
		return err
	}
	expected := texelBytes(texture)
	if len(pixels) != expected {
		return fmt.Errorf("texture '%s' expects %d pixel bytes, got %d", texture.Name, expected, len(pixels))
	}
	texture.InternalData = &softwareTexture{pixels: append([]uint8(nil), pixels...)}
	sb.textures.Add(1)
	return nil
}

func (sb *softwareBackend) TextureDestroy(texture *resources.Texture) error {
	if texture == nil {
		return fmt.Errorf("cannot destroy a nil texture")
	}
	if texture.InternalData != nil {
		texture.InternalData = nil
		sb.textures.Add(-1)
	}
	return nil
}

func (sb *softwareBackend) TextureCreateWriteable(texture *resources.Texture) error {
	if err := validateTexture(texture); err != nil {
		return err
	}
	texture.InternalData = &softwareTexture{pixels: make([]uint8, texelBytes(texture))}
	sb.textures.Add(1)
	return nil
}

func (sb *softwareBackend) TextureResize(texture *resources.Texture, newWidth, newHeight uint32) error {
	store, err := storeOf(texture)
	if err != nil {
		return err
	}
	texture.Width = newWidth
	texture.Height = newHeight
	// Resizing discards the old contents, like a GPU image recreate.
	store.pixels = make([]uint8, texelBytes(texture))
	return nil
}

func (sb *softwareBackend) TextureWriteData(texture *resources.Texture, offset, size uint32, pixels []uint8) error {
	store, err := storeOf(texture)
	if err != nil {
		return err
	}
	if int(size) > len(pixels) {
		return fmt.Errorf("texture '%s' write of %d bytes from a %d byte slice", texture.Name, size, len(pixels))
	}
	if int(offset)+int(size) > len(store.pixels) {
		return fmt.Errorf("texture '%s' write [%d:%d] overruns its %d byte store", texture.Name, offset, offset+size, len(store.pixels))
	}
	copy(store.pixels[offset:offset+size], pixels[:size])
	return nil
}

// SoftwarePixels exposes the pixel store of a texture owned by the software
// backend. The second return is false for textures owned by other backends.
func SoftwarePixels(texture *resources.Texture) ([]uint8, bool) {
	if texture == nil {
		return nil, false
	}
	store, ok := texture.InternalData.(*softwareTexture)
	if !ok {
		return nil, false
	}
	return store.pixels, true
}

func validateTexture(texture *resources.Texture) error {
	if texture == nil {
		return fmt.Errorf("cannot create a nil texture")
	}
	if texture.Width == 0 || texture.Height == 0 || texture.ChannelCount == 0 {
		return fmt.Errorf("texture '%s' has a zero dimension (%dx%d, %d channels)",
			texture.Name, texture.Width, texture.Height, texture.ChannelCount)
	}
	return nil
}

func storeOf(texture *resources.Texture) (*softwareTexture, error) {
	if texture == nil {
		return nil, fmt.Errorf("nil texture")
	}
	store, ok := texture.InternalData.(*softwareTexture)
	if !ok {
		return nil, fmt.Errorf("texture '%s' has no software backing store", texture.Name)
	}
	return store, nil
}

func texelBytes(texture *resources.Texture) int {
	return int(texture.Width) * int(texture.Height) * int(texture.ChannelCount)
}
