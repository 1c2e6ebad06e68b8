package renderer

import (
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/resources"
)

// Renderer wraps the selected backend behind the engine-facing surface.
type Renderer struct {
	backend Backend
	name    string
}

// New picks a backend by name, or the highest priority one when the name is
// empty, and initializes it.
func New(backendName, appName string) (*Renderer, error) {
	var backend Backend
	var err error

	name := backendName
	if name == "" {
		name, backend, err = Default()
	} else {
		backend, err = Get(name)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.Initialize(appName); err != nil {
		return nil, err
	}
	core.LogInfo("renderer using '%s' backend", name)

	return &Renderer{backend: backend, name: name}, nil
}

func (r *Renderer) BackendName() string {
	return r.name
}

func (r *Renderer) TextureCreate(pixels []uint8, texture *resources.Texture) error {
	return r.backend.TextureCreate(pixels, texture)
}

func (r *Renderer) TextureDestroy(texture *resources.Texture) error {
	return r.backend.TextureDestroy(texture)
}

func (r *Renderer) TextureCreateWriteable(texture *resources.Texture) error {
	return r.backend.TextureCreateWriteable(texture)
}

func (r *Renderer) TextureResize(texture *resources.Texture, newWidth, newHeight uint32) error {
	return r.backend.TextureResize(texture, newWidth, newHeight)
}

func (r *Renderer) TextureWriteData(texture *resources.Texture, offset, size uint32, pixels []uint8) error {
	return r.backend.TextureWriteData(texture, offset, size, pixels)
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}
