package loader

import (
	"time"

	"github.com/vesta-engine/vesta/engine/resources"
)

// LoadCallback receives the raw payload of a custom load on the dispatcher
// goroutine, together with the context it was enqueued with.
type LoadCallback func(context interface{}, payload []byte) error

// ImageUploadFn turns compressed image bytes into the target texture.
type ImageUploadFn func(texture *resources.Texture, payload []byte) error

// AudioDecodeFn turns encoded audio bytes into the target buffer.
type AudioDecodeFn func(buffer *resources.AudioBuffer, payload []byte) error

// FailureFn is notified of loads that failed after submission.
type FailureFn func(path string, err error)

// loadVariant is the closed set of things a pending load can resolve into.
// Exactly one variant is stored per registry slot.
type loadVariant interface {
	variantName() string
}

type imageUpload struct {
	texture *resources.Texture
}

func (imageUpload) variantName() string { return "image" }

type audioDecode struct {
	buffer *resources.AudioBuffer
}

func (audioDecode) variantName() string { return "audio" }

type customLoad struct {
	callback LoadCallback
	context  interface{}
}

func (customLoad) variantName() string { return "custom" }

// pendingLoad is the per-request metadata kept alive from enqueue until its
// outcome is dispatched.
type pendingLoad struct {
	variant     loadVariant
	path        string
	submittedAt time.Time
}
