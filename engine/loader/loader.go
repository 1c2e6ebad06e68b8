// Package loader implements asynchronous asset loading on top of the
// asyncio queue. Producers enqueue typed load requests from any goroutine;
// a single dispatcher goroutine drains the completion queue and routes each
// payload to its target.
package loader

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vesta-engine/vesta/engine/asyncio"
	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/math"
	"github.com/vesta-engine/vesta/engine/resources"
)

const (
	DefaultReaderCount   = 2
	MaxReaderCount       = 32
	DefaultQueueCapacity = 128
)

// completionSource is the slice of the asyncio queue the dispatcher needs.
type completionSource interface {
	LoadAsync(path string, token uint64) error
	WaitOutcome(timeout time.Duration) (asyncio.Outcome, bool)
	Signal()
	Close() error
}

var _ completionSource = (*asyncio.Queue)(nil)

type Config struct {
	// Number of reader goroutines performing file I/O.
	Readers int
	// Maximum number of submitted-but-undispatched loads.
	QueueCapacity int
	// UploadImage consumes compressed image payloads. Required for
	// EnqueueImageLoad.
	UploadImage ImageUploadFn
	// DecodeAudio consumes encoded audio payloads. Required for
	// EnqueueAudioLoad.
	DecodeAudio AudioDecodeFn
	// OnFailure, when set, is notified of loads that fail after
	// submission succeeded.
	OnFailure FailureFn
}

// AsyncLoader owns the completion queue, the request registry and the
// dispatcher goroutine that ties them together.
type AsyncLoader struct {
	config   Config
	queue    completionSource
	registry *requestRegistry

	running        atomic.Bool
	completedCount atomic.Uint64
	dispatcherDone chan struct{}
	shutdownOnce   sync.Once
	shutdownErr    error
}

func NewAsyncLoader(config *Config) (*AsyncLoader, error) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config
	if cfg.Readers == 0 {
		cfg.Readers = DefaultReaderCount
	}
	cfg.Readers = math.Clamp(cfg.Readers, 1, MaxReaderCount)
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}

	queue, err := asyncio.NewQueue(cfg.Readers, cfg.QueueCapacity)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return newWithSource(cfg, queue), nil
}

func newWithSource(cfg Config, source completionSource) *AsyncLoader {
	l := &AsyncLoader{
		config:         cfg,
		queue:          source,
		registry:       newRequestRegistry(),
		dispatcherDone: make(chan struct{}),
	}
	l.running.Store(true)
	go l.dispatcher()
	return l
}

// EnqueueImageLoad submits an asynchronous read of a compressed image file.
// On completion the payload is handed to the configured UploadImage handler
// together with the target texture. Returns false when the submission was
// rejected; no load is in flight in that case.
func (l *AsyncLoader) EnqueueImageLoad(path string, texture *resources.Texture) bool {
	if texture == nil {
		core.LogError("async loader: image load of '%s' requires a target texture", path)
		return false
	}
	if l.config.UploadImage == nil {
		core.LogError("async loader: no image upload handler configured")
		return false
	}
	return l.enqueue(path, imageUpload{texture: texture})
}

// EnqueueAudioLoad submits an asynchronous read of an encoded audio file.
// On completion the payload is handed to the configured DecodeAudio handler
// together with the target buffer.
func (l *AsyncLoader) EnqueueAudioLoad(path string, buffer *resources.AudioBuffer) bool {
	if buffer == nil {
		core.LogError("async loader: audio load of '%s' requires a target buffer", path)
		return false
	}
	if l.config.DecodeAudio == nil {
		core.LogError("async loader: no audio decode handler configured")
		return false
	}
	return l.enqueue(path, audioDecode{buffer: buffer})
}

// EnqueueCustomLoad submits an asynchronous read whose payload is handed to
// the given callback on the dispatcher goroutine. The context is passed
// through untouched.
func (l *AsyncLoader) EnqueueCustomLoad(path string, callback LoadCallback, context interface{}) bool {
	if callback == nil {
		core.LogError("async loader: custom load of '%s' requires a callback", path)
		return false
	}
	return l.enqueue(path, customLoad{callback: callback, context: context})
}

func (l *AsyncLoader) enqueue(path string, variant loadVariant) bool {
	if !l.running.Load() {
		core.LogWarn("async loader: enqueue of '%s' after shutdown", path)
		return false
	}

	token := l.registry.register(&pendingLoad{
		variant:     variant,
		path:        path,
		submittedAt: time.Now(),
	})
	if err := l.queue.LoadAsync(path, token); err != nil {
		// The slot must not leak on a failed submission.
		l.registry.release(token)
		core.LogError("async loader: submitting '%s' failed: %s", path, err.Error())
		return false
	}
	return true
}

// CompletedCount returns how many loads have finished with a complete
// outcome since the loader started.
func (l *AsyncLoader) CompletedCount() uint64 {
	return l.completedCount.Load()
}

// Pending returns the number of loads submitted but not yet dispatched.
func (l *AsyncLoader) Pending() int {
	return l.registry.live()
}

func (l *AsyncLoader) dispatcher() {
	defer close(l.dispatcherDone)

	for l.running.Load() {
		outcome, ok := l.queue.WaitOutcome(-1)
		if !ok {
			// Woken without an outcome: either a shutdown signal or a
			// closed queue. The loop condition decides.
			continue
		}
		l.dispatch(outcome)
	}
}

func (l *AsyncLoader) dispatch(outcome asyncio.Outcome) {
	switch outcome.Result {
	case asyncio.ResultComplete:
		l.completeLoad(outcome)
	case asyncio.ResultFailure:
		l.failLoad(outcome, false)
	case asyncio.ResultCancelled:
		l.failLoad(outcome, true)
	default:
		panic(fmt.Sprintf("async loader: outcome with unknown result %d", outcome.Result))
	}
}

func (l *AsyncLoader) completeLoad(outcome asyncio.Outcome) {
	defer outcome.Buffer.Release()

	request := l.registry.resolve(outcome.Token)
	payload := outcome.Buffer.Bytes()

	err := l.invoke(request, payload)

	// The slot is recycled after dispatch so Pending covers the handler.
	l.registry.release(outcome.Token)
	l.completedCount.Add(1)

	if err != nil {
		core.LogError("async loader: %s handler for '%s' failed: %s", request.variant.variantName(), request.path, err.Error())
		core.MetricsLoadFailed()
		l.notifyFailure(request.path, err)
		return
	}

	core.MetricsLoadCompleted(len(payload), time.Since(request.submittedAt))
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_ASSET_LOADED, Data: request.path})
	core.LogDebug("async loader: completed %s load of '%s' (%d bytes)", request.variant.variantName(), request.path, len(payload))
}

func (l *AsyncLoader) invoke(request *pendingLoad, payload []byte) (err error) {
	// A panicking handler must not take the dispatcher down with it.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load handler panic: %v", r)
		}
	}()

	switch v := request.variant.(type) {
	case imageUpload:
		return l.config.UploadImage(v.texture, payload)
	case audioDecode:
		return l.config.DecodeAudio(v.buffer, payload)
	case customLoad:
		return v.callback(v.context, payload)
	default:
		panic(fmt.Sprintf("async loader: unknown load variant %T", request.variant))
	}
}

func (l *AsyncLoader) failLoad(outcome asyncio.Outcome, cancelled bool) {
	if outcome.Buffer != nil {
		outcome.Buffer.Release()
	}

	request := l.registry.release(outcome.Token)

	err := outcome.Err
	if err == nil {
		err = fmt.Errorf("load of '%s' did not complete", request.path)
	}

	if cancelled {
		core.MetricsLoadCancelled()
		core.LogDebug("async loader: load of '%s' cancelled", request.path)
	} else {
		core.MetricsLoadFailed()
		core.LogError("async loader: load of '%s' failed: %s", request.path, err.Error())
	}
	l.notifyFailure(request.path, err)
}

func (l *AsyncLoader) notifyFailure(path string, err error) {
	if l.config.OnFailure != nil {
		l.config.OnFailure(path, err)
	}
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_ASSET_LOAD_FAILED, Data: path})
}

/**
 * @brief Shuts the loader down.
 *
 * New enqueues are rejected, the dispatcher is woken and joined, then the
 * completion queue is closed. Loads still in flight are abandoned. Safe to
 * call more than once; later calls return immediately.
 */
func (l *AsyncLoader) Shutdown() error {
	l.shutdownOnce.Do(func() {
		l.running.Store(false)
		l.queue.Signal()
		<-l.dispatcherDone
		l.shutdownErr = l.queue.Close()
	})
	return l.shutdownErr
}
