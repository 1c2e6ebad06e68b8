package core

import "sync"

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next update.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// An asset finished loading through the async pipeline.
	/* Context usage:
	 * path := context.Data.(string)
	 */
	EVENT_CODE_ASSET_LOADED SystemEventCode = 0x10

	// An asset load failed or was cancelled.
	/* Context usage:
	 * path := context.Data.(string)
	 */
	EVENT_CODE_ASSET_LOAD_FAILED SystemEventCode = 0x11

	// A watched asset file changed on disk.
	/* Context usage:
	 * path := context.Data.(string)
	 */
	EVENT_CODE_ASSET_FILE_CHANGED SystemEventCode = 0x12

	// Reserved for application-level debugging.
	EVENT_CODE_DEBUG0 SystemEventCode = 0x20

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type eventCodeEntry struct {
	callbacks []FnOnEvent
}

// State structure.
type eventSystemState struct {
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES]eventCodeEntry
}

/**
 * Event system internal state. Listeners register on the main goroutine
 * while subsystems fire from their own, hence the lock.
 */
var onceEvent sync.Once
var eventsMutex sync.RWMutex
var isInitialized bool = false
var eventState *eventSystemState = nil

type FnOnEvent func(context EventContext)

func EventInitialize() bool {
	if isInitialized {
		return false
	}
	onceEvent.Do(func() {
		eventState = &eventSystemState{}
	})
	isInitialized = true
	return true
}

func EventShutdown() error {
	if !isInitialized {
		return nil
	}
	eventsMutex.Lock()
	defer eventsMutex.Unlock()
	// Free the callback arrays. Any objects pointed to should be destroyed on their own.
	for i := 0; i < MAX_MESSAGE_CODES; i++ {
		if len(eventState.registered[i].callbacks) != 0 {
			eventState.registered[i].callbacks = nil
		}
	}
	return nil
}

/**
 * Register to listen for when events are sent with the provided code.
 * @param code The event code to listen for.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func EventRegister(code SystemEventCode, onEvent FnOnEvent) bool {
	if !isInitialized || onEvent == nil {
		return false
	}
	if code < 0 || code >= MAX_MESSAGE_CODES {
		LogWarn("event register called with out of range code %d", code)
		return false
	}
	eventsMutex.Lock()
	defer eventsMutex.Unlock()
	eventState.registered[code].callbacks = append(eventState.registered[code].callbacks, onEvent)
	return true
}

/**
 * Unregister every listener for the provided code. Returns FALSE when
 * nothing was registered for it.
 */
func EventUnregisterAll(code SystemEventCode) bool {
	if !isInitialized {
		return false
	}
	if code < 0 || code >= MAX_MESSAGE_CODES {
		return false
	}
	eventsMutex.Lock()
	defer eventsMutex.Unlock()
	if len(eventState.registered[code].callbacks) == 0 {
		return false
	}
	eventState.registered[code].callbacks = nil
	return true
}

/**
 * Fires an event to every listener registered for its code.
 * @param context The event payload, carrying the code in Type.
 * @returns TRUE if at least one listener received it, otherwise FALSE.
 */
func EventFire(context EventContext) bool {
	if !isInitialized {
		return false
	}
	if context.Type < 0 || context.Type >= MAX_MESSAGE_CODES {
		return false
	}
	eventsMutex.RLock()
	callbacks := eventState.registered[context.Type].callbacks
	eventsMutex.RUnlock()
	if len(callbacks) == 0 {
		return false
	}
	for _, cb := range callbacks {
		cb(context)
	}
	return true
}
