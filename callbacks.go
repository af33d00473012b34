package cliorch

import (
	"log/slog"
	"sync"
)

// Event names for the callback bus.
const (
	EventTokensUsed     = "tokens_used"
	EventProviderSwitch = "provider_switch"
	EventCircuitOpen    = "circuit_open"
	EventCircuitClose   = "circuit_close"
)

// ProviderSwitchData is the payload emitted on EventProviderSwitch.
type ProviderSwitchData struct {
	From    ProviderName
	To      ProviderName
	Reason  string
	Context map[string]string
}

// CircuitEventData is the payload emitted on EventCircuitOpen/EventCircuitClose.
type CircuitEventData struct {
	Provider ProviderName
}

// CallbackBus stores a list of listeners per event name and emits to all of
// them in registration order. A listener that panics or returns is always
// isolated from the others and from the caller of Emit — §4.J and §9 both
// require that listener failures never propagate.
type CallbackBus struct {
	mu        sync.RWMutex
	listeners map[string][]func(any)
	logger    *slog.Logger
}

// NewCallbackBus creates an empty bus. If logger is nil, slog.Default() is
// used to report swallowed listener panics.
func NewCallbackBus(logger *slog.Logger) *CallbackBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackBus{listeners: make(map[string][]func(any)), logger: logger}
}

// On registers a listener for event.
func (b *CallbackBus) On(event string, fn func(any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], fn)
}

// OnTokensUsed registers a typed listener for EventTokensUsed.
func (b *CallbackBus) OnTokensUsed(fn func(TokenEvent)) {
	b.On(EventTokensUsed, func(data any) {
		if ev, ok := data.(TokenEvent); ok {
			fn(ev)
		}
	})
}

// OnProviderSwitch registers a typed listener for EventProviderSwitch.
func (b *CallbackBus) OnProviderSwitch(fn func(ProviderSwitchData)) {
	b.On(EventProviderSwitch, func(data any) {
		if ev, ok := data.(ProviderSwitchData); ok {
			fn(ev)
		}
	})
}

// OnCircuitOpen registers a typed listener for EventCircuitOpen.
func (b *CallbackBus) OnCircuitOpen(fn func(CircuitEventData)) {
	b.On(EventCircuitOpen, func(data any) {
		if ev, ok := data.(CircuitEventData); ok {
			fn(ev)
		}
	})
}

// OnCircuitClose registers a typed listener for EventCircuitClose.
func (b *CallbackBus) OnCircuitClose(fn func(CircuitEventData)) {
	b.On(EventCircuitClose, func(data any) {
		if ev, ok := data.(CircuitEventData); ok {
			fn(ev)
		}
	})
}

// Emit calls every listener registered for event, in registration order,
// swallowing and logging any panic so one bad listener can't break another
// or the caller of Emit.
func (b *CallbackBus) Emit(event string, data any) {
	b.mu.RLock()
	fns := make([]func(any), len(b.listeners[event]))
	copy(fns, b.listeners[event])
	b.mu.RUnlock()

	for _, fn := range fns {
		b.callSafely(event, fn, data)
	}
}

func (b *CallbackBus) callSafely(event string, fn func(any), data any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("cliorch: callback listener panicked", "event", event, "panic", r)
		}
	}()
	fn(data)
}
