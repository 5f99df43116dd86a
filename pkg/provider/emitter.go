package provider

import "sync"

// Event names emitted by the provider.
const (
	// EventMessage carries subscription notifications re-labelled as
	// Message values.
	EventMessage = "message"
	// EventNetworkChanged re-emits the wallet's network change payload
	// verbatim.
	EventNetworkChanged = "networkChanged"
	// EventAccountsChanged re-emits the wallet's account change payload
	// verbatim.
	EventAccountsChanged = "accountsChanged"
)

// Message is the payload of an EventMessage emission.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// eventEmitter is a minimal named-event handler registry. Emission is
// fire-and-forget: an event with no registered handler is dropped, never
// buffered.
type eventEmitter struct {
	mu       sync.RWMutex
	handlers map[string][]func(payload any)
}

func newEventEmitter() *eventEmitter {
	return &eventEmitter{
		handlers: make(map[string][]func(payload any)),
	}
}

func (e *eventEmitter) on(event string, handler func(payload any)) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], handler)
}

func (e *eventEmitter) emit(event string, payload any) {
	e.mu.RLock()
	handlers := e.handlers[event]
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler(payload)
	}
}
