package stream

import (
	"encoding/json"
	"sync"
)

// handler consumes the raw payload of one push event.
type handler func(json.RawMessage)

// emitter is a registration-order listener registry. Listeners are
// process-lifetime subscriptions; there is no unsubscribe.
type emitter struct {
	mu       sync.Mutex
	handlers map[string][]handler
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[string][]handler)}
}

// add registers a listener for the named event.
func (e *emitter) add(event string, h handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], h)
}

// fire invokes every listener for the named event, in registration order.
// A listener that drops its payload (e.g. on a decode error) does not
// affect the others.
func (e *emitter) fire(event string, payload json.RawMessage) {
	e.mu.Lock()
	hs := make([]handler, len(e.handlers[event]))
	copy(hs, e.handlers[event])
	e.mu.Unlock()

	for _, h := range hs {
		h(payload)
	}
}
