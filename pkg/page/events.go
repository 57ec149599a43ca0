package page

import "sync"

// Event names dispatched by a Page.
const (
	EventSubmit  = "submit"
	EventLoad    = "load"
	EventMessage = "message"
)

// Event is delivered to listeners. Data, Origin and Source are set for
// message events only.
type Event struct {
	Type   string
	Target any
	Data   any
	Origin string
	Source *Frame

	prevented bool
}

// PreventDefault cancels the default action of a submit event.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Handler receives dispatched events.
type Handler func(*Event)

// Token identifies one registration.
type Token uint64

type listenerKey struct {
	target any
	name   string
}

type registration struct {
	token   Token
	handler Handler
}

// Registry maps (target, event name) pairs to ordered handlers.
type Registry struct {
	mu       sync.Mutex
	next     Token
	handlers map[listenerKey][]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[listenerKey][]registration)}
}

// Register adds h for events named name on target. target must be comparable.
func (r *Registry) Register(target any, name string, h Handler) Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	key := listenerKey{target, name}
	r.handlers[key] = append(r.handlers[key], registration{token: r.next, handler: h})
	return r.next
}

// Unregister removes the registration identified by tok. It reports whether
// something was removed.
func (r *Registry) Unregister(target any, name string, tok Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := listenerKey{target, name}
	regs := r.handlers[key]
	for i, reg := range regs {
		if reg.token == tok {
			regs = append(regs[:i:i], regs[i+1:]...)
			if len(regs) == 0 {
				delete(r.handlers, key)
			} else {
				r.handlers[key] = regs
			}
			return true
		}
	}
	return false
}

// Count returns how many handlers are registered for name on target.
func (r *Registry) Count(target any, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[listenerKey{target, name}])
}

// Dispatch calls every handler registered for ev.Type on ev.Target. A handler
// unregistered by an earlier handler of the same dispatch is skipped.
func (r *Registry) Dispatch(ev *Event) {
	key := listenerKey{ev.Target, ev.Type}
	r.mu.Lock()
	regs := append([]registration(nil), r.handlers[key]...)
	r.mu.Unlock()

	for _, reg := range regs {
		if !r.registered(key, reg.token) {
			continue
		}
		reg.handler(ev)
	}
}

func (r *Registry) registered(key listenerKey, tok Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.handlers[key] {
		if reg.token == tok {
			return true
		}
	}
	return false
}
