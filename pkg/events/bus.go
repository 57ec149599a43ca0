package events

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/bft-labs/formship/pkg/log"
)

// ErrUnknownCategory is returned for a category outside the four known ones.
var ErrUnknownCategory = errors.New("formship: unknown event category")

// Bus is the listener table of one uploader. It is safe for concurrent use;
// handlers run outside the lock and may register or remove listeners.
type Bus struct {
	mu        sync.RWMutex
	defaults  map[Category]func(Event)
	listeners map[Category][]*Callback
	logger    log.Logger
}

// NewBus creates an empty table. Every default handler starts as a no-op.
func NewBus(logger log.Logger) *Bus {
	return &Bus{
		defaults:  make(map[Category]func(Event)),
		listeners: make(map[Category][]*Callback),
		logger:    log.OrNoop(logger),
	}
}

// SetDefault installs the default handler of c. A nil fn restores the no-op.
func (b *Bus) SetDefault(c Category, fn func(Event)) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		delete(b.defaults, c)
		return nil
	}
	b.defaults[c] = fn
	return nil
}

// On appends cb to the listeners of c.
func (b *Bus) On(c Category, cb *Callback) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	if cb == nil {
		return errors.New("formship: nil callback")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[c] = append(b.listeners[c], cb)
	return nil
}

// Off removes listeners of c. Without callbacks the whole category is
// cleared; otherwise every entry identical to one of cbs is removed.
func (b *Bus) Off(c Category, cbs ...*Callback) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(cbs) == 0 {
		delete(b.listeners, c)
		return nil
	}
	kept := b.listeners[c][:0:0]
	for _, registered := range b.listeners[c] {
		if !contains(cbs, registered) {
			kept = append(kept, registered)
		}
	}
	b.listeners[c] = kept
	return nil
}

// OffAll clears the listeners of every category. Default handlers stay.
func (b *Bus) OffAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[Category][]*Callback)
}

// Reset clears listeners and default handlers.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[Category][]*Callback)
	b.defaults = make(map[Category]func(Event))
}

// Len returns the number of listeners registered for c.
func (b *Bus) Len(c Category) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[c])
}

// Emit dispatches e to the default handler of e.Category and then to each
// listener registered at the time of the call.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	def := b.defaults[e.Category]
	listeners := append([]*Callback(nil), b.listeners[e.Category]...)
	b.mu.RUnlock()

	if def != nil {
		b.invoke(e, def, -1)
	}
	for i, cb := range listeners {
		b.invoke(e, cb.Call, i)
	}
}

func (b *Bus) invoke(e Event, fn func(Event), index int) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				log.String("category", string(e.Category)),
				log.Int("listener", index),
				log.Any("panic", r),
				log.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn(e)
}

func contains(cbs []*Callback, cb *Callback) bool {
	for _, c := range cbs {
		if c == cb {
			return true
		}
	}
	return false
}
