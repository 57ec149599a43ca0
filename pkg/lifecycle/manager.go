package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/formship/pkg/log"
)

// ErrIllegalTransition is returned by TransitionTo for a transition the
// machine does not allow.
var ErrIllegalTransition = errors.New("formship: illegal state transition")

// Machine is the single owner of an uploader's session state.
type Machine struct {
	mu       sync.RWMutex
	state    State
	logger   log.Logger
	observer Observer
}

// NewMachine creates a machine in StateIdle.
func NewMachine(logger log.Logger, observer Observer) *Machine {
	return &Machine{
		state:    StateIdle,
		logger:   log.OrNoop(logger),
		observer: observer,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Is reports whether the current state is s.
func (m *Machine) Is(s State) bool {
	return m.State() == s
}

// TransitionTo moves the machine to next if the transition is allowed.
func (m *Machine) TransitionTo(next State, reason string) error {
	m.mu.Lock()
	prev := m.state
	if !allowed(prev, next) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, prev, next)
	}
	m.state = next
	m.mu.Unlock()

	// Notify outside of lock
	if m.observer != nil {
		m.observer.OnStateChange(prev, next, reason)
	}

	m.logger.Debug("state transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}

func allowed(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateBusy || to == StateDestroyed
	case StateBusy:
		return to == StateIdle
	default:
		return false
	}
}
