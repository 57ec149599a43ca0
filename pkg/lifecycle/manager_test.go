package lifecycle

import (
	"errors"
	"sync"
	"testing"

	"github.com/bft-labs/formship/pkg/log"
)

// mockObserver tracks state change events for testing.
type mockObserver struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockObserver) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockObserver) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewMachine(t *testing.T) {
	m := NewMachine(log.NewNoopLogger(), nil)

	if m.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", m.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateBusy, "Busy"},
		{StateDestroyed, "Destroyed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestMachine_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"idle to busy", StateIdle, StateBusy, false},
		{"busy to idle", StateBusy, StateIdle, false},
		{"idle to destroyed", StateIdle, StateDestroyed, false},
		{"idle to idle", StateIdle, StateIdle, true},
		{"busy to busy", StateBusy, StateBusy, true},
		{"busy to destroyed", StateBusy, StateDestroyed, true},
		{"destroyed to idle", StateDestroyed, StateIdle, true},
		{"destroyed to busy", StateDestroyed, StateBusy, true},
		{"destroyed to destroyed", StateDestroyed, StateDestroyed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(nil, nil)
			m.state = tt.from

			err := m.TransitionTo(tt.to, "test")

			if (err != nil) != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrIllegalTransition) {
					t.Errorf("error = %v, want ErrIllegalTransition", err)
				}
				if m.State() != tt.from {
					t.Errorf("state = %v after rejected transition, want %v", m.State(), tt.from)
				}
				return
			}
			if m.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", m.State(), tt.to)
			}
		})
	}
}

func TestMachine_NotifiesObserver(t *testing.T) {
	obs := &mockObserver{}
	m := NewMachine(nil, obs)

	_ = m.TransitionTo(StateBusy, "send")
	_ = m.TransitionTo(StateBusy, "send again")
	_ = m.TransitionTo(StateIdle, "load")

	events := obs.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0] != (stateChangeEvent{StateIdle, StateBusy, "send"}) {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1] != (stateChangeEvent{StateBusy, StateIdle, "load"}) {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestObserverFunc(t *testing.T) {
	var got State
	m := NewMachine(nil, ObserverFunc(func(_, current State, _ string) { got = current }))

	if err := m.TransitionTo(StateDestroyed, "destruct"); err != nil {
		t.Fatal(err)
	}
	if got != StateDestroyed {
		t.Errorf("observer saw %v, want Destroyed", got)
	}
	if !m.Is(StateDestroyed) {
		t.Error("Is(StateDestroyed) = false")
	}
}
