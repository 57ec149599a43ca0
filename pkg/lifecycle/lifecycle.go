package lifecycle

// State represents the session state of an uploader.
type State int

const (
	StateIdle State = iota
	StateBusy
	StateDestroyed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBusy:
		return "Busy"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Observer is called after every accepted state change.
type Observer interface {
	OnStateChange(previous, current State, reason string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(previous, current State, reason string)

// OnStateChange calls f.
func (f ObserverFunc) OnStateChange(previous, current State, reason string) {
	f(previous, current, reason)
}
