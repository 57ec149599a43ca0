// Package lifecycle provides the session state machine of an uploader.
//
// An uploader is Idle until Send starts a session, Busy while that session is
// in flight and Idle again once the session reached a terminal outcome.
// Destruct moves an Idle uploader to Destroyed, from which nothing leaves.
//
// # Usage
//
//	machine := lifecycle.NewMachine(logger, observer)
//
//	if err := machine.TransitionTo(lifecycle.StateBusy, "send"); err != nil {
//	    logger.Warn("upload already in progress")
//	    return
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Idle -> Busy
//   - Busy -> Idle
//   - Idle -> Destroyed
//
// Every other transition is rejected with ErrIllegalTransition and leaves the
// state unchanged.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
