package session

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State is the lifecycle position of a session.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateExpired        State = "expired"
	StateLoggedOut      State = "logged_out"
)

const (
	evtAuthenticate = "authenticate"
	evtIdentified   = "identified"
	evtExpire       = "expire"
	evtLogout       = "logout"
	evtReset        = "reset"
)

type machineContext struct{}

// newMachine builds the session lifecycle:
//
//	anonymous -> authenticating -> authenticated -> (expired | logged_out) -> anonymous
//
// Events that are not defined for the current state leave it unchanged.
func newMachine() (*statekit.Interpreter[machineContext], error) {
	builder := statekit.NewMachine[machineContext]("session").
		WithInitial(statekit.StateID(StateAnonymous)).
		WithContext(machineContext{})

	builder.State(statekit.StateID(StateAnonymous)).
		On(evtAuthenticate).Target(statekit.StateID(StateAuthenticating)).
		On(evtExpire).Target(statekit.StateID(StateExpired)).
		Done()

	builder.State(statekit.StateID(StateAuthenticating)).
		On(evtIdentified).Target(statekit.StateID(StateAuthenticated)).
		On(evtExpire).Target(statekit.StateID(StateExpired)).
		On(evtLogout).Target(statekit.StateID(StateLoggedOut)).
		Done()

	builder.State(statekit.StateID(StateAuthenticated)).
		On(evtAuthenticate).Target(statekit.StateID(StateAuthenticating)).
		On(evtExpire).Target(statekit.StateID(StateExpired)).
		On(evtLogout).Target(statekit.StateID(StateLoggedOut)).
		Done()

	builder.State(statekit.StateID(StateExpired)).
		On(evtLogout).Target(statekit.StateID(StateLoggedOut)).
		Done()

	builder.State(statekit.StateID(StateLoggedOut)).
		On(evtReset).Target(statekit.StateID(StateAnonymous)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building session state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return interp, nil
}
