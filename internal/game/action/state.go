package action

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// State is the controller's explicit mode.
type State string

const (
	// StateIdle: no group expanded, menu collapsed.
	StateIdle State = "idle"
	// StateGroupSelected: one group expanded, no sub-mode owns input.
	StateGroupSelected State = "group_selected"
	// StateTargeting: a Mover or Aim session has started and the menu is frozen.
	StateTargeting State = "targeting"
)

const (
	eventExpand   = "expand"
	eventCollapse = "collapse"
	eventFreeze   = "freeze"
	eventReset    = "reset"
)

func newMachine() *fsm.FSM {
	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventExpand, Src: []string{string(StateIdle), string(StateGroupSelected)}, Dst: string(StateGroupSelected)},
			{Name: eventCollapse, Src: []string{string(StateGroupSelected)}, Dst: string(StateIdle)},
			{Name: eventFreeze, Src: []string{string(StateGroupSelected)}, Dst: string(StateTargeting)},
			{Name: eventReset, Src: []string{string(StateIdle), string(StateGroupSelected), string(StateTargeting)}, Dst: string(StateIdle)},
		},
		fsm.Callbacks{},
	)
}

// fire applies event, treating a transition to the current state as success.
func fire(machine *fsm.FSM, event string) error {
	err := machine.Event(context.Background(), event)
	var same fsm.NoTransitionError
	if err != nil && !errors.As(err, &same) {
		return err
	}
	return nil
}
