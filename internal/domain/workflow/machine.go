package workflow

import "context"

// Step records one transition taken by a machine
type Step struct {
	From    State
	Trigger Trigger
	To      State
}

// StateMachine tracks the current state of one run and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire reports whether the trigger would succeed now, evaluating guards
	CanFire(ctx context.Context, trigger Trigger) bool

	// Fire executes the trigger, moving to the first target whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers configured for the current state
	PermittedTriggers() []Trigger

	// Trail returns the transitions taken since Build, oldest first
	Trail() []Step
}
