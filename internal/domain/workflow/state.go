package workflow

// State is a stage of a billing run
type State string

const (
	StateSetup            State = "SETUP"
	StateFetching         State = "FETCHING"
	StateDrafting         State = "DRAFTING"
	StateAwaitingApproval State = "AWAITING_APPROVAL"
	StateSending          State = "SENDING"
	StateDone             State = "DONE"
	StateAbandoned        State = "ABANDONED"
	StateFailed           State = "FAILED"
)

var validStates = map[State]bool{
	StateSetup:            true,
	StateFetching:         true,
	StateDrafting:         true,
	StateAwaitingApproval: true,
	StateSending:          true,
	StateDone:             true,
	StateAbandoned:        true,
	StateFailed:           true,
}

// Abandoned is an outcome of a resume call but not terminal: the draft is
// kept and a later resume with approval may still send it.
var terminalStates = map[State]bool{
	StateDone:   true,
	StateFailed: true,
}

var suspendedStates = map[State]bool{
	StateAwaitingApproval: true,
	StateAbandoned:        true,
}

// IsTerminal returns true if no transition can leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsSuspended returns true if the run is parked waiting for a human decision
func (s State) IsSuspended() bool {
	return suspendedStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known run state
func (s State) IsValid() bool {
	return validStates[s]
}
