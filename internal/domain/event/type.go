package event

// Type identifies a run lifecycle event
type Type string

const (
	TypeRunSuspended Type = "run.suspended"
	TypeRunAbandoned Type = "run.abandoned"
	TypeRunSent      Type = "run.sent"
	TypeRunFailed    Type = "run.failed"
)

// RunTypes lists every run event type in emission order
var RunTypes = []Type{TypeRunSuspended, TypeRunAbandoned, TypeRunSent, TypeRunFailed}

func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRunSuspended, TypeRunAbandoned, TypeRunSent, TypeRunFailed:
		return true
	default:
		return false
	}
}
