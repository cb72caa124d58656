package workflow

// Trigger is an event that moves a run between states
type Trigger string

const (
	TriggerBegin   Trigger = "BEGIN"
	TriggerFetched Trigger = "FETCHED"
	TriggerDrafted Trigger = "DRAFTED"
	TriggerRoute   Trigger = "ROUTE"
	TriggerSent    Trigger = "SENT"
	TriggerFail    Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
