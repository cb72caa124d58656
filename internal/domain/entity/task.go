package entity

// TaskKind selects which records a run fetches
type TaskKind string

var validTasks = map[TaskKind]bool{
	TaskRecentInvoice:  true,
	TaskInvoicesPeriod: true,
	TaskPaymentsPeriod: true,
}

// IsValid returns true for the three supported task kinds
func (k TaskKind) IsValid() bool {
	return validTasks[k]
}

// RequiresPeriod returns true if the task needs a start and end date
func (k TaskKind) RequiresPeriod() bool {
	return k == TaskInvoicesPeriod || k == TaskPaymentsPeriod
}

// String returns the wire name of the task
func (k TaskKind) String() string {
	return string(k)
}
