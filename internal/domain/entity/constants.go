package entity

// Task kinds a billing run can perform
const (
	TaskRecentInvoice  TaskKind = "recent_invoice"
	TaskInvoicesPeriod TaskKind = "invoices_period"
	TaskPaymentsPeriod TaskKind = "payments_period"
)

// Email defaults
const (
	DefaultSubject   = "Your Billing Summary"
	DefaultRecipient = "customer@example.com"
)

// UI messages shown to the reviewer
const (
	MessageAwaitingApproval = "Draft ready. Awaiting human approval."
	MessageApprovalWithheld = "Approval withheld. Email not sent."
	MessageRetrievalFailed  = "Could not retrieve billing records. The run was stopped."
	MessageDraftFailed      = "Could not draft the email. The run was stopped."
	MessageSendFailed       = "Email could not be recorded as sent. Nothing was delivered."
)
