package entity

import (
	domainwf "github.com/garyjia/billing-assistant/internal/domain/workflow"
)

// WorkflowState is everything one billing run knows. The caller owns it and
// hands it back to the engine on resume; the engine keeps no copy.
type WorkflowState struct {
	RunID string `json:"run_id,omitempty"`

	// Inputs
	Task         TaskKind `json:"task"`
	Account      string   `json:"account,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	ContactEmail string   `json:"contact_email"`

	// Working memory
	Fetched     *FetchResult `json:"fetched,omitempty"`
	Draft       string       `json:"draft"`
	Attachments []string     `json:"attachments"`

	// Human in the loop
	AwaitingApproval bool `json:"awaiting_approval"`
	Approved         bool `json:"approved"`

	Stage     domainwf.State `json:"stage,omitempty"`
	SentID    string         `json:"sent_id,omitempty"`
	UIMessage string         `json:"ui_message,omitempty"`
}

// Clone returns a deep copy so a resume never mutates the caller's value
func (s *WorkflowState) Clone() *WorkflowState {
	if s == nil {
		return nil
	}
	out := *s
	out.Fetched = s.Fetched.Clone()
	if s.Attachments != nil {
		out.Attachments = append([]string{}, s.Attachments...)
	}
	return &out
}
