package workflow

import (
	"context"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	domainwf "github.com/garyjia/billing-assistant/internal/domain/workflow"
)

// BuildRunStateMachine creates a state machine configured for one billing run.
// ROUTE guards read st.Approved at fire time.
func BuildRunStateMachine(initialState domainwf.State, st *entity.WorkflowState) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	approved := func(context.Context) bool { return st.Approved }
	withheld := func(context.Context) bool { return !st.Approved }

	// SETUP state transitions
	builder.Configure(domainwf.StateSetup).
		Permit(domainwf.TriggerBegin, domainwf.StateFetching)

	// FETCHING state transitions
	builder.Configure(domainwf.StateFetching).
		Permit(domainwf.TriggerFetched, domainwf.StateDrafting).
		Permit(domainwf.TriggerFail, domainwf.StateFailed)

	// DRAFTING state transitions
	builder.Configure(domainwf.StateDrafting).
		Permit(domainwf.TriggerDrafted, domainwf.StateAwaitingApproval).
		Permit(domainwf.TriggerFail, domainwf.StateFailed)

	// AWAITING_APPROVAL state transitions
	builder.Configure(domainwf.StateAwaitingApproval).
		PermitIf(domainwf.TriggerRoute, domainwf.StateSending, approved).
		PermitIf(domainwf.TriggerRoute, domainwf.StateAbandoned, withheld)

	// ABANDONED keeps its draft, so a later approval can still send it
	builder.Configure(domainwf.StateAbandoned).
		PermitIf(domainwf.TriggerRoute, domainwf.StateSending, approved).
		PermitIf(domainwf.TriggerRoute, domainwf.StateAbandoned, withheld)

	// SENDING state transitions
	builder.Configure(domainwf.StateSending).
		Permit(domainwf.TriggerSent, domainwf.StateDone).
		Permit(domainwf.TriggerFail, domainwf.StateFailed)

	// DONE and FAILED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
