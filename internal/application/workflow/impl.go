package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"github.com/garyjia/billing-assistant/internal/domain/event"
	domainwf "github.com/garyjia/billing-assistant/internal/domain/workflow"
	"github.com/garyjia/billing-assistant/pkg/utils"
	"go.uber.org/zap"
)

// validate checks the request and returns the parsed period for period tasks
func (r StartRequest) validate() (start, end time.Time, err error) {
	if !r.Task.IsValid() {
		return start, end, fmt.Errorf("%w: unknown task %q", ErrInvalidRequest, r.Task)
	}
	if r.ContactEmail != "" {
		if err := utils.ValidateEmail(r.ContactEmail); err != nil {
			return start, end, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	if !r.Task.RequiresPeriod() {
		return start, end, nil
	}

	if r.StartDate == "" || r.EndDate == "" {
		return start, end, fmt.Errorf("%w: task %s needs start_date and end_date", ErrInvalidRequest, r.Task)
	}
	if start, err = utils.ParseISODate(r.StartDate); err != nil {
		return start, end, fmt.Errorf("%w: start_date: %v", ErrInvalidRequest, err)
	}
	if end, err = utils.ParseISODate(r.EndDate); err != nil {
		return start, end, fmt.Errorf("%w: end_date: %v", ErrInvalidRequest, err)
	}
	if start.After(end) {
		return start, end, fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidRequest, r.StartDate, r.EndDate)
	}
	return start, end, nil
}

// Start runs setup, retrieval and drafting, then suspends the run for human
// approval. On retrieval or drafting failure the returned state is FAILED and
// the error is returned alongside it.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*entity.WorkflowState, error) {
	start, end, err := req.validate()
	if err != nil {
		e.logger.Warn("Rejected run request",
			zap.String("task", req.Task.String()),
			zap.Error(err))
		return nil, err
	}

	st := &entity.WorkflowState{
		RunID:        event.NewID(),
		Task:         req.Task,
		Account:      req.Account,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ContactEmail: req.ContactEmail,
		Stage:        domainwf.StateSetup,
	}
	machine := BuildRunStateMachine(domainwf.StateSetup, st)
	log := e.logger.With(zap.String("run_id", st.RunID), zap.String("task", st.Task.String()))

	// Setup
	st.Fetched = nil
	st.Draft = ""
	st.Attachments = []string{}
	st.AwaitingApproval = false
	st.Approved = false
	if err := e.fire(ctx, machine, st, domainwf.TriggerBegin); err != nil {
		return st, err
	}

	// Fetching
	fetched, err := e.fetch(ctx, st.Task, st.Account, start, end)
	if err != nil {
		log.Error("Record retrieval failed", zap.Error(err))
		return st, e.fail(ctx, machine, st, entity.MessageRetrievalFailed, err)
	}
	st.Fetched = fetched
	if r := fetched.RecentInvoice; r != nil && r.Found && r.Invoice != nil {
		st.Attachments = []string{r.Invoice.Path}
	}
	if err := e.fire(ctx, machine, st, domainwf.TriggerFetched); err != nil {
		return st, err
	}

	// Drafting
	draft, err := e.drafter.Draft(ctx, fetched)
	if err != nil {
		log.Error("Drafting failed", zap.Error(err))
		return st, e.fail(ctx, machine, st, entity.MessageDraftFailed, err)
	}
	st.Draft = draft
	if err := e.fire(ctx, machine, st, domainwf.TriggerDrafted); err != nil {
		return st, err
	}

	st.AwaitingApproval = true
	st.UIMessage = entity.MessageAwaitingApproval

	log.Info("Run suspended for approval",
		zap.String("stage", st.Stage.String()),
		zap.Int("attachments", len(st.Attachments)),
		zap.Int("steps", len(machine.Trail())))
	e.publish(ctx, event.TypeRunSuspended, st, map[string]interface{}{
		"attachments": len(st.Attachments),
	})

	return st, nil
}

// Resume applies the reviewer's decision to a suspended run. The caller's
// state is left untouched; the outcome is returned as a new value.
func (e *Engine) Resume(ctx context.Context, state *entity.WorkflowState, editedDraft *string, approved bool) (*entity.WorkflowState, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: no state given", ErrInvalidApprovalState)
	}
	if !state.AwaitingApproval || !state.Stage.IsSuspended() {
		e.logger.Warn("Resume rejected",
			zap.String("stage", state.Stage.String()),
			zap.Bool("awaiting_approval", state.AwaitingApproval))
		return state.Clone(), fmt.Errorf("%w: stage %s, awaiting_approval=%t",
			ErrInvalidApprovalState, state.Stage, state.AwaitingApproval)
	}

	// same contact rule as Start
	if state.ContactEmail != "" {
		if err := utils.ValidateEmail(state.ContactEmail); err != nil {
			e.logger.Warn("Resume rejected, bad contact email", zap.String("run_id", state.RunID), zap.Error(err))
			return state.Clone(), fmt.Errorf("%w: contact_email: %v", ErrInvalidRequest, err)
		}
	}

	st := state.Clone()
	if editedDraft != nil {
		st.Draft = *editedDraft
	}
	st.Approved = approved

	machine := BuildRunStateMachine(st.Stage, st)
	log := e.logger.With(zap.String("run_id", st.RunID), zap.String("task", st.Task.String()))

	if err := e.fire(ctx, machine, st, domainwf.TriggerRoute); err != nil {
		return st, err
	}

	if st.Stage == domainwf.StateAbandoned {
		st.UIMessage = entity.MessageApprovalWithheld
		log.Info("Approval withheld, email not sent")
		e.publish(ctx, event.TypeRunAbandoned, st, map[string]interface{}{"approved": false})
		return st, nil
	}

	// Sending
	to := st.ContactEmail
	if to == "" {
		to = e.defaultRecipient
	}
	receipt, err := e.sink.Record(ctx, to, e.subject, st.Draft, st.Attachments)
	if err != nil {
		log.Error("Send failed", zap.String("to", to), zap.Error(err))
		return st, e.fail(ctx, machine, st, entity.MessageSendFailed, fmt.Errorf("send to %s: %w", to, err))
	}

	st.AwaitingApproval = false
	st.SentID = receipt.ID
	st.UIMessage = fmt.Sprintf("Email sent: %s (%s)", receipt.Status, receipt.ID)
	if err := e.fire(ctx, machine, st, domainwf.TriggerSent); err != nil {
		return st, err
	}

	log.Info("Email sent",
		zap.String("to", to),
		zap.String("sent_id", receipt.ID),
		zap.Int("attachments", len(st.Attachments)))
	e.publish(ctx, event.TypeRunSent, st, map[string]interface{}{
		"recipient":   to,
		"sent_id":     receipt.ID,
		"attachments": len(st.Attachments),
		"approved":    true,
	})

	return st, nil
}

// fetch dispatches to the record store query for the task
func (e *Engine) fetch(ctx context.Context, task entity.TaskKind, account string, start, end time.Time) (*entity.FetchResult, error) {
	switch task {
	case entity.TaskRecentInvoice:
		inv, err := e.store.MostRecentInvoice(ctx, account)
		if err != nil {
			return nil, err
		}
		return entity.NewRecentInvoiceResult(inv), nil

	case entity.TaskInvoicesPeriod:
		invoices, err := e.store.InvoicesInPeriod(ctx, start, end, account)
		if err != nil {
			return nil, err
		}
		return entity.NewInvoicesResult(invoices), nil

	case entity.TaskPaymentsPeriod:
		payments, err := e.store.PaymentsInPeriod(ctx, start, end, account)
		if err != nil {
			return nil, err
		}
		return entity.NewPaymentsResult(payments), nil
	}

	return nil, fmt.Errorf("%w: unknown task %q", ErrInvalidRequest, task)
}

// fire moves the machine and mirrors the new stage into the state
func (e *Engine) fire(ctx context.Context, machine domainwf.StateMachine, st *entity.WorkflowState, trigger domainwf.Trigger) error {
	from := machine.State()
	if err := machine.Fire(ctx, trigger); err != nil {
		return fmt.Errorf("run transition: %w", err)
	}
	st.Stage = machine.State()

	e.logger.Debug("Run transition",
		zap.String("from", from.String()),
		zap.String("trigger", trigger.String()),
		zap.String("stage", st.Stage.String()))

	return nil
}

// fail stops the run in FAILED and returns cause
func (e *Engine) fail(ctx context.Context, machine domainwf.StateMachine, st *entity.WorkflowState, message string, cause error) error {
	st.UIMessage = message
	from := machine.State()
	if err := e.fire(ctx, machine, st, domainwf.TriggerFail); err != nil {
		return fmt.Errorf("%v: %w", cause, err)
	}
	e.publish(ctx, event.TypeRunFailed, st, map[string]interface{}{
		"failed_in": from.String(),
		"error":     cause.Error(),
	})
	return cause
}

// publish emits a run event when a dispatcher is configured
func (e *Engine) publish(ctx context.Context, t event.Type, st *entity.WorkflowState, extra map[string]interface{}) {
	if e.events == nil {
		return
	}
	payload := map[string]interface{}{
		"task":    st.Task.String(),
		"account": st.Account,
		"stage":   st.Stage.String(),
		"message": st.UIMessage,
	}
	for k, v := range extra {
		payload[k] = v
	}
	e.events.DispatchAsync(ctx, event.NewEvent(t, st.RunID, payload))
}
