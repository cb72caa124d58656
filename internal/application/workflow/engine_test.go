package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/garyjia/billing-assistant/internal/application/dispatcher"
	"github.com/garyjia/billing-assistant/internal/catalog"
	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"github.com/garyjia/billing-assistant/internal/domain/event"
	domainwf "github.com/garyjia/billing-assistant/internal/domain/workflow"
	"github.com/garyjia/billing-assistant/internal/drafting"
	"github.com/garyjia/billing-assistant/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	root   string
	sink   *outbox.FileSink
	engine *Engine
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "data")
	sink := outbox.NewFileSink(filepath.Join(dir, "sent_emails", "outbox.jsonl"), "billing@example.com", zap.NewNop())
	engine := NewEngine(catalog.NewStore(root, zap.NewNop()), drafting.NewTemplateDrafter(), sink, zap.NewNop(), opts...)
	return &fixture{root: root, sink: sink, engine: engine}
}

func (f *fixture) addFile(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{f.root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func (f *fixture) entries(t *testing.T) []outbox.Entry {
	t.Helper()
	entries, err := f.sink.Entries(context.Background())
	require.NoError(t, err)
	return entries
}

func strPtr(s string) *string { return &s }

func TestStart_EmptyCatalogSuspendsWithSparseDraft(t *testing.T) {
	f := newFixture(t)

	st, err := f.engine.Start(context.Background(), StartRequest{
		Task:         entity.TaskRecentInvoice,
		Account:      "Account123",
		ContactEmail: "jane@example.com",
	})

	require.NoError(t, err)
	require.NotNil(t, st.Fetched)
	require.NotNil(t, st.Fetched.RecentInvoice)
	assert.False(t, st.Fetched.RecentInvoice.Found)
	assert.Equal(t, []string{}, st.Attachments)
	assert.Contains(t, st.Draft, "- Account: \n- Invoice: \n- Date: \n")
	assert.True(t, st.AwaitingApproval)
	assert.False(t, st.Approved)
	assert.Equal(t, domainwf.StateAwaitingApproval, st.Stage)
	assert.Equal(t, entity.MessageAwaitingApproval, st.UIMessage)
	assert.Empty(t, f.entries(t), "start must never write to the outbox")
}

func TestStart_RecentInvoiceAttachesPDF(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "invoices", "2024-01-10", "Invoice_Account123_INV001.pdf")
	latest := f.addFile(t, "invoices", "2024-01-12", "Invoice_Account123_INV002.pdf")

	st, err := f.engine.Start(context.Background(), StartRequest{Task: entity.TaskRecentInvoice, Account: "account123"})

	require.NoError(t, err)
	require.True(t, st.Fetched.RecentInvoice.Found)
	assert.Equal(t, "INV002", st.Fetched.RecentInvoice.Invoice.InvoiceNo)
	assert.Equal(t, []string{latest}, st.Attachments)
	assert.Contains(t, st.Draft, "- Invoice: INV002\n- Date: 2024-01-12\n")
}

func TestStart_PeriodTasksHaveNoAttachments(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "invoices", "2024-01-10", "Invoice_Account123_INV001.pdf")
	f.addFile(t, "invoices", "2024-01-12", "Invoice_Account123_INV002.pdf")
	f.addFile(t, "payments", "2024-01-15", "Payments_Account123.xlsx")

	invoices, err := f.engine.Start(context.Background(), StartRequest{
		Task: entity.TaskInvoicesPeriod, Account: "Account123", StartDate: "2024-01-01", EndDate: "2024-01-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invoices.Fetched.Invoices.Count)
	assert.Equal(t, []string{}, invoices.Attachments)
	assert.Contains(t, invoices.Draft, "- 2024-01-10 / Account123 / INV001\n")
	assert.NotContains(t, invoices.Draft, "INV002")

	payments, err := f.engine.Start(context.Background(), StartRequest{
		Task: entity.TaskPaymentsPeriod, StartDate: "2024-01-15", EndDate: "2024-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, payments.Fetched.Payments.Count)
	assert.Equal(t, []string{}, payments.Attachments)
}

func TestStart_InvalidRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  StartRequest
	}{
		{"unknown task", StartRequest{Task: "refunds"}},
		{"missing start date", StartRequest{Task: entity.TaskInvoicesPeriod, EndDate: "2024-01-31"}},
		{"missing end date", StartRequest{Task: entity.TaskPaymentsPeriod, StartDate: "2024-01-01"}},
		{"non ISO date", StartRequest{Task: entity.TaskInvoicesPeriod, StartDate: "01/01/2024", EndDate: "2024-01-31"}},
		{"impossible date", StartRequest{Task: entity.TaskInvoicesPeriod, StartDate: "2024-02-30", EndDate: "2024-03-01"}},
		{"start after end", StartRequest{Task: entity.TaskPaymentsPeriod, StartDate: "2024-02-01", EndDate: "2024-01-31"}},
		{"bad contact email", StartRequest{Task: entity.TaskRecentInvoice, ContactEmail: "not-an-address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := f.engine.Start(context.Background(), tt.req)
			assert.Nil(t, st)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestStart_RetrievalFailureStopsRun(t *testing.T) {
	f := newFixture(t)
	// a regular file where the invoices directory should be
	require.NoError(t, os.MkdirAll(f.root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.root, catalog.InvoicesDir), []byte("x"), 0644))

	st, err := f.engine.Start(context.Background(), StartRequest{Task: entity.TaskRecentInvoice})

	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrRetrievalFailure)
	require.NotNil(t, st)
	assert.Equal(t, domainwf.StateFailed, st.Stage)
	assert.Equal(t, entity.MessageRetrievalFailed, st.UIMessage)
	assert.False(t, st.AwaitingApproval)
	assert.Empty(t, st.Draft)
}

type failingDrafter struct{}

func (failingDrafter) Draft(context.Context, *entity.FetchResult) (string, error) {
	return "", errors.New("drafter offline")
}

func TestStart_DraftFailureStopsRun(t *testing.T) {
	dir := t.TempDir()
	sink := outbox.NewFileSink(filepath.Join(dir, "outbox.jsonl"), "billing@example.com", zap.NewNop())
	engine := NewEngine(catalog.NewStore(dir, zap.NewNop()), failingDrafter{}, sink, zap.NewNop())

	st, err := engine.Start(context.Background(), StartRequest{Task: entity.TaskRecentInvoice})

	require.Error(t, err)
	assert.Equal(t, domainwf.StateFailed, st.Stage)
	assert.Equal(t, entity.MessageDraftFailed, st.UIMessage)
}

func TestResume_ApprovedSendsOnce(t *testing.T) {
	f := newFixture(t)
	invoice := f.addFile(t, "invoices", "2024-01-12", "Invoice_Account123_INV002.pdf")
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{
		Task: entity.TaskRecentInvoice, Account: "Account123", ContactEmail: "jane@example.com",
	})
	require.NoError(t, err)

	done, err := f.engine.Resume(ctx, suspended, strPtr("Hello"), true)

	require.NoError(t, err)
	assert.Equal(t, domainwf.StateDone, done.Stage)
	assert.True(t, done.Approved)
	assert.False(t, done.AwaitingApproval)
	assert.Equal(t, "Hello", done.Draft)
	require.NotEmpty(t, done.SentID)
	assert.Equal(t, "Email sent: ok ("+done.SentID+")", done.UIMessage)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hello", entries[0].Body)
	assert.Equal(t, "jane@example.com", entries[0].To)
	assert.Equal(t, "billing@example.com", entries[0].From)
	assert.Equal(t, entity.DefaultSubject, entries[0].Subject)
	assert.Equal(t, []string{invoice}, entries[0].Attachments)
	assert.Equal(t, done.SentID, entries[0].Timestamp)
}

func TestResume_UneditedDraftIsSentVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskPaymentsPeriod, StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)

	_, err = f.engine.Resume(ctx, suspended, nil, true)
	require.NoError(t, err)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, suspended.Draft, entries[0].Body)
	assert.Equal(t, entity.DefaultRecipient, entries[0].To)
}

func TestResume_WithheldApprovalAbandons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice})
	require.NoError(t, err)

	abandoned, err := f.engine.Resume(ctx, suspended, strPtr("Edited"), false)

	require.NoError(t, err)
	assert.Equal(t, domainwf.StateAbandoned, abandoned.Stage)
	assert.Equal(t, entity.MessageApprovalWithheld, abandoned.UIMessage)
	assert.False(t, abandoned.Approved)
	assert.True(t, abandoned.AwaitingApproval)
	assert.Equal(t, "Edited", abandoned.Draft)
	assert.Empty(t, abandoned.SentID)
	assert.Empty(t, f.entries(t))

	again, err := f.engine.Resume(ctx, abandoned, nil, false)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateAbandoned, again.Stage)
	assert.Empty(t, f.entries(t))

	sent, err := f.engine.Resume(ctx, again, nil, true)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateDone, sent.Stage)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "Edited", entries[0].Body)
}

func TestResume_DoesNotMutateCallerState(t *testing.T) {
	f := newFixture(t)
	f.addFile(t, "invoices", "2024-01-12", "Invoice_Account123_INV002.pdf")
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice})
	require.NoError(t, err)
	snapshot := suspended.Clone()

	done, err := f.engine.Resume(ctx, suspended, strPtr("changed"), true)
	require.NoError(t, err)

	assert.Equal(t, snapshot, suspended)
	done.Attachments[0] = "tampered"
	done.Fetched.RecentInvoice.Invoice.InvoiceNo = "tampered"
	assert.Equal(t, snapshot, suspended)
}

func TestResume_RejectsStatesNotAwaitingApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice})
	require.NoError(t, err)
	done, err := f.engine.Resume(ctx, suspended, nil, true)
	require.NoError(t, err)

	tests := []struct {
		name  string
		state *entity.WorkflowState
	}{
		{"nil state", nil},
		{"never started", &entity.WorkflowState{Task: entity.TaskRecentInvoice}},
		{"flag without stage", &entity.WorkflowState{Task: entity.TaskRecentInvoice, AwaitingApproval: true, Stage: domainwf.StateDrafting}},
		{"already sent", done},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Resume(ctx, tt.state, nil, true)
			assert.ErrorIs(t, err, ErrInvalidApprovalState)
		})
	}

	assert.Len(t, f.entries(t), 1, "rejected resumes must not send")
}

func TestResume_RevalidatesContactEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice, ContactEmail: "jane@example.com"})
	require.NoError(t, err)
	forged := suspended.Clone()
	forged.ContactEmail = "not an email"

	got, err := f.engine.Resume(ctx, forged, nil, true)

	assert.ErrorIs(t, err, ErrInvalidRequest)
	require.NotNil(t, got)
	assert.Equal(t, domainwf.StateAwaitingApproval, got.Stage)
	assert.True(t, got.AwaitingApproval)
	assert.Empty(t, got.SentID)
	assert.Empty(t, f.entries(t), "nothing may be recorded for an invalid recipient")
}

func TestResume_SendFailure(t *testing.T) {
	dir := t.TempDir()
	outboxPath := filepath.Join(dir, "outbox.jsonl")
	require.NoError(t, os.Mkdir(outboxPath, 0755))
	sink := outbox.NewFileSink(outboxPath, "billing@example.com", zap.NewNop())
	engine := NewEngine(catalog.NewStore(dir, zap.NewNop()), drafting.NewTemplateDrafter(), sink, zap.NewNop())
	ctx := context.Background()

	suspended, err := engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice})
	require.NoError(t, err)

	failed, err := engine.Resume(ctx, suspended, nil, true)

	assert.ErrorIs(t, err, outbox.ErrSendFailure)
	require.NotNil(t, failed)
	assert.Equal(t, domainwf.StateFailed, failed.Stage)
	assert.Equal(t, entity.MessageSendFailed, failed.UIMessage)
	assert.Empty(t, failed.SentID)
	assert.NotContains(t, failed.UIMessage, "sent:")
}

func TestEngineOptions(t *testing.T) {
	f := newFixture(t, WithDefaultRecipient("desk@example.com"), WithSubject("Statement"), WithSubject(""))
	ctx := context.Background()

	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice})
	require.NoError(t, err)
	_, err = f.engine.Resume(ctx, suspended, nil, true)
	require.NoError(t, err)

	entries := f.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "desk@example.com", entries[0].To)
	assert.Equal(t, "Statement", entries[0].Subject)
}

// recorder collects dispatched events; the dispatcher is closed before reading
type recorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *recorder) handle(_ context.Context, evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestEngine_PublishesRunEvents(t *testing.T) {
	ctx := context.Background()
	d := dispatcher.NewDispatcher()
	rec := &recorder{}
	d.Subscribe("recorder", rec.handle, event.RunTypes...)
	f := newFixture(t, WithDispatcher(d))

	// handlers run asynchronously, so only the set of events is compared
	suspended, err := f.engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice, ContactEmail: "jane@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, suspended.RunID)

	abandoned, err := f.engine.Resume(ctx, suspended, nil, false)
	require.NoError(t, err)
	sent, err := f.engine.Resume(ctx, abandoned, strPtr("Hello"), true)
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx))

	assert.ElementsMatch(t, []event.Type{event.TypeRunSuspended, event.TypeRunAbandoned, event.TypeRunSent}, rec.types())
	for _, evt := range rec.events {
		assert.Equal(t, suspended.RunID, evt.RunID, "every event of a run shares its run id")
		if evt.Type == event.TypeRunSent {
			assert.Equal(t, sent.SentID, evt.GetPayloadString("sent_id"))
			assert.Equal(t, "jane@example.com", evt.GetPayloadString("recipient"))
			assert.Equal(t, "DONE", evt.GetPayloadString("stage"))
		}
	}
}

func TestEngine_PublishesFailure(t *testing.T) {
	ctx := context.Background()
	d := dispatcher.NewDispatcher()
	rec := &recorder{}
	d.Subscribe("recorder", rec.handle, event.TypeRunFailed)

	sink := outbox.NewFileSink(filepath.Join(t.TempDir(), "outbox.jsonl"), "billing@example.com", zap.NewNop())
	engine := NewEngine(catalog.NewStore(t.TempDir(), zap.NewNop()), failingDrafter{}, sink, zap.NewNop(), WithDispatcher(d))

	st, err := engine.Start(ctx, StartRequest{Task: entity.TaskRecentInvoice})
	require.Error(t, err)
	require.NoError(t, d.Close(ctx))

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, st.RunID, evt.RunID)
	assert.Equal(t, "DRAFTING", evt.GetPayloadString("failed_in"))
	assert.Equal(t, entity.MessageDraftFailed, evt.GetPayloadString("message"))
}
