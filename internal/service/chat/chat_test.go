package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/parley/internal/core"
)

type fakeConversation struct {
	id       int64
	ownerID  string
	reportID string
	messages []core.Message
	phases   []core.Phase
}

type fakeRepo struct {
	nextID    int64
	nextMsgID int64
	convs     map[string]*fakeConversation
	byID      map[int64]*fakeConversation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		convs: make(map[string]*fakeConversation),
		byID:  make(map[int64]*fakeConversation),
	}
}

func (r *fakeRepo) GetOrCreate(_ context.Context, ownerID, reportID string) (*core.Conversation, error) {
	key := ownerID + "|" + reportID
	conv, ok := r.convs[key]
	if !ok {
		r.nextID++
		conv = &fakeConversation{id: r.nextID, ownerID: ownerID, reportID: reportID}
		r.convs[key] = conv
		r.byID[conv.id] = conv
	}
	return &core.Conversation{ID: conv.id, OwnerID: ownerID, ReportID: reportID}, nil
}

func (r *fakeRepo) AddMessage(_ context.Context, conversationID int64, role, content string) (*core.Message, error) {
	conv, ok := r.byID[conversationID]
	if !ok {
		return nil, core.ErrNotFound
	}
	r.nextMsgID++
	msg := core.Message{ID: r.nextMsgID, Role: role, Content: content, CreatedAt: time.Now().UTC()}
	conv.messages = append(conv.messages, msg)
	return &msg, nil
}

func (r *fakeRepo) AddPhase(_ context.Context, conversationID int64, number int, summary string) (*core.Phase, error) {
	conv, ok := r.byID[conversationID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if number != len(conv.phases)+1 {
		return nil, core.ErrInvalidState
	}
	phase := core.Phase{Number: number, Summary: summary, CreatedAt: time.Now().UTC()}
	conv.phases = append(conv.phases, phase)
	return &phase, nil
}

func (r *fakeRepo) Get(_ context.Context, ownerID, reportID string) (*core.Conversation, error) {
	conv, ok := r.convs[ownerID+"|"+reportID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &core.Conversation{
		ID:       conv.id,
		OwnerID:  ownerID,
		ReportID: reportID,
		Messages: append([]core.Message(nil), conv.messages...),
		Phases:   append([]core.Phase(nil), conv.phases...),
	}, nil
}

func (r *fakeRepo) Clear(_ context.Context, ownerID, reportID string) error {
	key := ownerID + "|" + reportID
	conv, ok := r.convs[key]
	if !ok {
		return nil
	}
	delete(r.convs, key)
	delete(r.byID, conv.id)
	return nil
}

func (r *fakeRepo) CountMessages(_ context.Context, conversationID int64) (int, error) {
	conv, ok := r.byID[conversationID]
	if !ok {
		return 0, core.ErrNotFound
	}
	return len(conv.messages), nil
}

func (r *fakeRepo) RecentMessages(_ context.Context, conversationID int64, limit int) ([]core.Message, error) {
	conv, ok := r.byID[conversationID]
	if !ok {
		return nil, core.ErrNotFound
	}
	msgs := conv.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]core.Message(nil), msgs...), nil
}

func (r *fakeRepo) Phases(_ context.Context, conversationID int64) ([]core.Phase, error) {
	conv, ok := r.byID[conversationID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]core.Phase(nil), conv.phases...), nil
}

type fakeReports struct {
	contexts map[string]string
}

func (r *fakeReports) SaveReport(_ context.Context, _ core.Report) error { return nil }

func (r *fakeReports) GetReport(_ context.Context, _, _ string) (*core.Report, error) {
	return nil, core.ErrNotFound
}

func (r *fakeReports) ListReports(_ context.Context, _ string) ([]core.Report, error) {
	return nil, nil
}

func (r *fakeReports) GetContext(_ context.Context, ownerID, reportID string) (string, error) {
	ctx, ok := r.contexts[ownerID+"|"+reportID]
	if !ok {
		return "", core.ErrNotFound
	}
	return ctx, nil
}

type fakeAI struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (a *fakeAI) Chat(_ context.Context, messages []core.Message) (core.Message, error) {
	a.calls++
	a.prompts = append(a.prompts, messages[len(messages)-1].Content)
	if a.err != nil {
		return core.Message{}, a.err
	}
	resp := a.responses[0]
	if len(a.responses) > 1 {
		a.responses = a.responses[1:]
	}
	return core.Message{Role: core.RoleAssistant, Content: resp}, nil
}

type fakeNotifier struct {
	events []core.Event
}

func (n *fakeNotifier) Publish(_ context.Context, event core.Event) {
	n.events = append(n.events, event)
}

func newTestService(ai *fakeAI) (*Service, *fakeRepo, *fakeNotifier) {
	repo := newFakeRepo()
	reports := &fakeReports{contexts: map[string]string{
		"alice|rep-1": "Contract dispute with a supplier.",
	}}
	notifier := &fakeNotifier{}
	return NewService(repo, reports, ai, notifier), repo, notifier
}

func TestHandleTurnFirstMessage(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "Tell me more.", "phase_summary": null}`}}
	svc, repo, notifier := newTestService(ai)

	result, err := svc.HandleTurn(context.Background(), "alice", "rep-1", "They missed the deadline again.")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if result.Reply != "Tell me more." {
		t.Errorf("reply = %q, want %q", result.Reply, "Tell me more.")
	}
	if result.PhaseCompleted != nil {
		t.Errorf("first message must not complete a phase, got %+v", result.PhaseCompleted)
	}

	conv := repo.convs["alice|rep-1"]
	if len(conv.messages) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(conv.messages))
	}
	if conv.messages[0].Role != core.RoleUser || conv.messages[1].Role != core.RoleAssistant {
		t.Errorf("unexpected message roles: %s, %s", conv.messages[0].Role, conv.messages[1].Role)
	}
	if len(conv.phases) != 0 {
		t.Errorf("stored phases = %d, want 0", len(conv.phases))
	}

	if len(notifier.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(notifier.events))
	}
	if notifier.events[0].Type != core.EventNewReply {
		t.Errorf("event type = %q, want %q", notifier.events[0].Type, core.EventNewReply)
	}
}

func TestHandleTurnPhaseBoundary(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "Noted.", "phase_summary": null}`}}
	svc, repo, _ := newTestService(ai)
	ctx := context.Background()

	// Four full exchanges bring the log to 8 messages.
	for i := 0; i < 4; i++ {
		if _, err := svc.HandleTurn(ctx, "alice", "rep-1", fmt.Sprintf("update %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	// The 9th message closes phase 1.
	ai.responses = []string{`{"reply": "Phase done.", "phase_summary": "Supplier conceded the delay was their fault."}`}
	result, err := svc.HandleTurn(ctx, "alice", "rep-1", "They finally admitted it.")
	if err != nil {
		t.Fatalf("boundary turn: %v", err)
	}

	if result.PhaseCompleted == nil {
		t.Fatal("boundary turn did not complete a phase")
	}
	if result.PhaseCompleted.Number != 1 {
		t.Errorf("phase number = %d, want 1", result.PhaseCompleted.Number)
	}
	if result.PhaseCompleted.Summary != "Supplier conceded the delay was their fault." {
		t.Errorf("phase summary = %q", result.PhaseCompleted.Summary)
	}

	conv := repo.convs["alice|rep-1"]
	if len(conv.messages) != 10 {
		t.Errorf("stored messages = %d, want 10", len(conv.messages))
	}
	if len(conv.phases) != 1 {
		t.Errorf("stored phases = %d, want 1", len(conv.phases))
	}

	// The boundary prompt must have demanded the summary.
	last := ai.prompts[len(ai.prompts)-1]
	if want := "end of Phase 1"; !strings.Contains(last, want) {
		t.Errorf("boundary prompt missing %q", want)
	}
}

func TestHandleTurnModelFailureKeepsUserMessage(t *testing.T) {
	ai := &fakeAI{err: errors.New("upstream 500")}
	svc, repo, notifier := newTestService(ai)
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "alice", "rep-1", "Are you there?")
	if !errors.Is(err, core.ErrGeneration) {
		t.Fatalf("error = %v, want ErrGeneration", err)
	}

	conv := repo.convs["alice|rep-1"]
	if len(conv.messages) != 1 {
		t.Fatalf("stored messages = %d, want 1 (user message committed)", len(conv.messages))
	}
	if conv.messages[0].Role != core.RoleUser {
		t.Errorf("surviving message role = %s, want user", conv.messages[0].Role)
	}
	if len(notifier.events) != 0 {
		t.Errorf("failed turn must not publish events, got %d", len(notifier.events))
	}

	// The retry reuses the pending user message instead of appending again.
	ai.err = nil
	ai.responses = []string{`{"reply": "Yes, go on.", "phase_summary": null}`}
	result, err := svc.HandleTurn(ctx, "alice", "rep-1", "Are you there?")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Reply != "Yes, go on." {
		t.Errorf("retry reply = %q", result.Reply)
	}
	if len(conv.messages) != 2 {
		t.Fatalf("stored messages after retry = %d, want 2 (no duplicate user message)", len(conv.messages))
	}
	if conv.messages[0].Content != "Are you there?" || conv.messages[1].Role != core.RoleAssistant {
		t.Errorf("unexpected log after retry: %+v", conv.messages)
	}
}

func TestHandleTurnRetryAtPhaseBoundary(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "Noted.", "phase_summary": null}`}}
	svc, repo, _ := newTestService(ai)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.HandleTurn(ctx, "alice", "rep-1", fmt.Sprintf("update %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	// The boundary turn fails after committing the 9th message.
	ai.err = errors.New("upstream timeout")
	if _, err := svc.HandleTurn(ctx, "alice", "rep-1", "They finally admitted it."); !errors.Is(err, core.ErrGeneration) {
		t.Fatalf("boundary failure: error = %v, want ErrGeneration", err)
	}

	conv := repo.convs["alice|rep-1"]
	if len(conv.messages) != 9 {
		t.Fatalf("stored messages after failure = %d, want 9", len(conv.messages))
	}

	// The retry must see the same boundary and still close phase 1.
	ai.err = nil
	ai.responses = []string{`{"reply": "Phase done.", "phase_summary": "Supplier conceded fault."}`}
	result, err := svc.HandleTurn(ctx, "alice", "rep-1", "They finally admitted it.")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.PhaseCompleted == nil || result.PhaseCompleted.Number != 1 {
		t.Fatalf("retry did not complete phase 1, got %+v", result.PhaseCompleted)
	}
	if len(conv.messages) != 10 {
		t.Errorf("stored messages after retry = %d, want 10", len(conv.messages))
	}
	if len(conv.phases) != 1 {
		t.Fatalf("stored phases = %d, want 1", len(conv.phases))
	}

	// A boundary failure must not shift later boundaries: five more turns
	// reach message 19 and close phase 2.
	ai.responses = []string{`{"reply": "Noted.", "phase_summary": null}`}
	for i := 0; i < 4; i++ {
		if _, err := svc.HandleTurn(ctx, "alice", "rep-1", fmt.Sprintf("followup %d", i)); err != nil {
			t.Fatalf("followup %d: %v", i, err)
		}
	}
	ai.responses = []string{`{"reply": "Phase done.", "phase_summary": "Terms for make-good delivery agreed."}`}
	result, err = svc.HandleTurn(ctx, "alice", "rep-1", "We settled on the terms.")
	if err != nil {
		t.Fatalf("second boundary: %v", err)
	}
	if result.PhaseCompleted == nil || result.PhaseCompleted.Number != 2 {
		t.Fatalf("second boundary did not complete phase 2, got %+v", result.PhaseCompleted)
	}
	if len(conv.phases) != 2 {
		t.Errorf("stored phases = %d, want 2", len(conv.phases))
	}
}

func TestHandleTurnMultiplePhases(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "Noted.", "phase_summary": null}`}}
	svc, repo, _ := newTestService(ai)
	ctx := context.Background()

	summaries := map[int]string{
		5:  "Supplier conceded the delay was their fault.",
		10: "Compensation schedule agreed in principle.",
	}
	for i := 1; i <= 12; i++ {
		if s, ok := summaries[i]; ok {
			ai.responses = []string{fmt.Sprintf(`{"reply": "Phase done.", "phase_summary": %q}`, s)}
		} else {
			ai.responses = []string{`{"reply": "Noted.", "phase_summary": null}`}
		}
		if _, err := svc.HandleTurn(ctx, "alice", "rep-1", fmt.Sprintf("update %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	conv := repo.convs["alice|rep-1"]
	if len(conv.messages) != 24 {
		t.Errorf("stored messages = %d, want 24", len(conv.messages))
	}
	if len(conv.phases) != 2 {
		t.Fatalf("stored phases = %d, want 2", len(conv.phases))
	}
	for i, phase := range conv.phases {
		if phase.Number != i+1 {
			t.Errorf("phase[%d].Number = %d, want %d", i, phase.Number, i+1)
		}
	}
	if conv.phases[1].Summary != summaries[10] {
		t.Errorf("phase 2 summary = %q", conv.phases[1].Summary)
	}

	// Both completed summaries appear as long-term memory in later prompts.
	last := ai.prompts[len(ai.prompts)-1]
	if !strings.Contains(last, "[PHASE 1 SUMMARY]") || !strings.Contains(last, "[PHASE 2 SUMMARY]") {
		t.Errorf("later prompt missing phase summaries:\n%s", last)
	}
}

func TestHandleTurnUnparseableOutput(t *testing.T) {
	ai := &fakeAI{responses: []string{"Plain prose, no JSON here."}}
	svc, repo, _ := newTestService(ai)

	result, err := svc.HandleTurn(context.Background(), "alice", "rep-1", "Hello.")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if result.Reply != "Plain prose, no JSON here." {
		t.Errorf("reply = %q, want raw model text", result.Reply)
	}
	if result.PhaseCompleted != nil {
		t.Errorf("degraded turn must not complete a phase")
	}
	if got := repo.convs["alice|rep-1"].messages[1].Content; got != "Plain prose, no JSON here." {
		t.Errorf("stored assistant message = %q", got)
	}
}

func TestHandleTurnMissingSummaryLeavesGap(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "Noted.", "phase_summary": null}`}}
	svc, repo, _ := newTestService(ai)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.HandleTurn(ctx, "alice", "rep-1", fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	conv := repo.convs["alice|rep-1"]
	if len(conv.messages) != 10 {
		t.Fatalf("stored messages = %d, want 10", len(conv.messages))
	}
	if len(conv.phases) != 0 {
		t.Errorf("phase recorded without a summary: %+v", conv.phases)
	}
}

func TestHandleTurnValidation(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "ok", "phase_summary": null}`}}
	svc, _, _ := newTestService(ai)
	ctx := context.Background()

	if _, err := svc.HandleTurn(ctx, "alice", "rep-1", "   "); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("blank message: error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.HandleTurn(ctx, "", "rep-1", "hi"); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("missing owner: error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.HandleTurn(ctx, "alice", "rep-404", "hi"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown report: error = %v, want ErrNotFound", err)
	}
	if ai.calls != 0 {
		t.Errorf("rejected turns must not reach the model, calls = %d", ai.calls)
	}
}

func TestHistoryAndClear(t *testing.T) {
	ai := &fakeAI{responses: []string{`{"reply": "ok", "phase_summary": null}`}}
	svc, _, _ := newTestService(ai)
	ctx := context.Background()

	// Unknown pair yields an empty projection, not an error.
	hist, err := svc.History(ctx, "alice", "rep-1")
	if err != nil {
		t.Fatalf("History() on empty pair: %v", err)
	}
	if len(hist.Messages) != 0 || len(hist.Phases) != 0 {
		t.Errorf("empty pair projection not empty: %+v", hist)
	}

	if _, err := svc.HandleTurn(ctx, "alice", "rep-1", "hi"); err != nil {
		t.Fatalf("HandleTurn(): %v", err)
	}

	hist, err = svc.History(ctx, "alice", "rep-1")
	if err != nil {
		t.Fatalf("History(): %v", err)
	}
	if len(hist.Messages) != 2 {
		t.Errorf("history messages = %d, want 2", len(hist.Messages))
	}

	if err := svc.Clear(ctx, "alice", "rep-1"); err != nil {
		t.Fatalf("Clear(): %v", err)
	}
	if err := svc.Clear(ctx, "alice", "rep-1"); err != nil {
		t.Errorf("Clear() twice should be a no-op, got %v", err)
	}

	hist, err = svc.History(ctx, "alice", "rep-1")
	if err != nil {
		t.Fatalf("History() after clear: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Errorf("history after clear = %d messages, want 0", len(hist.Messages))
	}
}
