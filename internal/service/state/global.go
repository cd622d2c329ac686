package state

import (
	"context"
	"sync"
)

type provider interface {
	SetModel(ctx context.Context, spec string) error
}

// GlobalState holds runtime-mutable settings: the active model and the
// report each session is currently talking about.
type GlobalState struct {
	provider provider

	mu            sync.RWMutex
	activeReports map[string]string
}

func NewGlobalState(
	provider provider,
) *GlobalState {
	return &GlobalState{
		provider:      provider,
		activeReports: make(map[string]string),
	}
}

func (s *GlobalState) ChangeModel(ctx context.Context, spec string) error {
	return s.provider.SetModel(ctx, spec)
}

// SetActiveReport pins a report for the session; subsequent messages in
// that session are routed to its conversation.
func (s *GlobalState) SetActiveReport(sessionID, reportID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeReports[sessionID] = reportID
}

// ActiveReport returns the pinned report for the session, or "" when the
// session has not selected one yet.
func (s *GlobalState) ActiveReport(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeReports[sessionID]
}

func (s *GlobalState) ClearActiveReport(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeReports, sessionID)
}
