package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/pkg/log"
)

// Service runs the turn loop: it owns phase bookkeeping, prompt assembly
// and the write ordering around the model call. Turns for the same
// (owner, report) pair are serialized; different pairs run concurrently.
type Service struct {
	conversations core.ConversationRepository
	reports       core.ReportRepository
	ai            core.AIProvider
	notifier      core.Notifier
	locks         *conversationLocks
}

func NewService(
	conversations core.ConversationRepository,
	reports core.ReportRepository,
	ai core.AIProvider,
	notifier core.Notifier,
) *Service {
	return &Service{
		conversations: conversations,
		reports:       reports,
		ai:            ai,
		notifier:      notifier,
		locks:         newConversationLocks(),
	}
}

// HandleTurn processes one user message end to end and returns the
// assistant reply, plus the phase summary if this turn closed a phase.
//
// The user message is committed before the model call. A model failure
// therefore leaves it as the pending tail of the log; the retried turn
// reuses that pending message rather than appending again, recomputing the
// same phase boundary, so no boundary is ever lost.
func (s *Service) HandleTurn(ctx context.Context, ownerID, reportID, text string) (*core.TurnResult, error) {
	logger := log.FromCtx(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty message: %w", core.ErrInvalidInput)
	}
	if ownerID == "" || reportID == "" {
		return nil, fmt.Errorf("owner and report are required: %w", core.ErrInvalidInput)
	}

	unlock := s.locks.Lock(ownerID + "|" + reportID)
	defer unlock()

	subjectContext, err := s.reports.GetContext(ctx, ownerID, reportID)
	if err != nil {
		return nil, fmt.Errorf("resolve report %s: %w", reportID, err)
	}

	conv, err := s.conversations.GetOrCreate(ctx, ownerID, reportID)
	if err != nil {
		return nil, err
	}

	// A failed turn leaves the user message committed with no reply. When
	// the log ends in such a pending message, the retry reuses it instead of
	// appending a second copy, so the boundary computed below is the same
	// one the failed turn saw.
	last, err := s.conversations.RecentMessages(ctx, conv.ID, 1)
	if err != nil {
		return nil, err
	}
	if len(last) == 1 && last[0].Role == core.RoleUser {
		text = last[0].Content
		logger.Debug().
			Str("owner_id", ownerID).
			Str("report_id", reportID).
			Msg("Resuming turn with pending user message")
	} else {
		if _, err := s.conversations.AddMessage(ctx, conv.ID, core.RoleUser, text); err != nil {
			return nil, err
		}
	}

	count, err := s.conversations.CountMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	phaseEnd := IsPhaseEnd(count)
	phaseNumber := PhaseNumber(count)

	recent, err := s.conversations.RecentMessages(ctx, conv.ID, core.ShortTermWindow)
	if err != nil {
		return nil, err
	}
	phases, err := s.conversations.Phases(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(PromptRequest{
		SubjectContext: subjectContext,
		Phases:         phases,
		Recent:         recent,
		UserMessage:    text,
		PhaseEnd:       phaseEnd,
		PhaseNumber:    phaseNumber,
	})

	logger.Debug().
		Str("owner_id", ownerID).
		Str("report_id", reportID).
		Int("messages", count).
		Int("phase", phaseNumber).
		Bool("phase_end", phaseEnd).
		Int("prompt_tokens", promptTokens(prompt)).
		Msg("Turn assembled")

	raw, err := s.ai.Chat(ctx, []core.Message{{Role: core.RoleUser, Content: prompt}})
	if err != nil {
		// The user message stays committed; the caller may retry the turn.
		return nil, fmt.Errorf("model call: %v: %w", err, core.ErrGeneration)
	}

	reply, summary := ExtractTurnOutput(raw.Content)

	if _, err := s.conversations.AddMessage(ctx, conv.ID, core.RoleAssistant, reply); err != nil {
		return nil, err
	}

	result := &core.TurnResult{Reply: reply}

	if phaseEnd {
		if summary == "" {
			// The phase stays unsummarized permanently; the next boundary is
			// ten messages away and covers a different block.
			logger.Warn().
				Str("owner_id", ownerID).
				Str("report_id", reportID).
				Int("phase", phaseNumber).
				Msg("Model returned no phase summary, leaving gap")
		} else {
			phase, err := s.conversations.AddPhase(ctx, conv.ID, phaseNumber, summary)
			switch {
			case errors.Is(err, core.ErrInvalidState):
				logger.Warn().
					Int("phase", phaseNumber).
					Msg("Phase summary out of sequence, discarding")
			case err != nil:
				return nil, err
			default:
				result.PhaseCompleted = phase
			}
		}
	}

	s.notifier.Publish(ctx, core.Event{
		Type:           core.EventNewReply,
		OwnerID:        ownerID,
		ReportID:       reportID,
		Reply:          reply,
		PhaseCompleted: result.PhaseCompleted,
		At:             time.Now().UTC(),
	})

	return result, nil
}

// History returns the full conversation projection. A pair with no stored
// conversation yields an empty projection rather than an error.
func (s *Service) History(ctx context.Context, ownerID, reportID string) (*core.Conversation, error) {
	conv, err := s.conversations.Get(ctx, ownerID, reportID)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Conversation{
			OwnerID:  ownerID,
			ReportID: reportID,
			Messages: []core.Message{},
			Phases:   []core.Phase{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Clear wipes the conversation for the pair. Clearing a pair that was
// never started is a no-op.
func (s *Service) Clear(ctx context.Context, ownerID, reportID string) error {
	unlock := s.locks.Lock(ownerID + "|" + reportID)
	defer unlock()

	return s.conversations.Clear(ctx, ownerID, reportID)
}
