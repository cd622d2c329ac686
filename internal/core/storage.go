package core

import "context"

// ConversationRepository is the durable record of messages and phase
// summaries, keyed by (owner, report). It is the sole mutator of both
// lists; all mutating operations are atomic per conversation.
type ConversationRepository interface {
	// GetOrCreate fetches the conversation for (owner, report) or creates
	// an empty one. Idempotent: the same pair always resolves to the same
	// conversation identity.
	GetOrCreate(ctx context.Context, ownerID, reportID string) (*Conversation, error)

	// AddMessage appends to the end of the message log with a
	// server-assigned timestamp. Returns ErrNotFound if the conversation
	// no longer exists.
	AddMessage(ctx context.Context, conversationID int64, role, content string) (*Message, error)

	// AddPhase appends a phase summary. Returns ErrInvalidState unless
	// number == stored phase count + 1.
	AddPhase(ctx context.Context, conversationID int64, number int, summary string) (*Phase, error)

	// Get returns the full projection (messages and phases in order), or
	// ErrNotFound.
	Get(ctx context.Context, ownerID, reportID string) (*Conversation, error)

	// Clear deletes the conversation with all messages and phases in one
	// transaction. Clearing a missing conversation is a no-op.
	Clear(ctx context.Context, ownerID, reportID string) error

	CountMessages(ctx context.Context, conversationID int64) (int, error)

	// RecentMessages returns up to limit most recent messages in
	// chronological order.
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error)

	// Phases returns all phases ordered by phase number.
	Phases(ctx context.Context, conversationID int64) ([]Phase, error)
}

// ReportRepository is the external analysis store a conversation is
// anchored to. The chat core only ever reads from it.
type ReportRepository interface {
	SaveReport(ctx context.Context, report Report) error
	GetReport(ctx context.Context, ownerID, reportID string) (*Report, error)
	ListReports(ctx context.Context, ownerID string) ([]Report, error)

	// GetContext resolves the background-context string for a report.
	// Returns ErrNotFound when the report does not exist.
	GetContext(ctx context.Context, ownerID, reportID string) (string, error)
}
