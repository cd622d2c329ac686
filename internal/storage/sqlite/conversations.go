package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/pkg/log"
)

type ConversationsRepo struct {
	db *sql.DB
}

func NewConversationsRepo(db *sql.DB) *ConversationsRepo {
	return &ConversationsRepo{db: db}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, core.ErrStorage)
}

func (r *ConversationsRepo) GetOrCreate(ctx context.Context, ownerID, reportID string) (*core.Conversation, error) {
	// INSERT OR IGNORE keeps this idempotent: the UNIQUE(owner_id, report_id)
	// constraint guarantees the same pair always maps to the same row.
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (owner_id, report_id, created_at) VALUES (?, ?, ?)`,
		ownerID, reportID, time.Now().UTC(),
	)
	if err != nil {
		return nil, storageErr("create conversation", err)
	}

	conv := &core.Conversation{OwnerID: ownerID, ReportID: reportID}
	err = r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE owner_id = ? AND report_id = ?`,
		ownerID, reportID,
	).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		return nil, storageErr("load conversation", err)
	}
	return conv, nil
}

func (r *ConversationsRepo) AddMessage(ctx context.Context, conversationID int64, role, content string) (*core.Message, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, core.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("check conversation", err)
	}

	msg := &core.Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, storageErr("insert message", err)
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return nil, storageErr("message id", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit message", err)
	}
	return msg, nil
}

func (r *ConversationsRepo) AddPhase(ctx context.Context, conversationID int64, number int, summary string) (*core.Phase, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}
	defer tx.Rollback()

	// Phases must be appended in strict sequence 1, 2, 3, ... The count is
	// checked inside the transaction so a duplicate or out-of-order append
	// can never slip through.
	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phases WHERE conversation_id = ?`, conversationID,
	).Scan(&count)
	if err != nil {
		return nil, storageErr("count phases", err)
	}
	if number != count+1 {
		return nil, fmt.Errorf("phase %d after %d stored phases: %w", number, count, core.ErrInvalidState)
	}

	phase := &core.Phase{
		Number:    number,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO phases (conversation_id, phase_number, summary, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, phase.Number, phase.Summary, phase.CreatedAt,
	)
	if err != nil {
		return nil, storageErr("insert phase", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit phase", err)
	}
	return phase, nil
}

func (r *ConversationsRepo) Get(ctx context.Context, ownerID, reportID string) (*core.Conversation, error) {
	conv := &core.Conversation{OwnerID: ownerID, ReportID: reportID}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE owner_id = ? AND report_id = ?`,
		ownerID, reportID,
	).Scan(&conv.ID, &conv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s/%s: %w", ownerID, reportID, core.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("load conversation", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY id`,
		conv.ID,
	)
	if err != nil {
		return nil, storageErr("query messages", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, storageErr("scan message", err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate messages", err)
	}

	conv.Phases, err = r.Phases(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *ConversationsRepo) Clear(ctx context.Context, ownerID, reportID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE owner_id = ? AND report_id = ?`,
		ownerID, reportID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		// Clearing an absent conversation is a no-op
		return nil
	}
	if err != nil {
		return storageErr("load conversation", err)
	}

	for _, q := range []string{
		`DELETE FROM messages WHERE conversation_id = ?`,
		`DELETE FROM phases WHERE conversation_id = ?`,
		`DELETE FROM conversations WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return storageErr("clear conversation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit clear", err)
	}

	log.FromCtx(ctx).Info().Str("owner", ownerID).Str("report", reportID).Msg("conversation cleared")
	return nil
}

func (r *ConversationsRepo) CountMessages(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID,
	).Scan(&count)
	if err != nil {
		return 0, storageErr("count messages", err)
	}
	return count, nil
}

func (r *ConversationsRepo) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]core.Message, error) {
	// Fetch the LAST 'limit' messages by ordering DESC
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, storageErr("query messages", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, storageErr("scan message", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate messages", err)
	}

	// The query returned messages newest-first; the prompt window needs
	// chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded recent messages")
	return messages, nil
}

func (r *ConversationsRepo) Phases(ctx context.Context, conversationID int64) ([]core.Phase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT phase_number, summary, created_at FROM phases WHERE conversation_id = ? ORDER BY phase_number`,
		conversationID,
	)
	if err != nil {
		return nil, storageErr("query phases", err)
	}
	defer rows.Close()

	var phases []core.Phase
	for rows.Next() {
		var p core.Phase
		if err := rows.Scan(&p.Number, &p.Summary, &p.CreatedAt); err != nil {
			return nil, storageErr("scan phase", err)
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate phases", err)
	}
	return phases, nil
}
