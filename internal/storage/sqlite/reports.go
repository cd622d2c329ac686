package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/parley/internal/core"
)

type ReportsRepo struct {
	db *sql.DB
}

func NewReportsRepo(db *sql.DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

func (r *ReportsRepo) SaveReport(ctx context.Context, report core.Report) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (id, owner_id, title, analysis, chat_context, model_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.OwnerID, report.Title, report.Analysis, report.ChatContext, report.ModelUsed, report.CreatedAt,
	)
	if err != nil {
		return storageErr("save report", err)
	}
	return nil
}

func (r *ReportsRepo) GetReport(ctx context.Context, ownerID, reportID string) (*core.Report, error) {
	report := &core.Report{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, analysis, chat_context, model_used, created_at
		 FROM reports WHERE id = ? AND owner_id = ?`,
		reportID, ownerID,
	).Scan(&report.ID, &report.OwnerID, &report.Title, &report.Analysis, &report.ChatContext, &report.ModelUsed, &report.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", reportID, core.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("load report", err)
	}
	return report, nil
}

func (r *ReportsRepo) ListReports(ctx context.Context, ownerID string) ([]core.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, analysis, chat_context, model_used, created_at
		 FROM reports WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, storageErr("query reports", err)
	}
	defer rows.Close()

	var reports []core.Report
	for rows.Next() {
		var report core.Report
		if err := rows.Scan(&report.ID, &report.OwnerID, &report.Title, &report.Analysis,
			&report.ChatContext, &report.ModelUsed, &report.CreatedAt); err != nil {
			return nil, storageErr("scan report", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate reports", err)
	}
	return reports, nil
}

func (r *ReportsRepo) GetContext(ctx context.Context, ownerID, reportID string) (string, error) {
	var chatContext string
	err := r.db.QueryRowContext(ctx,
		`SELECT chat_context FROM reports WHERE id = ? AND owner_id = ?`,
		reportID, ownerID,
	).Scan(&chatContext)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("report %s: %w", reportID, core.ErrNotFound)
	}
	if err != nil {
		return "", storageErr("load report context", err)
	}
	return chatContext, nil
}
