package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dispatchreport/constants"
)

// ReportEntry is one generation attempt in report_history.
type ReportEntry struct {
	ID           uuid.UUID              `json:"id"`
	ManagementNo string                 `json:"management_no"`
	SiteName     string                 `json:"site_name"`
	Filename     string                 `json:"filename"`
	Status       constants.ReportStatus `json:"status"`
	Detail       string                 `json:"detail,omitempty"`
	ElapsedMS    int64                  `json:"elapsed_ms"`
	CreatedAt    time.Time              `json:"created_at"`
}

// HistoryRepository records and lists generation attempts.
type HistoryRepository interface {
	Insert(ctx context.Context, e ReportEntry) error
	List(ctx context.Context, limit int) ([]ReportEntry, error)
}

type historyRepo struct {
	db *sql.DB
}

// NewHistoryRepository ensures the history table exists and returns the
// repository. Timestamps are stored as RFC3339Nano strings so sqlite and
// postgres round-trip identically.
func NewHistoryRepository(ctx context.Context, db *sql.DB) (HistoryRepository, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS report_history (
		id TEXT PRIMARY KEY,
		management_no TEXT NOT NULL DEFAULT '',
		site_name TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create report_history: %w", err)
	}
	return &historyRepo{db: db}, nil
}

func (r *historyRepo) Insert(ctx context.Context, e ReportEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO report_history
		(id, management_no, site_name, filename, status, detail, elapsed_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID.String(), e.ManagementNo, e.SiteName, e.Filename,
		string(e.Status), e.Detail, e.ElapsedMS, e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert report_history: %w", err)
	}
	return nil
}

func (r *historyRepo) List(ctx context.Context, limit int) ([]ReportEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, management_no, site_name, filename, status, detail, elapsed_ms, created_at
		FROM report_history ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query report_history: %w", err)
	}
	defer rows.Close()

	var out []ReportEntry
	for rows.Next() {
		var e ReportEntry
		var id, status, createdAt string
		if err := rows.Scan(&id, &e.ManagementNo, &e.SiteName, &e.Filename, &status, &e.Detail, &e.ElapsedMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report_history: %w", err)
		}
		if parsed, err := uuid.Parse(id); err == nil {
			e.ID = parsed
		}
		e.Status = constants.ReportStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
