package core

// history.go records one row per finished run.
//
// Only run metadata is stored: counts, failed analysis names and the client
// that triggered the run. Report payloads stay in memory with the session
// and are never written anywhere.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunStatus is the final state of a recorded run.
type RunStatus string

const (
	RunComplete     RunStatus = "complete"
	RunPartial      RunStatus = "partial"
	RunUploadFailed RunStatus = "upload_failed"
	RunAborted      RunStatus = "aborted"
)

// RunRecord is the persisted summary of one run.
type RunRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	FileName    string    `json:"fileName"`
	Status      RunStatus `json:"status"`
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	FailedNames []string  `json:"failedNames"`
	Message     string    `json:"message,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunHistory stores run records.
type RunHistory interface {
	Record(ctx context.Context, rec RunRecord) error
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}

// recordFromReport builds the record of a run that produced a report.
func recordFromReport(sessionID string, r *Report) RunRecord {
	status := RunComplete
	if r.Partial() {
		status = RunPartial
	}
	names := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		names[i] = string(f.Name)
	}
	return RunRecord{
		ID:          r.ID,
		SessionID:   sessionID,
		FileName:    r.FileName,
		Status:      status,
		Total:       len(r.Outcomes),
		Succeeded:   len(r.Populated()),
		Failed:      len(r.Failures),
		FailedNames: names,
		Message:     r.Summary(),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

// MemoryRunHistory keeps the most recent records in memory.
type MemoryRunHistory struct {
	mu      sync.Mutex
	limit   int
	records []RunRecord
}

// NewMemoryRunHistory keeps at most limit records (default 200).
func NewMemoryRunHistory(limit int) *MemoryRunHistory {
	if limit <= 0 {
		limit = 200
	}
	return &MemoryRunHistory{limit: limit}
}

func (h *MemoryRunHistory) Record(_ context.Context, rec RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	if over := len(h.records) - h.limit; over > 0 {
		h.records = append([]RunRecord(nil), h.records[over:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (h *MemoryRunHistory) Recent(_ context.Context, limit int) ([]RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	out := make([]RunRecord, 0, limit)
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

// PostgresRunHistory stores records in the analysis_runs table.
type PostgresRunHistory struct {
	pool *pgxpool.Pool
}

func NewPostgresRunHistory(pool *pgxpool.Pool) *PostgresRunHistory {
	return &PostgresRunHistory{pool: pool}
}

const runHistorySchema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL,
    file_name    TEXT NOT NULL,
    status       TEXT NOT NULL,
    total        INTEGER NOT NULL,
    succeeded    INTEGER NOT NULL,
    failed       INTEGER NOT NULL,
    failed_names TEXT[] NOT NULL DEFAULT '{}',
    message      TEXT NOT NULL DEFAULT '',
    ip_address   TEXT NOT NULL DEFAULT '',
    user_agent   TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_runs_started_at_idx ON analysis_runs (started_at DESC);
`

// EnsureSchema creates the analysis_runs table if it does not exist.
func (h *PostgresRunHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, runHistorySchema); err != nil {
		return fmt.Errorf("create analysis_runs: %w", err)
	}
	return nil
}

func (h *PostgresRunHistory) Record(ctx context.Context, rec RunRecord) error {
	names := rec.FailedNames
	if names == nil {
		names = []string{}
	}
	_, err := h.pool.Exec(ctx, `
		INSERT INTO analysis_runs (
			id, session_id, file_name, status, total, succeeded, failed,
			failed_names, message, ip_address, user_agent, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.SessionID, rec.FileName, string(rec.Status),
		rec.Total, rec.Succeeded, rec.Failed, names,
		rec.Message, rec.IPAddress, rec.UserAgent, rec.StartedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

func (h *PostgresRunHistory) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.pool.Query(ctx, `
		SELECT id, session_id, file_name, status, total, succeeded, failed,
		       failed_names, message, ip_address, user_agent, started_at, completed_at
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RunRecord, error) {
		var rec RunRecord
		var status string
		err := row.Scan(
			&rec.ID, &rec.SessionID, &rec.FileName, &status,
			&rec.Total, &rec.Succeeded, &rec.Failed, &rec.FailedNames,
			&rec.Message, &rec.IPAddress, &rec.UserAgent, &rec.StartedAt, &rec.CompletedAt,
		)
		rec.Status = RunStatus(status)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return records, nil
}
