package store

import (
	"fmt"
	"time"
)

// Run is one recorded execution of the tracking pipeline.
type Run struct {
	ID           int64      `json:"id"`
	JobID        string     `json:"jobId"`
	Workbook     string     `json:"workbook"`
	Status       string     `json:"status"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// CreateRun records the start of a run and returns its row id.
func (s *Store) CreateRun(jobID, workbookPath string, startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (job_id, workbook, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, jobID, workbookPath, startedAt)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// FinishRun records a run's terminal state.
func (s *Store) FinishRun(id int64, status string, total, processed int, errMsg string, finishedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE runs SET
			status = ?,
			total = ?,
			processed = ?,
			error_message = ?,
			finished_at = ?
		WHERE id = ?
	`, status, total, processed, errMsg, finishedAt, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, job_id, workbook, status, total, processed, error_message, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]*Run, 0, limit)
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.JobID, &r.Workbook, &r.Status, &r.Total, &r.Processed, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
