// Package reports archives bulk run reports in SQLite.
package reports

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/reqflow/internal/bulk"
	"github.com/studiowebux/reqflow/internal/migrations"
)

// ErrNotFound is returned when a run id does not exist
var ErrNotFound = errors.New("bulk run not found")

// Summary is the stored header of one bulk run
type Summary struct {
	ID         int64     `json:"id" yaml:"id"`
	Collection string    `json:"collection" yaml:"collection"`
	Folder     string    `json:"folder,omitempty" yaml:"folder,omitempty"`
	Total      int       `json:"total" yaml:"total"`
	Passed     int       `json:"passed" yaml:"passed"`
	Failed     int       `json:"failed" yaml:"failed"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	DurationMs float64   `json:"duration_ms" yaml:"duration_ms"`
}

// Store handles bulk run persistence
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at dbPath. ":memory:" is accepted.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serialises writers anyway; one connection also keeps :memory: alive
	db.SetMaxOpenConns(1)

	// Run database migrations (includes schema initialization)
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores report and its items, returning the new run id
func (s *Store) Save(collection, folder string, report *bulk.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO bulk_runs (collection, folder, total, passed, failed, started_at, finished_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, collection, folder, report.Total, report.Passed, report.Failed,
		report.StartedAt.UTC(), report.FinishedAt.UTC(), report.DurationMs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bulk run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO bulk_run_items (run_id, position, request_id, status, status_code, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range report.Items {
		if _, err := stmt.Exec(id, i, item.ID, string(item.Status), item.StatusCode, item.DurationMs, item.Error); err != nil {
			return 0, fmt.Errorf("failed to insert bulk run item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk run: %w", err)
	}
	return id, nil
}

// Get loads one run with its items
func (s *Store) Get(id int64) (*Summary, *bulk.Report, error) {
	summary := &Summary{}
	err := s.db.QueryRow(`
		SELECT id, collection, folder, total, passed, failed, started_at, finished_at, duration_ms
		FROM bulk_runs WHERE id = ?
	`, id).Scan(&summary.ID, &summary.Collection, &summary.Folder, &summary.Total, &summary.Passed,
		&summary.Failed, &summary.StartedAt, &summary.FinishedAt, &summary.DurationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bulk run: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT request_id, status, status_code, duration_ms, COALESCE(error, '')
		FROM bulk_run_items WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bulk run items: %w", err)
	}
	defer rows.Close()

	report := &bulk.Report{
		Total:      summary.Total,
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		DurationMs: summary.DurationMs,
		Items:      []bulk.ReportItem{},
	}
	for rows.Next() {
		var item bulk.ReportItem
		var status string
		if err := rows.Scan(&item.ID, &status, &item.StatusCode, &item.DurationMs, &item.Error); err != nil {
			return nil, nil, fmt.Errorf("failed to scan bulk run item: %w", err)
		}
		item.Status = bulk.Status(status)
		report.Items = append(report.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read bulk run items: %w", err)
	}

	return summary, report, nil
}

// List returns the most recent runs, newest first. An empty collection lists
// every collection; limit <= 0 means no limit.
func (s *Store) List(collection string, limit int) ([]*Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, collection, folder, total, passed, failed, started_at, finished_at, duration_ms
		FROM bulk_runs
		WHERE ? = '' OR collection = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, collection, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bulk runs: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		s := &Summary{}
		if err := rows.Scan(&s.ID, &s.Collection, &s.Folder, &s.Total, &s.Passed, &s.Failed,
			&s.StartedAt, &s.FinishedAt, &s.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan bulk run: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a run and its items
func (s *Store) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM bulk_run_items WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete bulk run items: %w", err)
	}
	res, err := tx.Exec("DELETE FROM bulk_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete bulk run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return tx.Commit()
}
