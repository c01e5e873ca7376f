// Package store persists the recording and delivery ledger backed by SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"camclip/internal/config"
)

// ErrNotFound is returned when a job id has no ledger row.
var ErrNotFound = errors.New("recording not found")

// Recording is one row of the capture ledger.
type Recording struct {
	JobID           string
	Camera          string
	Method          string
	FileName        string
	FilePath        string
	SizeBytes       int64
	DurationSeconds int
	Frames          int
	Transport       string
	Audio           bool
	Success         bool
	Delivered       bool
	Error           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Attempt is one delivery attempt belonging to a recording.
type Attempt struct {
	JobID     string
	Mechanism string
	Attempt   int
	Success   bool
	Elapsed   time.Duration
	Error     string
	CreatedAt time.Time
}

// Stats summarizes the ledger for status output.
type Stats struct {
	Total      int
	Succeeded  int
	Delivered  int
	TotalBytes int64
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "camclip.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// CreateJob inserts a new ledger row when a capture job begins.
func (s *Store) CreateJob(ctx context.Context, jobID, camera, method string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO recordings (job_id, camera, method, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		jobID, camera, method, timestamp, timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// SaveResult records the capture outcome for a job.
func (s *Store) SaveResult(ctx context.Context, jobID string, rec Recording) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE recordings SET
            method = COALESCE(NULLIF(?, ''), method),
            file_name = ?, file_path = ?, size_bytes = ?,
            duration_seconds = ?, frames = ?, transport = ?, audio = ?,
            success = ?, error = ?, updated_at = ?
         WHERE job_id = ?`,
		rec.Method, rec.FileName, rec.FilePath, rec.SizeBytes,
		rec.DurationSeconds, rec.Frames, rec.Transport, boolInt(rec.Audio),
		boolInt(rec.Success), rec.Error, timestamp,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDelivered flips the delivered flag for a job.
func (s *Store) MarkDelivered(ctx context.Context, jobID string, delivered bool) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE recordings SET delivered = ?, updated_at = ? WHERE job_id = ?`,
		boolInt(delivered), timestamp, jobID,
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// RecordAttempt appends one delivery attempt to the job's history.
func (s *Store) RecordAttempt(ctx context.Context, att Attempt) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO delivery_attempts (job_id, mechanism, attempt, success, elapsed_ms, error, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		att.JobID, att.Mechanism, att.Attempt, boolInt(att.Success),
		att.Elapsed.Milliseconds(), att.Error, timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// GetByJobID fetches a single ledger row.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*Recording, error) {
	row := s.db.QueryRowContext(ctx, selectRecording+` WHERE job_id = ?`, jobID)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

// List returns the most recent ledger rows, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Recording, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectRecording+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, *rec)
	}
	return recordings, rows.Err()
}

// Attempts returns the delivery attempts for a job in the order they ran.
func (s *Store) Attempts(ctx context.Context, jobID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT job_id, mechanism, attempt, success, elapsed_ms, error, created_at
         FROM delivery_attempts WHERE job_id = ? ORDER BY id ASC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var att Attempt
		var success int
		var elapsedMS int64
		var created string
		if err := rows.Scan(&att.JobID, &att.Mechanism, &att.Attempt, &success, &elapsedMS, &att.Error, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		att.Success = success != 0
		att.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		att.CreatedAt = parseTimestamp(created)
		attempts = append(attempts, att)
	}
	return attempts, rows.Err()
}

// Summary aggregates the ledger for status output.
func (s *Store) Summary(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(success), 0),
                COALESCE(SUM(delivered), 0),
                COALESCE(SUM(CASE WHEN success = 1 THEN size_bytes ELSE 0 END), 0)
         FROM recordings`,
	)
	if err := row.Scan(&stats.Total, &stats.Succeeded, &stats.Delivered, &stats.TotalBytes); err != nil {
		return Stats{}, fmt.Errorf("scan stats: %w", err)
	}
	return stats, nil
}

const selectRecording = `SELECT job_id, camera, method, file_name, file_path, size_bytes,
       duration_seconds, frames, transport, audio, success, delivered, error,
       created_at, updated_at
FROM recordings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (*Recording, error) {
	var rec Recording
	var audio, success, delivered int
	var created, updated string
	err := row.Scan(
		&rec.JobID, &rec.Camera, &rec.Method, &rec.FileName, &rec.FilePath,
		&rec.SizeBytes, &rec.DurationSeconds, &rec.Frames, &rec.Transport,
		&audio, &success, &delivered, &rec.Error, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	rec.Audio = audio != 0
	rec.Success = success != 0
	rec.Delivered = delivered != 0
	rec.CreatedAt = parseTimestamp(created)
	rec.UpdatedAt = parseTimestamp(updated)
	return &rec, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
