package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

// timeFormat is fixed-width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Repository interface {
	AppendFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, tool, id string) (*File, error)
	ListFiles(ctx context.Context, tool string) ([]*File, error)
	UpdateFileStatus(ctx context.Context, tool, id, status string) error
	RemoveFile(ctx context.Context, tool, id string) error

	CreateSubmission(ctx context.Context, sub *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	ListSubmissions(ctx context.Context, fileID string, limit int) ([]*Submission, error)
	UpdateSubmission(ctx context.Context, id, status, resultFileID, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// AppendFile adds a file to its tool's list. Re-appending an existing id
// renames it and resets its status, matching an upload retry.
func (r *SQLiteRepository) AppendFile(ctx context.Context, f *File) error {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = FileStatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (id, tool, name, status, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tool, id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, f.ID, f.Tool, f.Name, f.Status, nullString(f.ParentID),
		f.CreatedAt.Format(timeFormat), f.UpdatedAt.Format(timeFormat))
	return err
}

func (r *SQLiteRepository) GetFile(ctx context.Context, tool, id string) (*File, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, tool, name, status, parent_id, created_at, updated_at
		FROM files WHERE tool = ? AND id = ?
	`, tool, id)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// ListFiles returns a tool's files in the order they were appended. An empty
// tool lists every file.
func (r *SQLiteRepository) ListFiles(ctx context.Context, tool string) ([]*File, error) {
	query := `SELECT id, tool, name, status, parent_id, created_at, updated_at FROM files`
	var args []any
	if tool != "" {
		query += ` WHERE tool = ?`
		args = append(args, tool)
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) UpdateFileStatus(ctx context.Context, tool, id, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE files SET status = ?, updated_at = ? WHERE tool = ? AND id = ?
	`, status, time.Now().UTC().Format(timeFormat), tool, id)
	return err
}

// RemoveFile drops a file from one tool's list, or from every list when
// tool is empty.
func (r *SQLiteRepository) RemoveFile(ctx context.Context, tool, id string) error {
	if tool == "" {
		_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE tool = ? AND id = ?", tool, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*File, error) {
	var f File
	var parentID sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&f.ID, &f.Tool, &f.Name, &f.Status, &parentID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.ParentID = parentID.String
	f.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	f.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return &f, nil
}

func (r *SQLiteRepository) CreateSubmission(ctx context.Context, sub *Submission) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = SubmissionStatusProcessing
	}
	if sub.Tool == "" {
		sub.Tool = ToolTrim
	}

	keep, err := json.Marshal(sub.KeepRanges)
	if err != nil {
		return fmt.Errorf("marshal keep ranges: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, file_id, tool, status, result_file_id, error, keep_ranges, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.FileID, sub.Tool, sub.Status, nullString(sub.ResultFileID), nullString(sub.Error),
		string(keep), sub.CreatedAt.Format(timeFormat), sub.UpdatedAt.Format(timeFormat))
	return err
}

func (r *SQLiteRepository) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, file_id, tool, status, result_file_id, error, keep_ranges, created_at, updated_at
		FROM submissions WHERE id = ?
	`, id)

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

// ListSubmissions returns the newest submissions first, optionally for one
// source file.
func (r *SQLiteRepository) ListSubmissions(ctx context.Context, fileID string, limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, file_id, tool, status, result_file_id, error, keep_ranges, created_at, updated_at FROM submissions`
	var args []any
	if fileID != "" {
		query += ` WHERE file_id = ?`
		args = append(args, fileID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SQLiteRepository) UpdateSubmission(ctx context.Context, id, status, resultFileID, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, result_file_id = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(resultFileID), nullString(errorMsg), time.Now().UTC().Format(timeFormat), id)
	return err
}

func scanSubmission(s scanner) (*Submission, error) {
	var sub Submission
	var resultID, errMsg sql.NullString
	var keep, createdAt, updatedAt string

	if err := s.Scan(&sub.ID, &sub.FileID, &sub.Tool, &sub.Status, &resultID, &errMsg, &keep, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sub.ResultFileID = resultID.String
	sub.Error = errMsg.String
	if err := json.Unmarshal([]byte(keep), &sub.KeepRanges); err != nil {
		return nil, fmt.Errorf("decode keep ranges of %s: %w", sub.ID, err)
	}
	if sub.KeepRanges == nil {
		sub.KeepRanges = []timeline.Range{}
	}
	sub.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	sub.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return &sub, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
