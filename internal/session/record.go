package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bunpeg/bunpeg-editor/internal/logging"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

// Recorder keeps the submissions table and the recent-file list in step with
// a remote chain. The HTTP sessions, the trim command and the terminal editor
// all record through it.
type Recorder struct {
	repo   store.Repository
	logger *slog.Logger
}

func NewRecorder(repo store.Repository, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logging.WithComponent(logger, "recorder"),
	}
}

// Begin records a processing submission of keep for fileID and marks the
// file as processing.
func (r *Recorder) Begin(ctx context.Context, fileID, tool string, keep []timeline.Range) (*store.Submission, error) {
	if tool == "" {
		tool = store.ToolTrim
	}
	sub := &store.Submission{
		ID:         store.NewID(),
		FileID:     fileID,
		Tool:       tool,
		KeepRanges: keep,
	}
	if err := r.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}
	if err := r.repo.UpdateFileStatus(ctx, tool, fileID, store.FileStatusProcessing); err != nil {
		r.logger.Warn("failed to mark file processing", "file_id", fileID, "error", err)
	}
	return sub, nil
}

// Finish records how the chain behind sub ended.
// A successful result is added to the recent list as a child of the source
// file. Writes use a fresh context so a cancelled chain is still recorded.
func (r *Recorder) Finish(sub *store.Submission, fileName string, res *submit.Result, err error) {
	ctx := context.Background()

	var (
		status     string
		fileStatus string
		resultID   string
		msg        string
	)
	switch {
	case err == nil:
		status, fileStatus, resultID = store.SubmissionStatusCompleted, store.FileStatusProcessed, res.FileID
	case errors.Is(err, context.Canceled):
		status, fileStatus, msg = store.SubmissionStatusCancelled, store.FileStatusPending, "cancelled"
	default:
		status, fileStatus, msg = store.SubmissionStatusFailed, store.FileStatusFailed, ErrorMessage(err)
	}

	if uerr := r.repo.UpdateSubmission(ctx, sub.ID, status, resultID, msg); uerr != nil {
		r.logger.Warn("failed to update submission", "submission_id", sub.ID, "error", uerr)
	}
	if uerr := r.repo.UpdateFileStatus(ctx, sub.Tool, sub.FileID, fileStatus); uerr != nil {
		r.logger.Warn("failed to update file status", "file_id", sub.FileID, "error", uerr)
	}

	if err != nil {
		return
	}
	if aerr := r.repo.AppendFile(ctx, &store.File{
		ID:       res.FileID,
		Tool:     sub.Tool,
		Name:     store.DerivedName(fileName, "trimmed", ""),
		Status:   store.FileStatusProcessed,
		ParentID: sub.FileID,
	}); aerr != nil {
		r.logger.Warn("failed to record result", "result_id", res.FileID, "error", aerr)
	}
}
