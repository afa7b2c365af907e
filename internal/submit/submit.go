// Package submit turns a set of delete-ranges into a processed file on the
// media API: one trim per keep-range, a merge when there are several parts,
// then a streaming manifest.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/logging"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

// Step names reported in StepError and progress callbacks.
const (
	StepFile  = "file"
	StepTrim  = "trim"
	StepMerge = "merge"
	StepDash  = "dash"
)

const fallbackFormat = "mp4"

var ErrNoOutput = errors.New("no new output file found")

// StepError reports which step of the chain failed. Part is the 1-based
// keep-range index for trim steps and zero otherwise.
type StepError struct {
	Step string
	Part int
	Err  error
}

func (e *StepError) Error() string {
	if e.Part > 0 {
		return fmt.Sprintf("%s part %d: %v", e.Step, e.Part, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Progress is emitted before each remote step starts.
type Progress struct {
	Step  string
	Part  int
	Total int
}

type Result struct {
	FileID     string           `json:"file_id"`
	Parts      []string         `json:"parts"`
	KeepRanges []timeline.Range `json:"keep_ranges"`
}

type Submitter struct {
	client       bunpeg.Client
	poller       *bunpeg.Poller
	outputFormat string
	logger       *slog.Logger

	// OnProgress, when set, is called synchronously from Submit.
	OnProgress func(Progress)
}

// New builds a Submitter. An empty outputFormat keeps the source file's
// extension.
func New(client bunpeg.Client, poller *bunpeg.Poller, outputFormat string, logger *slog.Logger) *Submitter {
	return &Submitter{
		client:       client,
		poller:       poller,
		outputFormat: strings.TrimPrefix(outputFormat, "."),
		logger:       logging.WithComponent(logger, "submit"),
	}
}

// Plan validates the delete-ranges and returns the keep-ranges that would
// be submitted. It makes no network calls.
func Plan(deletes []timeline.TimeRange, duration float64) ([]timeline.Range, error) {
	return timeline.Invert(deletes, duration)
}

// Submit runs the whole chain for fileID. Validation errors from Plan are
// returned unwrapped before anything is sent; remote failures come back as
// *StepError and abort the remaining steps. Cancelling ctx stops polling.
func (s *Submitter) Submit(ctx context.Context, fileID string, deletes []timeline.TimeRange, duration float64) (*Result, error) {
	keep, err := Plan(deletes, duration)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFileID(s.logger, fileID)
	logger.Info("submitting trim", "keep_ranges", len(keep), "deletes", len(deletes))

	format, err := s.resolveFormat(ctx, fileID)
	if err != nil {
		return nil, &StepError{Step: StepFile, Err: err}
	}

	seen := make(map[string]bool)
	parts := make([]string, 0, len(keep))

	for i, r := range keep {
		s.progress(Progress{Step: StepTrim, Part: i + 1, Total: len(keep)})

		op := bunpeg.Trim(r.Start, r.Duration(), format)
		op.Mode = bunpeg.ModeAppend
		op.Parent = fileID

		partID, err := s.runAndResolve(ctx, fileID, seen, func() error {
			return s.client.Chain(ctx, bunpeg.ChainRequest{FileID: fileID, Operations: []bunpeg.Operation{op}})
		})
		if err != nil {
			return nil, &StepError{Step: StepTrim, Part: i + 1, Err: err}
		}
		logger.Info("trimmed part", "part", i+1, "start", r.Start, "end", r.End, "part_id", partID)
		parts = append(parts, partID)
	}

	resultID := parts[0]
	if len(parts) > 1 {
		s.progress(Progress{Step: StepMerge, Total: len(keep)})

		req := bunpeg.MergeRequest{
			FileIDs:      parts,
			OutputFormat: format,
			Mode:         bunpeg.ModeAppend,
			Parent:       fileID,
		}
		resultID, err = s.runAndResolve(ctx, fileID, seen, func() error {
			return s.client.Merge(ctx, req)
		})
		if err != nil {
			return nil, &StepError{Step: StepMerge, Err: err}
		}
		logger.Info("merged parts", "parts", len(parts), "result_id", resultID)
	}

	s.progress(Progress{Step: StepDash, Total: len(keep)})
	if err := s.client.ProcessDash(ctx, resultID); err != nil {
		return nil, &StepError{Step: StepDash, Err: err}
	}
	if err := s.poller.Wait(ctx, resultID); err != nil {
		return nil, &StepError{Step: StepDash, Err: err}
	}

	logger.Info("submission complete", "result_id", resultID)
	return &Result{FileID: resultID, Parts: parts, KeepRanges: keep}, nil
}

// runAndResolve sends one request against parent, waits for the parent to
// settle and returns the id of the child it produced.
func (s *Submitter) runAndResolve(ctx context.Context, parent string, seen map[string]bool, send func() error) (string, error) {
	if err := send(); err != nil {
		return "", err
	}
	if err := s.poller.Wait(ctx, parent); err != nil {
		return "", err
	}

	children, err := s.client.Files(ctx, parent)
	if err != nil {
		return "", fmt.Errorf("list outputs: %w", err)
	}
	if len(children) == 0 {
		return "", ErrNoOutput
	}
	id := children[len(children)-1].ID
	if id == "" || id == parent || seen[id] {
		return "", ErrNoOutput
	}
	seen[id] = true
	return id, nil
}

func (s *Submitter) resolveFormat(ctx context.Context, fileID string) (string, error) {
	if s.outputFormat != "" {
		return s.outputFormat, nil
	}
	f, err := s.client.File(ctx, fileID)
	if err != nil {
		return "", err
	}
	return FormatOf(f.FileName), nil
}

// FormatOf returns the container format implied by a file name.
func FormatOf(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return fallbackFormat
	}
	return ext
}

func (s *Submitter) progress(p Progress) {
	if s.OnProgress != nil {
		s.OnProgress(p)
	}
}
