// Package session keeps one timeline editor per open file and runs its
// submission in the background.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/config"
	"github.com/bunpeg/bunpeg-editor/internal/editor"
	"github.com/bunpeg/bunpeg-editor/internal/logging"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrSubmissionInFlight = errors.New("a submission is already running for this session")
	ErrUnknownTool        = errors.New("unknown tool")
)

// DefaultTrack is used when a client does not report its track width.
var DefaultTrack = timeline.Bounds{Left: 0, Width: 1000}

// Session is one editing session over a remote file. All access to the
// editor goes through Do, which serialises callers.
type Session struct {
	ID        string
	FileID    string
	FileName  string
	Tool      string
	CreatedAt time.Time

	mu           sync.Mutex
	editor       *editor.Editor
	player       *editor.VirtualPlayer
	cancel       context.CancelFunc
	submissionID string
	logger       *slog.Logger
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID           string               `json:"id"`
	FileID       string               `json:"file_id"`
	FileName     string               `json:"file_name"`
	Tool         string               `json:"tool"`
	Duration     float64              `json:"duration"`
	Segments     []timeline.TimeRange `json:"segments"`
	Gesture      editor.Gesture       `json:"gesture"`
	Preview      *timeline.Range      `json:"preview,omitempty"`
	HoveredID    string               `json:"hovered_id,omitempty"`
	Playing      bool                 `json:"playing"`
	Position     float64              `json:"position"`
	Submitting   bool                 `json:"submitting"`
	SubmissionID string               `json:"submission_id,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Do runs fn with exclusive access to the session's editor.
func (s *Session) Do(fn func(e *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		FileID:       s.FileID,
		FileName:     s.FileName,
		Tool:         s.Tool,
		Duration:     s.editor.Duration(),
		Segments:     s.editor.Segments().Sorted(),
		Gesture:      s.editor.Gesture(),
		HoveredID:    s.editor.HoveredID(),
		Playing:      s.player.Playing(),
		Position:     s.player.Position(),
		Submitting:   s.cancel != nil,
		SubmissionID: s.submissionID,
		CreatedAt:    s.CreatedAt,
	}
	if p, ok := s.editor.Preview(); ok {
		snap.Preview = &p
	}
	return snap
}

// Manager owns every open session.
type Manager struct {
	client    bunpeg.Client
	submitter *submit.Submitter
	repo      store.Repository
	recorder  *Recorder
	editorCfg config.EditorConfig
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewManager(client bunpeg.Client, submitter *submit.Submitter, repo store.Repository, editorCfg config.EditorConfig, logger *slog.Logger) *Manager {
	return &Manager{
		client:    client,
		submitter: submitter,
		repo:      repo,
		recorder:  NewRecorder(repo, logger),
		editorCfg: editorCfg,
		logger:    logging.WithComponent(logger, "sessions"),
		sessions:  make(map[string]*Session),
	}
}

// Open starts a session for fileID. The media duration comes from the
// file's metadata; a file without a known duration still opens, but its
// editor ignores pointer input.
func (m *Manager) Open(ctx context.Context, fileID, tool string, track timeline.Bounds) (*Session, error) {
	if tool == "" {
		tool = store.ToolTrim
	}
	if !store.ValidTool(tool) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	if track.Width <= 0 {
		track = DefaultTrack
	}

	file, err := m.client.File(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("load file %s: %w", fileID, err)
	}

	meta := file.Metadata
	if meta == nil || meta.Duration <= 0 {
		if meta, err = m.client.Meta(ctx, fileID); err != nil {
			return nil, fmt.Errorf("load metadata for %s: %w", fileID, err)
		}
	}

	existing, err := m.repo.GetFile(ctx, tool, fileID)
	if err != nil {
		return nil, fmt.Errorf("load recent file: %w", err)
	}
	if existing == nil {
		if err := m.repo.AppendFile(ctx, &store.File{ID: fileID, Tool: tool, Name: file.FileName}); err != nil {
			return nil, fmt.Errorf("record recent file: %w", err)
		}
	}

	player := &editor.VirtualPlayer{}
	s := &Session{
		ID:        uuid.NewString(),
		FileID:    fileID,
		FileName:  file.FileName,
		Tool:      tool,
		CreatedAt: time.Now().UTC(),
		player:    player,
		editor: editor.New(editor.Config{
			Duration:        meta.Duration,
			Track:           track,
			Options:         m.editorCfg.Options,
			DragThresholdPx: m.editorCfg.DragThresholdPx,
			Player:          player,
		}),
	}
	s.logger = logging.WithFileID(logging.WithSessionID(m.logger, s.ID), fileID)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.logger.Info("session opened", "duration", meta.Duration, "tool", tool)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Close discards a session. An in-flight submission is cancelled; it is
// not left to finish in the background.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.logger.Info("session closed")
	return nil
}

// Submit validates the session's segments and starts the remote chain in
// the background. Validation errors are returned immediately and nothing is
// recorded.
func (m *Manager) Submit(id string) (*store.Submission, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, ErrSubmissionInFlight
	}

	deletes := s.editor.Segments().Sorted()
	duration := s.editor.Duration()
	keep, err := submit.Plan(deletes, duration)
	if err != nil {
		return nil, err
	}

	sub, err := m.recorder.Begin(context.Background(), s.FileID, s.Tool, keep)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.submissionID = sub.ID

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.run(runCtx, s, sub, deletes, duration)
	}()

	s.logger.Info("submission started", "submission_id", sub.ID, "keep_ranges", len(keep))
	return sub, nil
}

func (m *Manager) run(ctx context.Context, s *Session, sub *store.Submission, deletes []timeline.TimeRange, duration float64) {
	res, err := m.submitter.Submit(ctx, s.FileID, deletes, duration)

	// Segments marked while the chain ran were not part of it and stay.
	s.mu.Lock()
	s.cancel = nil
	if err == nil {
		for _, d := range deletes {
			s.editor.Segments().Remove(d.ID)
		}
	}
	s.mu.Unlock()

	m.recorder.Finish(sub, s.FileName, res, err)

	switch {
	case err == nil:
		s.logger.Info("submission completed", "submission_id", sub.ID, "result_id", res.FileID)
	case errors.Is(err, context.Canceled):
		s.logger.Info("submission cancelled", "submission_id", sub.ID)
	default:
		s.logger.Error("submission failed", "submission_id", sub.ID, "error", err)
	}
}

// Wait blocks until every background submission has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown closes every session and waits for their submissions to stop.
func (m *Manager) Shutdown() {
	for _, s := range m.List() {
		m.Close(s.ID)
	}
	m.Wait()
}

// ErrorMessage prefers the server's own message for API failures.
func ErrorMessage(err error) string {
	var apiErr *bunpeg.APIError
	if errors.As(err, &apiErr) {
		var stepErr *submit.StepError
		if errors.As(err, &stepErr) {
			return fmt.Sprintf("%s: %s", stepErr.Step, apiErr.Message())
		}
		return apiErr.Message()
	}
	return err.Error()
}
