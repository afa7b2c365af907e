// Package tui is a terminal timeline editor. The track is a single row of
// cells where one cell is one pixel of the editor's geometry.
package tui

import (
	"context"
	"log/slog"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bunpeg/bunpeg-editor/internal/config"
	"github.com/bunpeg/bunpeg-editor/internal/editor"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

// Layout of the screen, top to bottom.
const (
	titleRow  = 0
	infoRow   = 1
	trackRow  = 3
	scaleRow  = 4
	trackLeft = 2

	defaultWidth = 80
)

type Options struct {
	FileID    string
	FileName  string
	Duration  float64
	Size      int64
	Editor    config.EditorConfig
	Submitter *submit.Submitter
	// Recorder, when set, keeps the submission history for this editor.
	Recorder *session.Recorder
	Logger   *slog.Logger
}

type Model struct {
	fileID   string
	fileName string
	size     int64

	editor    *editor.Editor
	player    *editor.VirtualPlayer
	submitter *submit.Submitter
	recorder  *session.Recorder
	logger    *slog.Logger

	width int

	status string
	err    error

	submitting bool
	progress   submit.Progress
	progressCh chan submit.Progress
	cancel     context.CancelFunc
	result     *submit.Result

	pressed bool
}

func New(opts Options) Model {
	player := &editor.VirtualPlayer{}
	m := Model{
		fileID:    opts.FileID,
		fileName:  opts.FileName,
		size:      opts.Size,
		player:    player,
		submitter: opts.Submitter,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		width:     defaultWidth,
		editor: editor.New(editor.Config{
			Duration:        opts.Duration,
			Options:         opts.Editor.Options,
			DragThresholdPx: opts.Editor.DragThresholdPx,
			Player:          player,
		}),
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.layout()
	if opts.Duration <= 0 {
		m.err = timeline.ErrNoDuration
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Result is the submission outcome, once one has completed.
func (m Model) Result() *submit.Result {
	return m.result
}

func (m *Model) layout() {
	w := m.width - 2*trackLeft
	if w < 1 {
		w = 1
	}
	m.editor.SetTrack(timeline.Bounds{Left: trackLeft, Width: float64(w)})
}

func (m Model) track() timeline.Bounds {
	return m.editor.Track()
}

// cellsOf returns the first and last cell covered by [start, end).
func (m Model) cellsOf(start, end float64) (int, int) {
	track, d := m.track(), m.editor.Duration()
	first := int(math.Floor(timeline.TimeToPosition(start, track, d)))
	last := int(math.Ceil(timeline.TimeToPosition(end, track, d))) - 1
	if last < first {
		last = first
	}
	return first, last
}

// hitTest resolves a press at cell x. The first and last cell of a segment
// are its handles; everything else is bare track.
func (m Model) hitTest(x int) editor.Target {
	for _, seg := range m.editor.Segments().Sorted() {
		first, last := m.cellsOf(seg.Start, seg.End)
		switch x {
		case first:
			return editor.StartHandle(seg.ID)
		case last:
			return editor.EndHandle(seg.ID)
		}
	}
	return editor.Track()
}

func (m Model) onTrack(x, y int) bool {
	t := m.track()
	return y == trackRow && float64(x) >= t.Left && float64(x) < t.Left+t.Width
}

// Run starts the editor full screen with mouse motion reporting and returns
// the final model once the user quits.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		if fm.cancel != nil {
			fm.cancel()
		}
		return fm, err
	}
	return m, err
}
