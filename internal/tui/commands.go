package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

const tickInterval = 100 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// job is one chain started from the editor.
type job struct {
	fileID   string
	fileName string
	deletes  []timeline.TimeRange
	duration float64
	record   *store.Submission
}

// runSubmit drives the chain and records its outcome when rec is set.
func runSubmit(ctx context.Context, s *submit.Submitter, rec *session.Recorder, j job) tea.Cmd {
	return func() tea.Msg {
		res, err := s.Submit(ctx, j.fileID, j.deletes, j.duration)
		if rec != nil && j.record != nil {
			rec.Finish(j.record, j.fileName, res, err)
		}
		return submitDoneMsg{Result: res, Err: err, Deletes: j.deletes}
	}
}

// waitProgress delivers the next progress report. It returns nil once the
// channel is closed.
func waitProgress(ch <-chan submit.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}
