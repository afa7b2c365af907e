package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bunpeg/bunpeg-editor/internal/editor"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.layout()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tickMsg:
		m.player.Advance(tickInterval.Seconds(), m.editor.Duration())
		return m, tickCmd()
	case progressMsg:
		m.progress = submit.Progress(msg)
		return m, waitProgress(m.progressCh)
	case submitDoneMsg:
		return m.handleSubmitDone(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case " ", "space":
		m.apply(m.editor.Key("space"))
	case "delete", "backspace":
		m.apply(m.editor.Key(msg.String()))
	case "s":
		return m.startSubmit()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	x := float64(msg.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.onTrack(msg.X, msg.Y) {
			return m, nil
		}
		m.pressed = true
		m.apply(m.editor.PointerDown(x, m.hitTest(msg.X)))

	case tea.MouseActionMotion:
		if msg.Y != trackRow {
			if !m.editor.Gesture().IsIdle() || m.editor.HoveredID() != "" {
				m.pressed = false
				m.apply(m.editor.PointerLeave())
			}
			return m, nil
		}
		m.apply(m.editor.PointerMove(x))

	case tea.MouseActionRelease:
		if !m.pressed {
			return m, nil
		}
		m.pressed = false
		m.apply(m.editor.PointerUp(x))
		m.apply(m.editor.Click(x))
	}
	return m, nil
}

// apply surfaces what an editor event did on the status line.
func (m *Model) apply(o editor.Outcome) {
	switch o.Kind {
	case editor.OutcomeNone:
		return
	case editor.OutcomeRejected:
		m.err = o.Err
		m.status = ""
		return
	case editor.OutcomeCommitted:
		seg, _ := m.editor.Segments().Get(o.SegmentID)
		m.status = "marked " + seg.String()
	case editor.OutcomeRemoved:
		m.status = "removed segment"
	case editor.OutcomeResized:
		seg, _ := m.editor.Segments().Get(o.SegmentID)
		m.status = "resized to " + seg.String()
	case editor.OutcomeCancelled:
		m.status = "cancelled"
	case editor.OutcomeSeeked:
		m.status = fmt.Sprintf("seek %s", clock(o.Time))
	case editor.OutcomeToggledPlayback:
		if m.player.Playing() {
			m.status = "playing"
		} else {
			m.status = "paused"
		}
	}
	m.err = nil
}

func (m Model) startSubmit() (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	if m.submitter == nil {
		m.err = errors.New("no media service configured")
		return m, nil
	}

	deletes := m.editor.Segments().Sorted()
	keep, err := submit.Plan(deletes, m.editor.Duration())
	if err != nil {
		m.err = err
		m.status = ""
		return m, nil
	}

	j := job{
		fileID:   m.fileID,
		fileName: m.fileName,
		deletes:  deletes,
		duration: m.editor.Duration(),
	}
	if m.recorder != nil {
		if j.record, err = m.recorder.Begin(context.Background(), m.fileID, store.ToolTrim, keep); err != nil {
			m.err = err
			m.status = ""
			return m, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan submit.Progress, 8)
	m.submitter.OnProgress = func(p submit.Progress) {
		select {
		case ch <- p:
		default:
		}
	}

	m.submitting = true
	m.cancel = cancel
	m.progressCh = ch
	m.progress = submit.Progress{}
	m.err = nil
	m.status = "submitting"
	m.logger.Info("submitting from terminal editor", "file_id", m.fileID, "segments", len(deletes))

	return m, tea.Batch(
		runSubmit(ctx, m.submitter, m.recorder, j),
		waitProgress(ch),
	)
}

func (m Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	if m.progressCh != nil {
		close(m.progressCh)
	}
	m.submitting = false
	m.cancel = nil
	m.progressCh = nil

	if msg.Err != nil {
		m.err = msg.Err
		m.status = ""
		m.logger.Error("submission failed", "file_id", m.fileID, "error", msg.Err)
		return m, nil
	}

	m.result = msg.Result
	// Segments marked while the chain ran stay for the next submit.
	for _, d := range msg.Deletes {
		m.editor.Segments().Remove(d.ID)
	}
	m.status = "done: " + msg.Result.FileID
	m.logger.Info("submission completed", "file_id", m.fileID, "result_id", msg.Result.FileID)
	return m, nil
}
