package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bunpeg/bunpeg-editor/internal/submit"
)

func (m Model) View() string {
	lines := make([]string, scaleRow+4)

	lines[titleRow] = TitleStyle.Render("bunpeg trim") + "  " + m.fileName
	info := fmt.Sprintf("%s  %s", clock(m.editor.Duration()), m.fileID)
	if m.size > 0 {
		info += "  " + humanize.Bytes(uint64(m.size))
	}
	lines[infoRow] = InfoStyle.Render(info)
	lines[trackRow] = strings.Repeat(" ", trackLeft) + m.renderTrack()
	lines[scaleRow] = strings.Repeat(" ", trackLeft) + InfoStyle.Render(m.renderScale())
	lines[scaleRow+1] = ""
	lines[scaleRow+2] = m.renderStatus()
	lines[scaleRow+3] = InfoStyle.Render("drag to mark · handles resize · space play · del remove hovered · s submit · q quit")

	return strings.Join(lines, "\n") + "\n"
}

type cellKind int

const (
	cellTrack cellKind = iota
	cellDelete
	cellHover
	cellHandle
	cellPreview
)

func (m Model) renderTrack() string {
	track := m.track()
	width := int(track.Width)
	cells := make([]cellKind, width)
	left := int(track.Left)

	mark := func(first, last int, kind cellKind) {
		for x := first; x <= last; x++ {
			if i := x - left; i >= 0 && i < width {
				cells[i] = kind
			}
		}
	}

	for _, seg := range m.editor.Segments().Sorted() {
		first, last := m.cellsOf(seg.Start, seg.End)
		kind := cellDelete
		if seg.ID == m.editor.HoveredID() {
			kind = cellHover
		}
		mark(first, last, kind)
		mark(first, first, cellHandle)
		mark(last, last, cellHandle)
	}
	if p, ok := m.editor.Preview(); ok && p.End > p.Start {
		first, last := m.cellsOf(p.Start, p.End)
		mark(first, last, cellPreview)
	}

	head := -1
	if d := m.editor.Duration(); d > 0 {
		head = int(math.Floor(m.player.Position()/d*track.Width))
		if head >= width {
			head = width - 1
		}
	}

	var b strings.Builder
	for i, kind := range cells {
		ch := " "
		if i == head {
			ch = headStyle.Render("│")
		}
		b.WriteString(styleFor(kind).Render(ch))
	}
	return b.String()
}

func styleFor(kind cellKind) lipgloss.Style {
	switch kind {
	case cellDelete:
		return deleteStyle
	case cellHover:
		return hoverStyle
	case cellHandle:
		return handleStyle
	case cellPreview:
		return previewStyle
	default:
		return trackStyle
	}
}

// renderScale labels the start, middle and end of the track.
func (m Model) renderScale() string {
	width := int(m.track().Width)
	d := m.editor.Duration()
	start, mid, end := clock(0), clock(d/2), clock(d)

	if width < len(start)+len(mid)+len(end)+2 {
		return start
	}
	line := []byte(strings.Repeat(" ", width))
	copy(line, start)
	copy(line[(width-len(mid))/2:], mid)
	copy(line[width-len(end):], end)
	return string(line)
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return ErrorStyle.Render("✗ " + m.err.Error())
	}
	if m.submitting {
		return StatusStyle.Render("… " + describeProgress(m.progress))
	}
	if m.status != "" {
		return StatusStyle.Render(m.status)
	}
	n := m.editor.Segments().Len()
	if n == 0 {
		return InfoStyle.Render("no segments marked")
	}
	return InfoStyle.Render(fmt.Sprintf("%d segment(s) marked for deletion", n))
}

func describeProgress(p submit.Progress) string {
	switch p.Step {
	case submit.StepTrim:
		return fmt.Sprintf("trimming part %d of %d", p.Part, p.Total)
	case submit.StepMerge:
		return fmt.Sprintf("merging %d parts", p.Total)
	case submit.StepDash:
		return "preparing stream"
	default:
		return "submitting"
	}
}

// clock formats seconds as m:ss.t, or h:mm:ss for long media.
func clock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		s := int(seconds)
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
	}
	tenths := int(math.Round(seconds * 10))
	return fmt.Sprintf("%d:%02d.%d", tenths/600, (tenths/10)%60, tenths%10)
}
