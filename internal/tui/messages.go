package tui

import (
	"time"

	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

type tickMsg time.Time

type progressMsg submit.Progress

type submitDoneMsg struct {
	Result  *submit.Result
	Err     error
	Deletes []timeline.TimeRange
}
