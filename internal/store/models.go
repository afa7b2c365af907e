// Package store persists the recent-files lists and submission history.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

// Tools that keep their own recent-files list.
const (
	ToolTrim             = "trim"
	ToolExtractAudio     = "extract-audio"
	ToolRemoveAudio      = "remove-audio"
	ToolScale            = "scale"
	ToolTranscode        = "transcode"
	ToolExtractThumbnail = "extract-thumbnail"
)

var Tools = []string{ToolTrim, ToolExtractAudio, ToolRemoveAudio, ToolScale, ToolTranscode, ToolExtractThumbnail}

func ValidTool(tool string) bool {
	for _, t := range Tools {
		if t == tool {
			return true
		}
	}
	return false
}

const (
	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusProcessed  = "processed"
	FileStatusFailed     = "failed"

	SubmissionStatusProcessing = "processing"
	SubmissionStatusCompleted  = "completed"
	SubmissionStatusFailed     = "failed"
	SubmissionStatusCancelled  = "cancelled"
)

// File is one entry in a tool's recent-files list. ParentID is set for
// outputs derived from another stored file.
type File struct {
	ID        string    `json:"id"`
	Tool      string    `json:"tool"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Submission struct {
	ID           string           `json:"id"`
	FileID       string           `json:"file_id"`
	Tool         string           `json:"tool"`
	Status       string           `json:"status"`
	ResultFileID string           `json:"result_file_id,omitempty"`
	Error        string           `json:"error,omitempty"`
	KeepRanges   []timeline.Range `json:"keep_ranges"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

// DerivedName names an output after its source, e.g. clip.mp4 -> clip_trimmed.mp4.
func DerivedName(source, suffix, ext string) string {
	base := source
	for i := len(source) - 1; i >= 0; i-- {
		if source[i] == '.' {
			base = source[:i]
			if ext == "" {
				ext = source[i+1:]
			}
			break
		}
	}
	if ext == "" {
		return fmt.Sprintf("%s_%s", base, suffix)
	}
	return fmt.Sprintf("%s_%s.%s", base, suffix, ext)
}
