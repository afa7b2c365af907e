package api

import (
	"time"

	"github.com/bunpeg/bunpeg-editor/internal/editor"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	Offline  bool   `json:"offline"`
	Sessions int    `json:"sessions"`
}

type FileResponse struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	ParentID  string `json:"parent_id,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type OpenSessionRequest struct {
	FileID     string  `json:"file_id"`
	Tool       string  `json:"tool,omitempty"`
	TrackLeft  float64 `json:"track_left"`
	TrackWidth float64 `json:"track_width"`
}

// PointerRequest carries one pointer event. Target and SegmentID are read
// only for "down"; SegmentID alone is read for "hover". A positive
// TrackWidth re-lays out the track before the event is applied.
type PointerRequest struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Target     string  `json:"target,omitempty"`
	SegmentID  string  `json:"segment_id,omitempty"`
	TrackLeft  float64 `json:"track_left,omitempty"`
	TrackWidth float64 `json:"track_width,omitempty"`
}

type KeyRequest struct {
	Key       string `json:"key"`
	TextFocus *bool  `json:"text_focus,omitempty"`
}

type CreateSegmentRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type UpdateSegmentRequest struct {
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

type OutcomeResponse struct {
	Kind      editor.OutcomeKind `json:"kind"`
	SegmentID string             `json:"segment_id,omitempty"`
	Time      float64            `json:"time,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type EventResponse struct {
	Outcome OutcomeResponse  `json:"outcome"`
	Session session.Snapshot `json:"session"`
}

type SubmissionResponse struct {
	ID           string           `json:"id"`
	FileID       string           `json:"file_id"`
	Tool         string           `json:"tool"`
	Status       string           `json:"status"`
	ResultFileID string           `json:"result_file_id,omitempty"`
	ResultURL    string           `json:"result_url,omitempty"`
	Error        string           `json:"error,omitempty"`
	KeepRanges   []timeline.Range `json:"keep_ranges"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func FileToResponse(f *store.File) FileResponse {
	return FileResponse{
		ID:        f.ID,
		Tool:      f.Tool,
		Name:      f.Name,
		Status:    f.Status,
		ParentID:  f.ParentID,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
		UpdatedAt: f.UpdatedAt.Format(time.RFC3339),
	}
}

func OutcomeToResponse(o editor.Outcome) OutcomeResponse {
	resp := OutcomeResponse{Kind: o.Kind, SegmentID: o.SegmentID, Time: o.Time}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

func SubmissionToResponse(s *store.Submission, resultURL func(string) string) SubmissionResponse {
	resp := SubmissionResponse{
		ID:           s.ID,
		FileID:       s.FileID,
		Tool:         s.Tool,
		Status:       s.Status,
		ResultFileID: s.ResultFileID,
		Error:        s.Error,
		KeepRanges:   s.KeepRanges,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
	if s.ResultFileID != "" && resultURL != nil {
		resp.ResultURL = resultURL(s.ResultFileID)
	}
	return resp
}
