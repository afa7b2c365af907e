package bunpeg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Processing states reported by GET /status/{id}.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ModeAppend stores an operation's output as a new child of Parent instead
// of replacing the source file.
const ModeAppend = "append"

type UserFile struct {
	ID        string     `json:"id"`
	FileName  string     `json:"file_name"`
	FilePath  string     `json:"file_path"`
	MimeType  string     `json:"mime_type"`
	Metadata  *VideoMeta `json:"metadata,omitempty"`
	CreatedAt string     `json:"created_at"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoMeta is the probe result of a media file. Duration is zero when the
// server could not determine it.
type VideoMeta struct {
	Size       int64      `json:"size"`
	Duration   float64    `json:"duration"`
	Bitrate    int64      `json:"bitrate"`
	Resolution Resolution `json:"resolution"`
}

// UnmarshalJSON accepts the metadata either as an object or as a JSON string
// holding the object, and numbers that are null or quoted.
func (m *VideoMeta) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		return m.UnmarshalJSON([]byte(inner))
	}

	var raw struct {
		Size       json.RawMessage `json:"size"`
		Duration   json.RawMessage `json:"duration"`
		Bitrate    json.RawMessage `json:"bitrate"`
		Resolution struct {
			Width  json.RawMessage `json:"width"`
			Height json.RawMessage `json:"height"`
		} `json:"resolution"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode video meta: %w", err)
	}

	var err error
	if m.Duration, err = looseNumber(raw.Duration); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	size, err := looseNumber(raw.Size)
	if err != nil {
		return fmt.Errorf("size: %w", err)
	}
	bitrate, err := looseNumber(raw.Bitrate)
	if err != nil {
		return fmt.Errorf("bitrate: %w", err)
	}
	width, err := looseNumber(raw.Resolution.Width)
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	height, err := looseNumber(raw.Resolution.Height)
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	m.Size = int64(size)
	m.Bitrate = int64(bitrate)
	m.Resolution = Resolution{Width: int(width), Height: int(height)}
	return nil
}

func looseNumber(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

type FileStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s FileStatus) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Lineage places the output of an operation in the file tree. FileID is
// only sent on single-operation endpoints; inside a chain the request names
// the file.
type Lineage struct {
	FileID string `json:"file_id,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// Operation is one step of a chain or bulk request.
type Operation interface {
	Kind() string
}

type TrimOp struct {
	Type         string  `json:"type"`
	Start        float64 `json:"start"`
	Duration     float64 `json:"duration"`
	OutputFormat string  `json:"output_format"`
	Lineage
}

func (TrimOp) Kind() string { return "trim" }

func Trim(start, duration float64, outputFormat string) TrimOp {
	return TrimOp{Type: "trim", Start: start, Duration: duration, OutputFormat: outputFormat}
}

type TranscodeOp struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Lineage
}

func (TranscodeOp) Kind() string { return "transcode" }

func Transcode(format string) TranscodeOp {
	return TranscodeOp{Type: "transcode", Format: format}
}

type ResizeVideoOp struct {
	Type         string `json:"type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	OutputFormat string `json:"output_format"`
	Lineage
}

func (ResizeVideoOp) Kind() string { return "resize-video" }

func ResizeVideo(width, height int, outputFormat string) ResizeVideoOp {
	return ResizeVideoOp{Type: "resize-video", Width: width, Height: height, OutputFormat: outputFormat}
}

type ExtractAudioOp struct {
	Type        string `json:"type"`
	AudioFormat string `json:"audio_format"`
	Lineage
}

func (ExtractAudioOp) Kind() string { return "extract-audio" }

func ExtractAudio(audioFormat string) ExtractAudioOp {
	return ExtractAudioOp{Type: "extract-audio", AudioFormat: audioFormat}
}

type RemoveAudioOp struct {
	Type         string `json:"type"`
	OutputFormat string `json:"output_format"`
	Lineage
}

func (RemoveAudioOp) Kind() string { return "remove-audio" }

func RemoveAudio(outputFormat string) RemoveAudioOp {
	return RemoveAudioOp{Type: "remove-audio", OutputFormat: outputFormat}
}

type ExtractThumbnailOp struct {
	Type        string `json:"type"`
	Timestamp   string `json:"timestamp"`
	ImageFormat string `json:"image_format"`
	Lineage
}

func (ExtractThumbnailOp) Kind() string { return "extract-thumbnail" }

func ExtractThumbnail(at float64, imageFormat string) ExtractThumbnailOp {
	return ExtractThumbnailOp{
		Type:        "extract-thumbnail",
		Timestamp:   strconv.FormatFloat(at, 'f', -1, 64),
		ImageFormat: imageFormat,
	}
}

type ChainRequest struct {
	FileID     string      `json:"file_id"`
	Operations []Operation `json:"operations"`
}

type MergeRequest struct {
	FileIDs      []string `json:"file_ids"`
	OutputFormat string   `json:"output_format"`
	Mode         string   `json:"mode,omitempty"`
	Parent       string   `json:"parent,omitempty"`
}

type bulkRequest struct {
	FileIDs   []string  `json:"file_ids"`
	Operation Operation `json:"operation"`
}

type uploadResponse struct {
	FileID string `json:"fileId"`
}

type fileResponse struct {
	File UserFile `json:"file"`
}

type filesResponse struct {
	Files []UserFile `json:"files"`
}

type metaResponse struct {
	Meta VideoMeta `json:"meta"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
