// Package export writes edit decision lists for a trimmed file so the cut
// can be reproduced in a desktop editor.
package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

var (
	ErrNoClips           = errors.New("nothing to export")
	ErrUnsupportedFormat = errors.New("format must be edl")
)

// ClipsFromKeep turns keep ranges into numbered clips of the same media.
func ClipsFromKeep(keep []timeline.Range, name, mediaPath string) []Clip {
	name = SanitizeName(name, 160)
	clips := make([]Clip, len(keep))
	for i, r := range keep {
		clips[i] = Clip{
			Name:      fmt.Sprintf("%s part %d", name, i+1),
			MediaPath: mediaPath,
			Start:     r.Start,
			End:       r.End,
		}
	}
	return clips
}

// IsDropFrame reports whether frameRate is one of the NTSC rates.
func IsDropFrame(frameRate float64) bool {
	return math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01
}

// GenerateEDL renders a CMX3600 list. The record side lays the clips end to
// end starting at zero.
func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	lines := []string{"TITLE: " + title}
	if IsDropFrame(frameRate) {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	record := 0.0
	for i, clip := range clips {
		length := clip.End - clip.Start
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				Timecode(clip.Start, fps), Timecode(clip.End, fps),
				Timecode(record, fps), Timecode(record+length, fps)),
			"* FROM CLIP NAME:  "+clip.Name,
			"* MEDIA PATH:  "+clip.MediaPath,
		)
		record += length
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Timecode formats seconds as HH:MM:SS:FF, rounding to the nearest frame.
func Timecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, frames)
}

// Write validates req, renders the list and writes <project>.edl into the
// output directory.
func Write(req Request, clips []Clip) (*Response, error) {
	if req.Format != "" && !strings.EqualFold(req.Format, FormatEDL) {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedFormat, req.Format)
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, ErrNoClips
	}

	project := SanitizeName(req.ProjectName, 120)
	if project == "" {
		project = DefaultProject
	}
	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	path := filepath.Join(req.OutputDir, project+".edl")
	if err := os.WriteFile(path, []byte(GenerateEDL(clips, project, frameRate)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	var total float64
	for _, c := range clips {
		total += c.End - c.Start
	}
	return &Response{
		Status:     "ok",
		Format:     FormatEDL,
		OutputPath: path,
		ClipCount:  len(clips),
		Duration:   total,
	}, nil
}
