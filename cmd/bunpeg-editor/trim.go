package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bunpeg/bunpeg-editor/internal/export"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

var (
	trimDeletes   []string
	exportDeletes []string
	exportOut     string
	exportProject string
	exportFPS     float64
)

var trimCmd = &cobra.Command{
	Use:     "trim <file-id>",
	Short:   "Delete ranges from a remote file without opening the editor",
	Example: `  bunpeg-editor trim 3f2a --delete 10-20 --delete 1:05-1:30`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrim(cmd.Context(), current, args[0], trimDeletes)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file-id>",
	Short: "Write an EDL of the parts that would be kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context(), current, args[0])
	},
}

func init() {
	trimCmd.Flags().StringArrayVar(&trimDeletes, "delete", nil, "range to delete as start-end, in seconds or m:ss (repeatable)")
	trimCmd.MarkFlagRequired("delete")

	exportCmd.Flags().StringArrayVar(&exportDeletes, "delete", nil, "range to delete as start-end (repeatable)")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "directory to write the EDL into")
	exportCmd.Flags().StringVar(&exportProject, "project", "", "project name, defaults to the file name")
	exportCmd.Flags().Float64Var(&exportFPS, "fps", export.DefaultFrameRate, "timecode frame rate")
}

// plan loads the remote file and validates deletes against the editor's
// segment rules, the same ones the interactive editors apply.
func plan(ctx context.Context, a *app, fileID string, specs []string) (*remoteFile, []timeline.TimeRange, error) {
	file, err := a.client.File(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load file: %w", err)
	}
	meta, err := a.duration(ctx, file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	ranges, err := parseRanges(specs)
	if err != nil {
		return nil, nil, err
	}
	set := timeline.NewSegmentSet(meta.Duration, a.cfg.Editor().Options)
	for _, r := range ranges {
		if _, err := set.Create(r.Start, r.End); err != nil {
			return nil, nil, fmt.Errorf("range %v-%v: %w", r.Start, r.End, err)
		}
	}
	return &remoteFile{ID: fileID, Name: file.FileName, Duration: meta.Duration}, set.Sorted(), nil
}

type remoteFile struct {
	ID       string
	Name     string
	Duration float64
}

func runTrim(ctx context.Context, a *app, fileID string, specs []string) error {
	file, deletes, err := plan(ctx, a, fileID, specs)
	if err != nil {
		return err
	}
	keep, err := submit.Plan(deletes, file.Duration)
	if err != nil {
		return err
	}
	if err := a.remember(ctx, store.ToolTrim, fileID, file.Name); err != nil {
		return fmt.Errorf("failed to record file: %w", err)
	}

	sub, err := a.recorder.Begin(ctx, fileID, store.ToolTrim, keep)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}

	a.submitter.OnProgress = func(p submit.Progress) {
		if p.Step == submit.StepTrim {
			fmt.Printf("trimming part %d/%d\n", p.Part, p.Total)
			return
		}
		fmt.Printf("%s\n", p.Step)
	}

	res, err := a.submitter.Submit(ctx, fileID, deletes, file.Duration)
	a.recorder.Finish(sub, file.Name, res, err)
	if err != nil {
		return err
	}
	fmt.Printf("done: %s (%s)\n", res.FileID, a.client.OutputURL(res.FileID))
	return nil
}

func runExport(ctx context.Context, a *app, fileID string) error {
	file, deletes, err := plan(ctx, a, fileID, exportDeletes)
	if err != nil {
		return err
	}
	keep := []timeline.Range{{Start: 0, End: file.Duration}}
	if len(deletes) > 0 {
		if keep, err = timeline.Invert(deletes, file.Duration); err != nil {
			return err
		}
	}

	out, err := filepath.Abs(exportOut)
	if err != nil {
		return err
	}
	project := exportProject
	if project == "" {
		project = file.Name
	}

	resp, err := export.Write(export.Request{
		ProjectName: project,
		Format:      export.FormatEDL,
		FrameRate:   exportFPS,
		OutputDir:   out,
	}, export.ClipsFromKeep(keep, file.Name, a.client.OutputURL(fileID)))
	if err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d clips, %.2fs)\n", resp.OutputPath, resp.ClipCount, resp.Duration)
	return nil
}

// parseRanges reads "start-end" pairs. Times are seconds ("12.5") or
// clock form ("1:05", "1:02:03.5").
func parseRanges(specs []string) ([]timeline.Range, error) {
	out := make([]timeline.Range, 0, len(specs))
	for _, spec := range specs {
		startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
		if !ok {
			return nil, fmt.Errorf("invalid range %q: want start-end", spec)
		}
		start, err := parseTime(startStr)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", spec, err)
		}
		end, err := parseTime(endStr)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", spec, err)
		}
		if end <= start {
			return nil, fmt.Errorf("invalid range %q: end must be after start", spec)
		}
		out = append(out, timeline.Range{Start: start, End: end})
	}
	return out, nil
}

func parseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty time")
	}

	var total float64
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad time %q", s)
		}
		if i < len(parts)-1 && (v != float64(int(v)) || strings.Contains(p, ".")) {
			return 0, fmt.Errorf("bad time %q", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("bad time %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}
