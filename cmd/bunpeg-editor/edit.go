package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit <file-id>",
	Short: "Open the terminal timeline editor for a remote file",
	Long: `Drag on the track to mark a range for deletion, drag a segment's first or
last cell to resize it, click to seek. Press s to submit, q to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx := cmd.Context()
		id := args[0]

		file, err := a.client.File(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load file: %w", err)
		}
		meta, err := a.duration(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to load metadata: %w", err)
		}
		if err := a.remember(ctx, store.ToolTrim, id, file.FileName); err != nil {
			return fmt.Errorf("failed to record file: %w", err)
		}

		m := tui.New(tui.Options{
			FileID:    id,
			FileName:  file.FileName,
			Duration:  meta.Duration,
			Size:      meta.Size,
			Editor:    a.cfg.Editor(),
			Submitter: a.submitter,
			Recorder:  a.recorder,
			Logger:    a.logger,
		})

		final, err := tui.Run(ctx, m)
		if err != nil {
			return err
		}

		if res := final.Result(); res != nil {
			fmt.Printf("trimmed %s -> %s (%s)\n", file.FileName, res.FileID, a.client.OutputURL(res.FileID))
		}
		return nil
	},
}
