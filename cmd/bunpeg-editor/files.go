package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/store"
)

var (
	uploadTool string
	filesTool  string
	rmTool     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a local video and add it to a tool's recent files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx := cmd.Context()
		if !store.ValidTool(uploadTool) {
			return fmt.Errorf("unknown tool %q", uploadTool)
		}

		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		name := filepath.Base(path)
		id, err := a.client.Upload(ctx, name, f)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		if err := a.repo.AppendFile(ctx, &store.File{ID: id, Tool: uploadTool, Name: name}); err != nil {
			return fmt.Errorf("failed to record upload: %w", err)
		}

		fmt.Printf("uploaded %s (%s) as %s\n", name, humanize.Bytes(uint64(info.Size())), id)
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List a tool's recent files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !store.ValidTool(filesTool) {
			return fmt.Errorf("unknown tool %q", filesTool)
		}
		files, err := current.repo.ListFiles(cmd.Context(), filesTool)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Printf("no %s files yet\n", filesTool)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tADDED\tPARENT")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Status, humanize.Time(f.CreatedAt), f.ParentID)
		}
		return w.Flush()
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete a remote file and forget it locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx := cmd.Context()
		id := args[0]

		if err := a.client.Delete(ctx, id); err != nil && !bunpeg.IsNotFound(err) {
			return fmt.Errorf("remote delete failed: %w", err)
		}
		if err := a.repo.RemoveFile(ctx, rmTool, id); err != nil {
			return fmt.Errorf("failed to forget file: %w", err)
		}
		fmt.Printf("deleted %s\n", id)
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTool, "tool", store.ToolTrim, "recent-files list to add the upload to")
	filesCmd.Flags().StringVar(&filesTool, "tool", store.ToolTrim, "recent-files list to show")
	rmCmd.Flags().StringVar(&rmTool, "tool", store.ToolTrim, "recent-files list to remove the file from")
}
