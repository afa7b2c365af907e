package bunpeg

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestStubClient_DerivesChildren(t *testing.T) {
	ctx := context.Background()
	c := NewStubClient(42, testLogger())

	id, err := c.Upload(ctx, "clip.mp4", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	meta, err := c.Meta(ctx, id)
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	if meta.Duration != 42 || meta.Size != 4 {
		t.Fatalf("Meta() = %+v", meta)
	}

	req := ChainRequest{FileID: id, Operations: []Operation{Trim(0, 5, "mp4"), Trim(10, 5, "mp4")}}
	if err := c.Chain(ctx, req); err != nil {
		t.Fatalf("Chain() error = %v", err)
	}

	children, err := c.Files(ctx, id)
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}

	status, err := c.Status(ctx, children[1].ID)
	if err != nil || status.Status != StatusCompleted {
		t.Fatalf("Status() = %+v, %v", status, err)
	}

	var buf bytes.Buffer
	if _, err := c.Download(ctx, children[0].ID, &buf); err != nil || buf.String() != "data" {
		t.Fatalf("Download() = %q, %v", buf.String(), err)
	}
}

func TestStubClient_Missing(t *testing.T) {
	ctx := context.Background()
	c := NewStubClient(10, testLogger())

	if _, err := c.File(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("File() error = %v, want not found", err)
	}
	if err := c.Merge(ctx, MergeRequest{FileIDs: []string{"nope"}, Parent: "x"}); !IsNotFound(err) {
		t.Fatalf("Merge() error = %v, want not found", err)
	}
	if err := c.Delete(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("Delete() error = %v, want not found", err)
	}
}
