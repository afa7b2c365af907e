// Package bunpeg is a client for the bunpeg media-processing HTTP API.
package bunpeg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Client interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	File(ctx context.Context, id string) (*UserFile, error)
	Files(ctx context.Context, parent string) ([]UserFile, error)
	Meta(ctx context.Context, id string) (*VideoMeta, error)
	Status(ctx context.Context, id string) (FileStatus, error)
	Chain(ctx context.Context, req ChainRequest) error
	Merge(ctx context.Context, req MergeRequest) error
	ProcessDash(ctx context.Context, id string) error
	Transcode(ctx context.Context, fileID string, op TranscodeOp) error
	ResizeVideo(ctx context.Context, fileID string, op ResizeVideoOp) error
	ExtractAudio(ctx context.Context, fileID string, op ExtractAudioOp) error
	RemoveAudio(ctx context.Context, fileID string, op RemoveAudioOp) error
	ExtractThumbnail(ctx context.Context, fileID string, op ExtractThumbnailOp) error
	Bulk(ctx context.Context, fileIDs []string, op Operation) error
	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, id string, w io.Writer) (int64, error)
	OutputURL(id string) string
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*StubClient)(nil)
)

// StubClient is an in-memory stand-in used when no API URL is configured.
// Every operation completes immediately and appends a child to its parent.
type StubClient struct {
	logger   *slog.Logger
	duration float64

	mu       sync.Mutex
	files    map[string]UserFile
	children map[string][]string
	content  map[string][]byte
}

// NewStubClient returns a stub whose files all report the given duration.
func NewStubClient(duration float64, logger *slog.Logger) *StubClient {
	return &StubClient{
		logger:   logger,
		duration: duration,
		files:    make(map[string]UserFile),
		children: make(map[string][]string),
		content:  make(map[string][]byte),
	}
}

func (c *StubClient) newID() string {
	return uuid.NewString()[:8]
}

func (c *StubClient) add(name, parent string, data []byte) string {
	id := c.newID()
	c.files[id] = UserFile{
		ID:        id,
		FileName:  name,
		FilePath:  id + "/" + name,
		MimeType:  "video/mp4",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	c.content[id] = data
	if parent != "" {
		c.children[parent] = append(c.children[parent], id)
	}
	return id
}

func (c *StubClient) missing(op, id string) error {
	return &APIError{Op: op, StatusCode: http.StatusNotFound, Body: fmt.Sprintf(`{"error":"file %s not found"}`, id)}
}

func (c *StubClient) derive(op, parent string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.files[parent]
	if !ok {
		return c.missing(op, parent)
	}
	id := c.add(op+"_"+src.FileName, parent, c.content[parent])
	c.logger.Info("bunpeg stub: operation applied", "op", op, "parent", parent, "file_id", id)
	return nil
}

func (c *StubClient) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.add(name, "", data)
	c.logger.Info("bunpeg stub: upload", "name", name, "file_id", id, "bytes", len(data))
	return id, nil
}

func (c *StubClient) File(ctx context.Context, id string) (*UserFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[id]
	if !ok {
		return nil, c.missing("file", id)
	}
	return &f, nil
}

func (c *StubClient) Files(ctx context.Context, parent string) ([]UserFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []UserFile
	for _, id := range c.children[parent] {
		out = append(out, c.files[id])
	}
	return out, nil
}

func (c *StubClient) Meta(ctx context.Context, id string) (*VideoMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.files[id]; !ok {
		return nil, c.missing("meta", id)
	}
	return &VideoMeta{
		Size:       int64(len(c.content[id])),
		Duration:   c.duration,
		Resolution: Resolution{Width: 1920, Height: 1080},
	}, nil
}

func (c *StubClient) Status(ctx context.Context, id string) (FileStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.files[id]; !ok {
		return FileStatus{}, c.missing("status", id)
	}
	return FileStatus{Status: StatusCompleted}, nil
}

func (c *StubClient) Chain(ctx context.Context, req ChainRequest) error {
	for _, op := range req.Operations {
		if err := c.derive(op.Kind(), req.FileID); err != nil {
			return err
		}
	}
	return nil
}

func (c *StubClient) Merge(ctx context.Context, req MergeRequest) error {
	for _, id := range req.FileIDs {
		if _, err := c.File(ctx, id); err != nil {
			return err
		}
	}
	return c.derive("merge", req.Parent)
}

func (c *StubClient) ProcessDash(ctx context.Context, id string) error {
	_, err := c.File(ctx, id)
	return err
}

func (c *StubClient) Transcode(ctx context.Context, fileID string, op TranscodeOp) error {
	return c.derive(op.Kind(), fileID)
}

func (c *StubClient) ResizeVideo(ctx context.Context, fileID string, op ResizeVideoOp) error {
	return c.derive(op.Kind(), fileID)
}

func (c *StubClient) ExtractAudio(ctx context.Context, fileID string, op ExtractAudioOp) error {
	return c.derive(op.Kind(), fileID)
}

func (c *StubClient) RemoveAudio(ctx context.Context, fileID string, op RemoveAudioOp) error {
	return c.derive(op.Kind(), fileID)
}

func (c *StubClient) ExtractThumbnail(ctx context.Context, fileID string, op ExtractThumbnailOp) error {
	return c.derive(op.Kind(), fileID)
}

func (c *StubClient) Bulk(ctx context.Context, fileIDs []string, op Operation) error {
	for _, id := range fileIDs {
		if err := c.derive(op.Kind(), id); err != nil {
			return err
		}
	}
	return nil
}

func (c *StubClient) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.files[id]; !ok {
		return c.missing("delete", id)
	}
	delete(c.files, id)
	delete(c.content, id)
	delete(c.children, id)
	c.logger.Info("bunpeg stub: delete", "file_id", id)
	return nil
}

func (c *StubClient) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	c.mu.Lock()
	data, ok := c.content[id]
	c.mu.Unlock()
	if !ok {
		return 0, c.missing("download", id)
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (c *StubClient) OutputURL(id string) string {
	return "stub://output/" + id
}
