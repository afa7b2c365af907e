package bunpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxErrorBody = 4096

// APIError is a non-2xx response from the media API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bunpeg %s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Message())
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// Message returns the server-provided error text when the body carries one.
func (e *APIError) Message() string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(e.Body)
}

// IsNotFound reports whether err is an APIError for a missing file. The
// service answers unknown ids with either 400 or 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusBadRequest
}

// HTTPClient talks to the bunpeg media API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// streamClient is used for uploads and downloads, which are bounded by the
// caller's context rather than a fixed timeout.
func (c *HTTPClient) streamClient() *http.Client {
	sc := *c.httpClient
	sc.Timeout = 0
	return &sc
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

// doJSON sends payload (if any) as JSON and decodes a 2xx response into
// result (if non-nil).
func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("bunpeg request", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bunpeg %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

// Upload streams r as a multipart form field named "file" and returns the
// id the service assigned.
func (c *HTTPClient) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("uploading file", "name", name)

	resp, err := c.streamClient().Do(req)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("bunpeg upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{Op: "upload", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.FileID == "" {
		return "", errors.New("bunpeg upload: response carried no file id")
	}

	c.logger.Info("upload complete", "name", name, "file_id", out.FileID)
	return out.FileID, nil
}

func (c *HTTPClient) File(ctx context.Context, id string) (*UserFile, error) {
	var out fileResponse
	if err := c.doJSON(ctx, "file", http.MethodGet, "/files/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

// Files lists the children produced from parent, oldest first.
func (c *HTTPClient) Files(ctx context.Context, parent string) ([]UserFile, error) {
	path := "/files"
	if parent != "" {
		path += "?" + url.Values{"parent": {parent}}.Encode()
	}
	var out filesResponse
	if err := c.doJSON(ctx, "files", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *HTTPClient) Meta(ctx context.Context, id string) (*VideoMeta, error) {
	var out metaResponse
	if err := c.doJSON(ctx, "meta", http.MethodGet, "/meta/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Meta, nil
}

func (c *HTTPClient) Status(ctx context.Context, id string) (FileStatus, error) {
	var out FileStatus
	if err := c.doJSON(ctx, "status", http.MethodGet, "/status/"+url.PathEscape(id), nil, &out); err != nil {
		return FileStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) Chain(ctx context.Context, req ChainRequest) error {
	c.logger.Info("submitting chain", "file_id", req.FileID, "operations", len(req.Operations))
	return c.doJSON(ctx, "chain", http.MethodPost, "/chain", req, nil)
}

func (c *HTTPClient) Merge(ctx context.Context, req MergeRequest) error {
	c.logger.Info("submitting merge", "parts", len(req.FileIDs), "parent", req.Parent)
	return c.doJSON(ctx, "merge", http.MethodPost, "/merge", req, nil)
}

// ProcessDash asks the service to build the adaptive-streaming manifest.
func (c *HTTPClient) ProcessDash(ctx context.Context, id string) error {
	var out successResponse
	if err := c.doJSON(ctx, "dash", http.MethodGet, "/dash/"+url.PathEscape(id)+"/process", nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{Op: "dash", StatusCode: http.StatusOK, Body: out.Error}
	}
	return nil
}

func (c *HTTPClient) Transcode(ctx context.Context, fileID string, op TranscodeOp) error {
	op.FileID = fileID
	return c.doJSON(ctx, op.Kind(), http.MethodPost, "/transcode", op, nil)
}

func (c *HTTPClient) ResizeVideo(ctx context.Context, fileID string, op ResizeVideoOp) error {
	op.FileID = fileID
	return c.doJSON(ctx, op.Kind(), http.MethodPost, "/resize-video", op, nil)
}

func (c *HTTPClient) ExtractAudio(ctx context.Context, fileID string, op ExtractAudioOp) error {
	op.FileID = fileID
	return c.doJSON(ctx, op.Kind(), http.MethodPost, "/extract-audio", op, nil)
}

func (c *HTTPClient) RemoveAudio(ctx context.Context, fileID string, op RemoveAudioOp) error {
	op.FileID = fileID
	return c.doJSON(ctx, op.Kind(), http.MethodPost, "/remove-audio", op, nil)
}

func (c *HTTPClient) ExtractThumbnail(ctx context.Context, fileID string, op ExtractThumbnailOp) error {
	op.FileID = fileID
	return c.doJSON(ctx, op.Kind(), http.MethodPost, "/extract-thumbnail", op, nil)
}

// Bulk applies one operation to many files.
func (c *HTTPClient) Bulk(ctx context.Context, fileIDs []string, op Operation) error {
	return c.doJSON(ctx, "bulk", http.MethodPost, "/bulk", bulkRequest{FileIDs: fileIDs, Operation: op}, nil)
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	c.logger.Info("deleting remote file", "file_id", id)
	return c.doJSON(ctx, "delete", http.MethodDelete, "/delete/"+url.PathEscape(id), nil, nil)
}

// Download copies the file contents to w and returns the byte count.
func (c *HTTPClient) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(id), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.streamClient().Do(req)
	if err != nil {
		return 0, fmt.Errorf("bunpeg download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, &APIError{Op: "download", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("bunpeg download: %w", err)
	}
	return n, nil
}

// OutputURL is the public URL serving a processed file.
func (c *HTTPClient) OutputURL(id string) string {
	return c.baseURL + "/output/" + url.PathEscape(id)
}
