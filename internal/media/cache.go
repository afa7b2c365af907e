// Package media keeps local copies of remote files so a browser editor can
// seek through them with byte-range requests.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bunpeg/bunpeg-editor/internal/logging"
)

var ErrInvalidID = errors.New("invalid file id")

// Downloader is the part of the media API client the cache needs.
type Downloader interface {
	Download(ctx context.Context, id string, w io.Writer) (int64, error)
}

type Cache struct {
	dir    string
	client Downloader
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCache(dir string, client Downloader, logger *slog.Logger) *Cache {
	return &Cache{
		dir:    dir,
		client: client,
		logger: logging.WithComponent(logger, "media"),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (c *Cache) lock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// Path returns the cache location of fileID. The extension of name is kept
// so the served content type matches the media.
func (c *Cache) Path(fileID, name string) (string, error) {
	if fileID == "" || fileID != filepath.Base(fileID) || strings.ContainsAny(fileID, `/\`) || strings.HasPrefix(fileID, ".") {
		return "", ErrInvalidID
	}
	return filepath.Join(c.dir, fileID+strings.ToLower(filepath.Ext(name))), nil
}

// Fetch downloads fileID once and returns its local path. Concurrent calls
// for the same file wait for the first download.
func (c *Cache) Fetch(ctx context.Context, fileID, name string) (string, error) {
	path, err := c.Path(fileID, name)
	if err != nil {
		return "", err
	}

	l := c.lock(fileID)
	l.Lock()
	defer l.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media cache: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, fileID+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := c.client.Download(ctx, fileID, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to store download: %w", err)
	}

	c.logger.Info("cached media", "file_id", fileID, "bytes", n)
	return path, nil
}

// Evict drops every local copy of fileID.
func (c *Cache) Evict(fileID string) error {
	base, err := c.Path(fileID, "")
	if err != nil {
		return err
	}
	matches, _ := filepath.Glob(base + ".*")
	var errs []error
	for _, path := range append(matches, base) {
		if strings.HasSuffix(path, ".part") {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Serve writes the cached file at path, honouring a single byte range.
func (c *Cache) Serve(w http.ResponseWriter, r *http.Request, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open media: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media: %w", err)
	}
	size := info.Size()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case err != nil:
		// Malformed headers are ignored and the whole file is sent.
		br = nil
	}

	if br == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, f)
		}
		return nil
	}

	if _, err := f.Seek(br.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method != http.MethodHead {
		io.CopyN(w, f, br.Length())
	}
	return nil
}
