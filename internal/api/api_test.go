package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/config"
	"github.com/bunpeg/bunpeg-editor/internal/db"
	"github.com/bunpeg/bunpeg-editor/internal/media"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
)

const testToken = "test-token"

type testEnv struct {
	router *chi.Mux
	repo   store.Repository
	stub   *bunpeg.StubClient
	mgr    *session.Manager
	fileID string
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), testLogger())
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := store.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	stub := bunpeg.NewStubClient(100, testLogger())
	fileID, err := stub.Upload(context.Background(), "clip.mp4", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	poller := &bunpeg.Poller{Client: stub, Interval: time.Millisecond, Logger: testLogger()}
	mgr := session.NewManager(stub, submit.New(stub, poller, "", testLogger()), repo, config.DefaultEditorConfig(), testLogger())
	t.Cleanup(mgr.Shutdown)

	router := NewRouter(ServerConfig{
		Sessions:   mgr,
		Client:     stub,
		Repository: repo,
		Media:      media.NewCache(filepath.Join(t.TempDir(), "media"), stub, testLogger()),
		Logger:     testLogger(),
		StartTime:  time.Now().Add(-10 * time.Second),
		Version:    "test",
		Offline:    true,
	})

	return &testEnv{router: router, repo: repo, stub: stub, mgr: mgr, fileID: fileID}
}

// do sends an authenticated request from the loopback address.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/sessions", OpenSessionRequest{FileID: e.fileID, TrackWidth: 100})
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST /sessions status = %d, body = %s", rr.Code, rr.Body)
	}
	return decodeJSONBody(t, rr)["id"].(string)
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response body %s: %v", rr.Body, err)
	}
}
