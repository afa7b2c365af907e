package bunpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPClient_Upload(t *testing.T) {
	var gotName, gotContent, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotContent = string(data)

		json.NewEncoder(w).Encode(map[string]string{"fileId": "abc123"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", testLogger())
	id, err := client.Upload(context.Background(), "clip.mp4", strings.NewReader("video-bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if id != "abc123" {
		t.Errorf("id = %q, want abc123", id)
	}
	if gotName != "clip.mp4" || gotContent != "video-bytes" {
		t.Errorf("received %q with %q", gotName, gotContent)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q, want %q", gotAuth, "Bearer secret")
	}
}

func TestHTTPClient_NoTokenNoAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("auth = %q, want empty", auth)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("expected a request id header")
		}
		json.NewEncoder(w).Encode(FileStatus{Status: StatusPending})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", testLogger())
	if _, err := client.Status(context.Background(), "f1"); err != nil {
		t.Fatalf("Status() error = %v", err)
	}
}

func TestHTTPClient_Chain_Body(t *testing.T) {
	var body map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	op := Trim(0, 2.5, "mp4")
	op.Mode = ModeAppend
	op.Parent = "f1"

	client := NewHTTPClient(server.URL, "", testLogger())
	if err := client.Chain(context.Background(), ChainRequest{FileID: "f1", Operations: []Operation{op}}); err != nil {
		t.Fatalf("Chain() error = %v", err)
	}

	if body["file_id"] != "f1" {
		t.Errorf("file_id = %v, want f1", body["file_id"])
	}
	ops, _ := body["operations"].([]any)
	if len(ops) != 1 {
		t.Fatalf("operations = %v, want 1 entry", body["operations"])
	}
	trim := ops[0].(map[string]any)
	want := map[string]any{
		"type":          "trim",
		"start":         float64(0),
		"duration":      2.5,
		"output_format": "mp4",
		"mode":          "append",
		"parent":        "f1",
	}
	for k, v := range want {
		if trim[k] != v {
			t.Errorf("trim[%s] = %v, want %v", k, trim[k], v)
		}
	}
	if _, ok := trim["file_id"]; ok {
		t.Error("chained operations must not carry file_id")
	}
}

func TestHTTPClient_SingleOperationCarriesFileID(t *testing.T) {
	var body map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract-thumbnail" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
	}))
	defer server.Close()

	op := ExtractThumbnail(12.5, "png")
	op.Mode = ModeAppend
	op.Parent = "f1"

	client := NewHTTPClient(server.URL, "", testLogger())
	if err := client.ExtractThumbnail(context.Background(), "f1", op); err != nil {
		t.Fatalf("ExtractThumbnail() error = %v", err)
	}

	if body["file_id"] != "f1" || body["timestamp"] != "12.5" || body["image_format"] != "png" {
		t.Fatalf("body = %v", body)
	}
}

func TestHTTPClient_Files_ParentQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("parent"); got != "f1" {
			t.Errorf("parent = %q, want f1", got)
		}
		w.Write([]byte(`{"files":[{"id":"c1","file_name":"a.mp4"},{"id":"c2","file_name":"b.mp4"}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", testLogger())
	files, err := client.Files(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) != 2 || files[1].ID != "c2" {
		t.Fatalf("Files() = %+v", files)
	}
}

func TestHTTPClient_Meta_LooseNumbers(t *testing.T) {
	tests := []struct {
		name string
		body string
		want VideoMeta
	}{
		{
			name: "numbers",
			body: `{"meta":{"size":2048,"duration":12.5,"bitrate":900,"resolution":{"width":1280,"height":720}}}`,
			want: VideoMeta{Size: 2048, Duration: 12.5, Bitrate: 900, Resolution: Resolution{1280, 720}},
		},
		{
			name: "quoted duration and null bitrate",
			body: `{"meta":{"size":10,"duration":"30.25","bitrate":null,"resolution":{"width":null,"height":null}}}`,
			want: VideoMeta{Size: 10, Duration: 30.25},
		},
		{
			name: "meta as string",
			body: `{"meta":"{\"size\":5,\"duration\":4}"}`,
			want: VideoMeta{Size: 5, Duration: 4},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "", testLogger())
			got, err := client.Meta(context.Background(), "f1")
			if err != nil {
				t.Fatalf("Meta() error = %v", err)
			}
			if *got != tc.want {
				t.Fatalf("Meta() = %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid file id"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", testLogger())
	_, err := client.File(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Op != "file" || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if apiErr.Message() != "invalid file id" {
		t.Fatalf("Message() = %q", apiErr.Message())
	}
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound for 400")
	}
}

func TestAPIError_IsRetryable(t *testing.T) {
	if !(&APIError{StatusCode: http.StatusBadGateway}).IsRetryable() {
		t.Fatal("expected 5xx error to be retryable")
	}
	if (&APIError{StatusCode: http.StatusUnprocessableEntity}).IsRetryable() {
		t.Fatal("expected 4xx error to be permanent")
	}
}

func TestAPIError_MessageFallsBackToBody(t *testing.T) {
	err := &APIError{Op: "merge", StatusCode: 500, Body: "  upstream exploded \n"}
	if got := err.Message(); got != "upstream exploded" {
		t.Fatalf("Message() = %q", got)
	}
	if !strings.Contains(err.Error(), "merge") {
		t.Fatalf("Error() = %q, want op name", err.Error())
	}
}

func TestHTTPClient_ProcessDash(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"success", `{"success":true}`, false},
		{"refused", `{"success":false,"error":"no video stream"}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/dash/f1/process" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "", testLogger())
			err := client.ProcessDash(context.Background(), "f1")
			if (err != nil) != tc.wantErr {
				t.Fatalf("ProcessDash() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestHTTPClient_Bulk(t *testing.T) {
	var body struct {
		FileIDs   []string       `json:"file_ids"`
		Operation map[string]any `json:"operation"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", testLogger())
	if err := client.Bulk(context.Background(), []string{"a", "b"}, Transcode("webm")); err != nil {
		t.Fatalf("Bulk() error = %v", err)
	}
	if len(body.FileIDs) != 2 || body.Operation["type"] != "transcode" || body.Operation["format"] != "webm" {
		t.Fatalf("body = %+v", body)
	}
}

func TestHTTPClient_DownloadAndDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/download/f1":
			w.Write([]byte("payload"))
		case r.Method == http.MethodDelete && r.URL.Path == "/delete/f1":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/", "", testLogger())

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), "f1", &buf)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if n != 7 || buf.String() != "payload" {
		t.Fatalf("Download() = %d %q", n, buf.String())
	}

	if err := client.Delete(context.Background(), "f1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := client.Delete(context.Background(), "f2"); !IsNotFound(err) {
		t.Fatalf("Delete(missing) error = %v, want not found", err)
	}

	if got := client.OutputURL("f1"); got != server.URL+"/output/f1" {
		t.Fatalf("OutputURL() = %q", got)
	}
}
