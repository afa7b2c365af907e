package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/config"
	"github.com/bunpeg/bunpeg-editor/internal/db"
	"github.com/bunpeg/bunpeg-editor/internal/logging"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
	"github.com/bunpeg/bunpeg-editor/internal/timeline"
)

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []timeline.Range
		wantErr bool
	}{
		{"seconds", []string{"10-20"}, []timeline.Range{{Start: 10, End: 20}}, false},
		{"fractional", []string{" 1.5-2.25 "}, []timeline.Range{{Start: 1.5, End: 2.25}}, false},
		{"clock", []string{"1:05-1:30.5"}, []timeline.Range{{Start: 65, End: 90.5}}, false},
		{"hours", []string{"1:00:00-1:00:10"}, []timeline.Range{{Start: 3600, End: 3610}}, false},
		{"several", []string{"0-1", "5-6"}, []timeline.Range{{Start: 0, End: 1}, {Start: 5, End: 6}}, false},
		{"no dash", []string{"10"}, nil, true},
		{"reversed", []string{"20-10"}, nil, true},
		{"empty end", []string{"10-"}, nil, true},
		{"seconds over 59", []string{"1:75-2:00"}, nil, true},
		{"fractional minutes", []string{"1.5:00-2:00"}, nil, true},
		{"not a number", []string{"a-b"}, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRanges(tc.specs)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseRanges(%v) = %v, want error", tc.specs, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRanges(%v) error = %v", tc.specs, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("parseRanges(%v) = %v, want %v", tc.specs, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("range %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func newTestApp(t *testing.T) (*app, string) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv(config.EnvDataDir, dir)
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvConfigFile, "")
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}

	logger := logging.Discard()
	database, err := db.New(filepath.Join(dir, "test.db"), logger)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	stub := bunpeg.NewStubClient(100, logger)
	fileID, err := stub.Upload(context.Background(), "clip.mp4", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	poller := &bunpeg.Poller{Client: stub, Interval: time.Millisecond, Logger: logger}
	repo := store.NewRepository(database.Conn())
	return &app{
		cfg:       cfg,
		logger:    logger,
		database:  database,
		repo:      repo,
		client:    stub,
		poller:    poller,
		submitter: submit.New(stub, poller, "", logger),
		recorder:  session.NewRecorder(repo, logger),
	}, fileID
}

func TestRunTrim(t *testing.T) {
	a, fileID := newTestApp(t)
	ctx := context.Background()

	if err := runTrim(ctx, a, fileID, []string{"10-20", "50-60"}); err != nil {
		t.Fatalf("runTrim() error = %v", err)
	}

	subs, err := a.repo.ListSubmissions(ctx, fileID, 0)
	if err != nil || len(subs) != 1 {
		t.Fatalf("ListSubmissions() = %v, %v", subs, err)
	}
	if subs[0].Status != store.SubmissionStatusCompleted || len(subs[0].KeepRanges) != 3 {
		t.Fatalf("submission = %+v", subs[0])
	}

	result, _ := a.repo.GetFile(ctx, store.ToolTrim, subs[0].ResultFileID)
	if result == nil || result.ParentID != fileID {
		t.Errorf("result file = %+v", result)
	}
}

func TestRunTrim_RejectsOverlap(t *testing.T) {
	a, fileID := newTestApp(t)

	err := runTrim(context.Background(), a, fileID, []string{"10-20", "15-25"})
	if !errors.Is(err, timeline.ErrOverlap) {
		t.Fatalf("runTrim() error = %v, want ErrOverlap", err)
	}
	subs, _ := a.repo.ListSubmissions(context.Background(), fileID, 0)
	if len(subs) != 0 {
		t.Fatalf("rejected trim should not be recorded: %+v", subs)
	}
}

func TestRunExport(t *testing.T) {
	a, fileID := newTestApp(t)
	out := t.TempDir()

	exportDeletes = []string{"0:30-0:40"}
	exportOut = out
	exportProject = "cut"
	exportFPS = 25
	t.Cleanup(func() {
		exportDeletes, exportOut, exportProject, exportFPS = nil, ".", "", 30
	})

	if err := runExport(context.Background(), a, fileID); err != nil {
		t.Fatalf("runExport() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "cut.edl"))
	if err != nil {
		t.Fatalf("read edl: %v", err)
	}
	edl := string(data)
	if !strings.Contains(edl, "TITLE: cut") {
		t.Errorf("edl missing title:\n%s", edl)
	}
	if !strings.Contains(edl, "clip.mp4 part 2") {
		t.Errorf("edl should have two clips:\n%s", edl)
	}
}
