package db

import (
	"path/filepath"
	"testing"
)

func openAt(t *testing.T, path string) *DB {
	t.Helper()
	d, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestNew_Schema(t *testing.T) {
	d := openAt(t, filepath.Join(t.TempDir(), "nested", "editor.db"))
	defer d.Close()

	for _, table := range []string{"files", "submissions", "config", "_migrations"} {
		var name string
		err := d.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestNew_Pragmas(t *testing.T) {
	d := openAt(t, filepath.Join(t.TempDir(), "editor.db"))
	defer d.Close()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, tc := range tests {
		var got string
		if err := d.Conn().QueryRow("PRAGMA " + tc.pragma).Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s error = %v", tc.pragma, err)
		}
		if got != tc.want {
			t.Errorf("PRAGMA %s = %s, want %s", tc.pragma, got, tc.want)
		}
	}
}

func TestNew_ReopenAppliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.db")
	openAt(t, path).Close()

	d := openAt(t, path)
	defer d.Close()

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var count int
	if err := d.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations error = %v", err)
	}
	if count != len(entries) {
		t.Errorf("recorded migrations = %d, want %d", count, len(entries))
	}
}

func TestNew_FailsInterruptedSubmissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.db")
	d := openAt(t, path)

	seed := []string{
		`INSERT INTO submissions (id, file_id, status, created_at, updated_at)
		 VALUES ('running', 'f1', 'processing', 'x', 'x'), ('done', 'f2', 'completed', 'x', 'x')`,
		`INSERT INTO files (id, tool, name, status, created_at, updated_at)
		 VALUES ('f1', 'trim', 'clip.mp4', 'processing', 'x', 'x'), ('f2', 'trim', 'b.mp4', 'processed', 'x', 'x')`,
	}
	for _, q := range seed {
		if _, err := d.Conn().Exec(q); err != nil {
			t.Fatalf("seed error = %v", err)
		}
	}
	d.Close()

	d = openAt(t, path)
	defer d.Close()

	tests := []struct {
		query string
		want  string
	}{
		{"SELECT status FROM submissions WHERE id = 'running'", "failed"},
		{"SELECT error FROM submissions WHERE id = 'running'", InterruptedError},
		{"SELECT status FROM submissions WHERE id = 'done'", "completed"},
		{"SELECT status FROM files WHERE id = 'f1'", "failed"},
		{"SELECT status FROM files WHERE id = 'f2'", "processed"},
	}
	for _, tc := range tests {
		var got string
		if err := d.Conn().QueryRow(tc.query).Scan(&got); err != nil {
			t.Fatalf("%s: %v", tc.query, err)
		}
		if got != tc.want {
			t.Errorf("%s = %q, want %q", tc.query, got, tc.want)
		}
	}
}
