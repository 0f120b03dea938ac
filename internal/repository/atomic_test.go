package repository

import (
	"os"
	"path/filepath"
	"testing"
)

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileTx_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts", "SES-abc.yaml")

	tx := NewFileTx(path)
	if err := tx.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}

	content := []byte("session_id: SES-abc\n")
	if _, err := tx.Write(content); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	// Target does not exist before commit
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("target visible before commit")
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read committed file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("committed content = %q, want %q", data, content)
	}

	if names := dirEntries(t, filepath.Dir(path)); len(names) != 1 {
		t.Errorf("temp file not cleaned up: %v", names)
	}
}

func TestFileTx_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := writeFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("writeFileAtomic() failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestFileTx_Rollback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.yaml")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	tx := NewFileTx(path)
	if err := tx.Begin(); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Write([]byte("discarded")); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("original modified after rollback: %q", data)
	}
	if names := dirEntries(t, dir); len(names) != 1 {
		t.Errorf("temp file left behind: %v", names)
	}
}

func TestFileTx_DoubleCommit(t *testing.T) {
	tx := NewFileTx(filepath.Join(t.TempDir(), "chat.yaml"))
	if err := tx.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := tx.Commit(); err == nil {
		t.Error("second Commit() should fail")
	}
	if err := tx.Rollback(); err == nil {
		t.Error("Rollback() after commit should fail")
	}
	if _, err := tx.Write([]byte("late")); err == nil {
		t.Error("Write() after commit should fail")
	}
}

func TestFileTx_NotStarted(t *testing.T) {
	tx := NewFileTx(filepath.Join(t.TempDir(), "chat.yaml"))

	if _, err := tx.Write([]byte("x")); err == nil {
		t.Error("Write() before Begin() should fail")
	}
	if err := tx.Commit(); err == nil {
		t.Error("Commit() before Begin() should fail")
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback() before Begin() should be a no-op: %v", err)
	}
}
