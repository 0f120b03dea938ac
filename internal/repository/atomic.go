package repository

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileTx writes one file atomically. Content goes to a temporary file in the
// target's directory which replaces the target on commit.
type FileTx struct {
	path      string
	temp      *os.File
	committed bool
}

// NewFileTx creates a transaction targeting path.
func NewFileTx(path string) *FileTx {
	return &FileTx{path: path}
}

// Begin creates the temporary file, creating parent directories as needed.
func (tx *FileTx) Begin() error {
	dir := filepath.Dir(tx.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(tx.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tx.temp = f
	return nil
}

// Write appends content to the temporary file.
func (tx *FileTx) Write(p []byte) (int, error) {
	if tx.committed {
		return 0, fmt.Errorf("transaction already committed")
	}
	if tx.temp == nil {
		return 0, fmt.Errorf("transaction not started")
	}
	return tx.temp.Write(p)
}

// Commit flushes the temporary file and renames it over the target.
func (tx *FileTx) Commit() error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	if tx.temp == nil {
		return fmt.Errorf("transaction not started")
	}

	if err := tx.temp.Sync(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tx.temp.Chmod(0644); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tx.temp.Close(); err != nil {
		_ = os.Remove(tx.temp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tx.temp.Name(), tx.path); err != nil {
		_ = os.Remove(tx.temp.Name())
		return fmt.Errorf("commit %s: %w", tx.path, err)
	}

	tx.committed = true
	return nil
}

// Rollback removes the temporary file, leaving the target untouched.
func (tx *FileTx) Rollback() error {
	if tx.committed {
		return fmt.Errorf("cannot rollback committed transaction")
	}
	if tx.temp == nil {
		return nil
	}

	_ = tx.temp.Close()
	if err := os.Remove(tx.temp.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path with content in a single transaction.
func writeFileAtomic(path string, content []byte) error {
	tx := NewFileTx(path)
	if err := tx.Begin(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Write(content); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write file: %w", err)
	}

	return tx.Commit()
}
