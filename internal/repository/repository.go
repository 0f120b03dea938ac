package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"aimigo/pkg/schema"
)

// Repository exports session transcripts under a base directory.
type Repository struct {
	baseDir string
}

// NewRepository creates a new repository.
func NewRepository(baseDir string) *Repository {
	return &Repository{baseDir: baseDir}
}

// TranscriptPath returns where a session's transcript is written.
func (r *Repository) TranscriptPath(sessionID string) string {
	return filepath.Join(r.baseDir, sessionID+".yaml")
}

// SaveTranscript writes the transcript under the base directory.
func (r *Repository) SaveTranscript(t *schema.Transcript) (string, error) {
	if t.SessionID == "" {
		return "", errors.New("transcript has no session id")
	}
	path := r.TranscriptPath(t.SessionID)
	if err := WriteTranscript(path, t); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTranscript writes a transcript to path as YAML, atomically.
func WriteTranscript(path string, t *schema.Transcript) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// ReadTranscript reads a previously exported transcript.
func ReadTranscript(path string) (*schema.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var t schema.Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return &t, nil
}

// LoadScript reads a conversation script from YAML. Fields absent from the
// file keep their built-in values.
func LoadScript(path string) (schema.Script, error) {
	script := schema.DefaultScript()

	data, err := os.ReadFile(path)
	if err != nil {
		return script, fmt.Errorf("read script: %w", err)
	}

	if err := yaml.Unmarshal(data, &script); err != nil {
		return script, fmt.Errorf("parse script: %w", err)
	}

	if err := schema.ValidateScript(&script); err != nil {
		return script, fmt.Errorf("invalid script %s: %w", path, err)
	}
	return script, nil
}
