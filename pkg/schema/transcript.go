package schema

import "time"

// Transcript is an exported copy of one session's chat log.
type Transcript struct {
	SessionID   string        `yaml:"session_id"`
	PersonaName string        `yaml:"persona_name"`
	Phase       Phase         `yaml:"phase"`
	Profile     IntakeProfile `yaml:"profile"`
	Messages    []Message     `yaml:"messages"`
	ExportedAt  time.Time     `yaml:"exported_at"`
}
