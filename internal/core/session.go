package core

import (
	"fmt"
	"time"

	"aimigo/pkg/schema"
)

// SessionState represents the in-memory state of one conversation.
type SessionState struct {
	ID                string
	Phase             schema.Phase
	ScriptStep        int
	Profile           schema.IntakeProfile
	GenerativeHistory []schema.Turn
	Messages          []schema.Message
	PersonaName       string

	Gated         bool
	Authenticated bool
	Exchanges     int // Successful generative exchanges
}

// NewSessionState creates a new session state in the scripted phase.
func NewSessionState(id, personaName string) *SessionState {
	return &SessionState{
		ID:                id,
		Phase:             schema.PhaseScripted,
		PersonaName:       personaName,
		GenerativeHistory: make([]schema.Turn, 0),
		Messages:          make([]schema.Message, 0),
	}
}

// AddMessage appends a message to the chat log.
func (s *SessionState) AddMessage(role schema.Role, kind schema.Kind, text string) schema.Message {
	id, err := schema.NewMessageID()
	if err != nil {
		id = fmt.Sprintf("MSG-%d", len(s.Messages)+1)
	}

	msg := schema.Message{
		ID:        id,
		Role:      role,
		Text:      text,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	s.Messages = append(s.Messages, msg)
	return msg
}

// Clone creates a deep copy of the session state.
func (s *SessionState) Clone() *SessionState {
	clone := *s
	clone.GenerativeHistory = make([]schema.Turn, len(s.GenerativeHistory))
	clone.Messages = make([]schema.Message, len(s.Messages))

	copy(clone.GenerativeHistory, s.GenerativeHistory)
	copy(clone.Messages, s.Messages)

	return &clone
}

// Transcript returns an exportable copy of the chat log.
func (s *SessionState) Transcript() *schema.Transcript {
	clone := s.Clone()
	return &schema.Transcript{
		SessionID:   clone.ID,
		PersonaName: clone.PersonaName,
		Phase:       clone.Phase,
		Profile:     clone.Profile,
		Messages:    clone.Messages,
		ExportedAt:  time.Now().UTC(),
	}
}
