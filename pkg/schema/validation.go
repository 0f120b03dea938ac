package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateUserText checks a user submission after trimming.
func ValidateUserText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("text must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MessageTextMax {
		return fmt.Errorf("text must be at most %d characters", MessageTextMax)
	}
	return nil
}

// ValidateMessage validates a chat log entry.
func ValidateMessage(m *Message) error {
	switch m.Role {
	case RoleUser, RoleAssistant:
		// Valid
	default:
		return fmt.Errorf("invalid role: %s", m.Role)
	}

	switch m.Kind {
	case KindDialogue, KindSystemNotice:
		// Valid
	default:
		return fmt.Errorf("invalid kind: %s", m.Kind)
	}

	if m.Kind == KindSystemNotice && m.Role != RoleAssistant {
		return fmt.Errorf("system notices must have role %s", RoleAssistant)
	}

	if m.Text == "" {
		return fmt.Errorf("text must not be empty")
	}
	return nil
}
