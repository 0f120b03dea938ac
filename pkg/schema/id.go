package schema

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewSessionID generates a new session ID in format SES-{nanoid(12)}.
func NewSessionID() (string, error) {
	id, err := gonanoid.New(12)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SES-%s", id), nil
}

// NewMessageID generates a new message ID in format MSG-{nanoid(10)}.
func NewMessageID() (string, error) {
	id, err := gonanoid.New(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MSG-%s", id), nil
}
