package llm

import (
	"errors"
	"fmt"
)

// LLMError represents an error from a generation backend.
type LLMError struct {
	// Type categorizes the error
	Type string

	// Message is a human-readable error message
	Message string

	// Code is the HTTP status code (if applicable)
	Code int

	// Err is the underlying error
	Err error
}

// Error types.
const (
	ErrorTypeConfiguration = "configuration"
	ErrorTypeTransport     = "transport"
	ErrorTypeRemote        = "remote"
	ErrorTypeMalformed     = "malformed"
)

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("LLM %s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("LLM %s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error. These are fatal for
// the session: retrying cannot succeed until the operator fixes the setup.
func NewConfigurationError(message string) *LLMError {
	return &LLMError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// NewTransportError creates a transport error.
func NewTransportError(err error) *LLMError {
	return &LLMError{
		Type:    ErrorTypeTransport,
		Message: "Failed to reach the generation service. Check your network connection.",
		Err:     err,
	}
}

// NewRemoteError creates a remote service error with status code.
func NewRemoteError(code int, message string) *LLMError {
	return &LLMError{
		Type:    ErrorTypeRemote,
		Code:    code,
		Message: fmt.Sprintf("generation service error: %s", message),
	}
}

// NewMalformedError creates a malformed response error.
func NewMalformedError(content string, err error) *LLMError {
	return &LLMError{
		Type:    ErrorTypeMalformed,
		Message: fmt.Sprintf("Failed to parse generation response: %s", truncate(content, 200)),
		Err:     err,
	}
}

// ErrorType returns the LLMError type found in err's chain, or "" if none.
func ErrorType(err error) string {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ""
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return ErrorType(err) == ErrorTypeConfiguration
}

// IsMalformed reports whether err is a malformed response error.
func IsMalformed(err error) bool {
	return ErrorType(err) == ErrorTypeMalformed
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
