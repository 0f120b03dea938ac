package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMError_Format(t *testing.T) {
	assert.Equal(t, "LLM remote error (code 503): generation service error: busy", NewRemoteError(503, "busy").Error())
	assert.Equal(t, "LLM configuration error: no key", NewConfigurationError("no key").Error())
}

func TestLLMError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("generate: %w", NewTransportError(cause))

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrorTypeTransport, ErrorType(err))
	assert.Equal(t, "", ErrorType(cause))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsConfiguration(NewConfigurationError("x")))
	assert.False(t, IsConfiguration(NewRemoteError(500, "x")))
	assert.True(t, IsMalformed(NewMalformedError("{", errors.New("eof"))))
	assert.False(t, IsMalformed(nil))
}
