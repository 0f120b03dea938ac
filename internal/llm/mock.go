package llm

import (
	"context"
	"sync"

	"aimigo/pkg/schema"
)

// MockGenerator is a mock Generator for testing.
type MockGenerator struct {
	mu sync.Mutex

	Response string // The response to return
	Error    error  // Error to return (if any)

	// Block, when set, makes Generate wait until it is closed or ctx ends.
	Block chan struct{}

	Calls         int
	LastPrompt    string
	LastHistory   []schema.Turn
	InFlight      int
	MaxInFlight   int
	ResponseQueue []string // Served before Response, one per call
}

// Generate mocks a generation call.
func (m *MockGenerator) Generate(ctx context.Context, systemPrompt string, history []schema.Turn) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.InFlight++
	if m.InFlight > m.MaxInFlight {
		m.MaxInFlight = m.InFlight
	}
	m.LastPrompt = systemPrompt
	m.LastHistory = append([]schema.Turn(nil), history...)
	block := m.Block
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.InFlight--
		m.mu.Unlock()
	}()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", NewTransportError(ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

// CallCount returns the number of Generate calls so far.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// PeakInFlight returns the highest number of concurrent Generate calls.
func (m *MockGenerator) PeakInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MaxInFlight
}

// SetError changes the error returned by later calls.
func (m *MockGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err
}
