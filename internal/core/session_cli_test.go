package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"aimigo/internal/llm"
	"aimigo/pkg/schema"
)

// syncBuffer guards a bytes.Buffer written from timer goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fastScript keeps the real scheduler but shrinks every delay.
func fastScript() schema.Script {
	s := schema.DefaultScript()
	s.Timing = schema.Timing{
		TurnDelay: time.Millisecond,
		Notices:   []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
		Handoff:   4 * time.Millisecond,
	}
	return s
}

func cliInput(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestNewCLISession(t *testing.T) {
	out := &syncBuffer{}
	session, err := NewCLISession(&llm.MockGenerator{}, strings.NewReader(""), out, WithPersonaName("Nyx-7"))
	require.NoError(t, err)
	defer session.Controller.Close()

	assert.NotNil(t, session.Controller)
	assert.Contains(t, out.String(), "── The Gatekeeper · AmoAi Portal ──")
	assert.Contains(t, out.String(), "✨ The Gatekeeper: I am the Gatekeeper.")
}

func TestNewCLISession_InvalidScript(t *testing.T) {
	bad := schema.DefaultScript()
	bad.Greeting = ""

	_, err := NewCLISession(&llm.MockGenerator{}, strings.NewReader(""), &syncBuffer{}, WithScript(bad))
	assert.Error(t, err)
}

func TestCLISession_Run_FullConversation(t *testing.T) {
	gen := &llm.MockGenerator{Response: "ugh, traffic. same here in Xorld."}
	out := &syncBuffer{}
	in := cliInput("engineer", "stress", "promotion", "hiking", "traffic", "long day", "/quit")

	session, err := NewCLISession(gen, in, out, WithScript(fastScript()), WithPersonaName("Nyx-7"))
	require.NoError(t, err)

	require.NoError(t, session.Run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "🙂 You: engineer")
	assert.Contains(t, output, "✨ The Gatekeeper: What do you dislike or avoid?")
	assert.Contains(t, output, "✨ The Gatekeeper: I have seen enough. Your soul speaks clearly.")
	assert.Contains(t, output, "   ⦿ MATCH FOUND — Nyx-7 from Xorld. Connection established.")
	assert.Contains(t, output, "── Nyx-7 · Xorld • Online ──")
	assert.Contains(t, output, "✨ Nyx-7: hey! the Gatekeeper just told me about you...")
	assert.Contains(t, output, "✨ Nyx-7: ugh, traffic. same here in Xorld.")
	assert.NotContains(t, output, "⏳", "the loop waits instead of submitting too early")

	assert.Equal(t, 1, gen.CallCount())
	assert.True(t, session.Controller.Snapshot().Closed)
}

func TestCLISession_Run_ResetAndGate(t *testing.T) {
	script := fastScript()
	script.Variant.GateAfter = 1
	gen := &llm.MockGenerator{Response: "nice"}
	out := &syncBuffer{}
	in := cliInput(
		"engineer", "stress", "promotion", "hiking", "traffic",
		"first", "second", "/login", "third",
		"/reset", "",
	)

	session, err := NewCLISession(gen, in, out, WithScript(script), WithPersonaName("Nyx-7"))
	require.NoError(t, err)

	require.NoError(t, session.Run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "🔒 Type /login to keep talking")
	assert.Contains(t, output, "🔓 Signed in")
	assert.Contains(t, output, "🙂 You: third")
	assert.Contains(t, output, "🌀 New session")
	assert.Equal(t, 2, gen.CallCount())
	assert.Equal(t, schema.PhaseScripted, session.Controller.Snapshot().Phase)
}

func TestCLISession_Run_WritesTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	in := cliInput("engineer", "stress")

	session, err := NewCLISession(&llm.MockGenerator{}, in, &syncBuffer{}, WithScript(fastScript()), WithPersonaName("Nyx-7"))
	require.NoError(t, err)
	session.TranscriptPath = path

	require.NoError(t, session.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var tr schema.Transcript
	require.NoError(t, yaml.Unmarshal(data, &tr))
	assert.Equal(t, "Nyx-7", tr.PersonaName)
	assert.Equal(t, "engineer", tr.Profile.Work)
	assert.Equal(t, "stress", tr.Profile.Struggles)
	assert.Equal(t, schema.PhaseScripted, tr.Phase)
}

func TestCLISession_Run_ContextCanceled(t *testing.T) {
	script := schema.DefaultScript()
	script.Timing.Handoff = time.Hour
	in := cliInput("engineer", "stress", "promotion", "hiking", "traffic", "hello")

	session, err := NewCLISession(&llm.MockGenerator{}, in, &syncBuffer{},
		WithScript(script), WithScheduler(NewManualScheduler()))
	require.NoError(t, err)

	// Questions never arrive under a manual clock, so Run blocks after the first answer
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, session.Run(ctx))
	assert.Equal(t, 1, session.Controller.Snapshot().ScriptStep)
}
