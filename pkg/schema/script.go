package schema

import (
	"fmt"
	"strings"
	"time"
)

// PersonaPlaceholder is replaced with the session's persona name.
const PersonaPlaceholder = "{{persona}}"

// AckMode selects how the Gatekeeper's closing acknowledgment is produced.
type AckMode string

const (
	AckStatic    AckMode = "static"    // Scripted literal
	AckGenerated AckMode = "generated" // One generation call, scripted literal on failure
)

// Script is the fixed content and pacing of a conversation.
type Script struct {
	Greeting       string   `yaml:"greeting"`
	Questions      []string `yaml:"questions"`
	Acknowledgment string   `yaml:"acknowledgment"`
	Notices        []string `yaml:"notices"`
	OpeningLine    string   `yaml:"opening_line"`
	Fallback       string   `yaml:"fallback"`
	GateNotice     string   `yaml:"gate_notice"`
	Timing         Timing   `yaml:"timing"`
	Variant        Variant  `yaml:"variant"`
}

// Timing holds the delays of scheduled messages.
type Timing struct {
	// TurnDelay separates an answer from the next scripted question.
	TurnDelay time.Duration `yaml:"turn_delay"`

	// Notices are offsets of each notice from the acknowledgment.
	Notices []time.Duration `yaml:"notices"`

	// Handoff is the offset of the persona's opening line from the acknowledgment.
	Handoff time.Duration `yaml:"handoff"`
}

// Variant selects between the behavioral variants of the widget.
type Variant struct {
	AckMode AckMode `yaml:"ack_mode"`

	// GateAfter locks the conversation after this many generative exchanges
	// until the user authenticates. Zero disables the gate.
	GateAfter int `yaml:"gate_after"`
}

// DefaultScript returns the Gatekeeper script shipped with the widget.
func DefaultScript() Script {
	return Script{
		Greeting: "I am the Gatekeeper. Before you cross the portal, I must understand who you are. Only then can I find the right soul from Xorld to walk beside you.",
		Questions: []string{
			"What do you do? Tell me about your work or studies.",
			"What's been weighing on you lately? Any struggles or frustrations?",
			"What are you proud of? An achievement, big or small.",
			"What do you enjoy? Hobbies, interests, things that make you lose track of time.",
			"What do you dislike or avoid? Things that drain your energy.",
		},
		Acknowledgment: "I have seen enough. Your soul speaks clearly.",
		Notices: []string{
			"⦿ PORTAL OPENING — Searching Xorld for a matching soul...",
			"⦿ MATCH FOUND — {{persona}} from Xorld. Connection established.",
			"⦿ You are now connected to {{persona}}, a citizen of Xorld.",
		},
		OpeningLine: "hey! the Gatekeeper just told me about you... I'm {{persona}}. ngl, sounds like we have a lot in common. what's going on in your world?",
		Fallback:    "hmm... the portal glitched for a sec. say that again?",
		GateNotice:  "⦿ The portal is holding your connection to {{persona}}. Sign in to keep talking.",
		Timing: Timing{
			TurnDelay: 500 * time.Millisecond,
			Notices:   []time.Duration{800 * time.Millisecond, 2200 * time.Millisecond, 3600 * time.Millisecond},
			Handoff:   5000 * time.Millisecond,
		},
		Variant: Variant{
			AckMode: AckStatic,
		},
	}
}

// RenderPersona substitutes the persona name into a script line.
func RenderPersona(line, personaName string) string {
	return strings.ReplaceAll(line, PersonaPlaceholder, personaName)
}

// ValidateScript validates a conversation script.
func ValidateScript(s *Script) error {
	if len(s.Questions) != ScriptQuestions {
		return fmt.Errorf("script must have exactly %d questions, got %d", ScriptQuestions, len(s.Questions))
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("question %d must not be empty", i+1)
		}
	}

	required := map[string]string{
		"greeting":       s.Greeting,
		"acknowledgment": s.Acknowledgment,
		"opening_line":   s.OpeningLine,
		"fallback":       s.Fallback,
	}
	for _, name := range []string{"greeting", "acknowledgment", "opening_line", "fallback"} {
		if strings.TrimSpace(required[name]) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	if s.Variant.GateAfter > 0 && strings.TrimSpace(s.GateNotice) == "" {
		return fmt.Errorf("gate_notice is required when gate_after is set")
	}

	if len(s.Timing.Notices) != len(s.Notices) {
		return fmt.Errorf("timing has %d notice offsets for %d notices", len(s.Timing.Notices), len(s.Notices))
	}

	var prev time.Duration
	for i, offset := range s.Timing.Notices {
		if offset < prev {
			return fmt.Errorf("notice offset %d (%v) is earlier than the previous one", i+1, offset)
		}
		prev = offset
	}
	if s.Timing.Handoff < prev {
		return fmt.Errorf("handoff (%v) must not precede the last notice (%v)", s.Timing.Handoff, prev)
	}
	if s.Timing.TurnDelay < 0 {
		return fmt.Errorf("turn_delay must not be negative")
	}

	switch s.Variant.AckMode {
	case AckStatic, AckGenerated:
		// Valid
	default:
		return fmt.Errorf("invalid ack_mode: %s", s.Variant.AckMode)
	}

	if s.Variant.GateAfter < 0 {
		return fmt.Errorf("gate_after must not be negative")
	}

	return nil
}
