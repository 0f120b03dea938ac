package schema

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultScriptIsValid(t *testing.T) {
	s := DefaultScript()
	if err := ValidateScript(&s); err != nil {
		t.Fatalf("default script should be valid: %v", err)
	}
	if len(s.Questions) != len(ProfileKeys) {
		t.Errorf("one question per profile key expected, got %d questions", len(s.Questions))
	}
}

func TestRenderPersona(t *testing.T) {
	got := RenderPersona("⦿ MATCH FOUND — {{persona}} from Xorld. Bye {{persona}}.", "Vael-X")
	want := "⦿ MATCH FOUND — Vael-X from Xorld. Bye Vael-X."
	if got != want {
		t.Errorf("RenderPersona() = %q, want %q", got, want)
	}
}

func TestValidateScript(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Script)
		wantErr string
	}{
		{"four questions", func(s *Script) { s.Questions = s.Questions[:4] }, "exactly 5 questions"},
		{"blank question", func(s *Script) { s.Questions[2] = "  " }, "question 3"},
		{"no greeting", func(s *Script) { s.Greeting = "" }, "greeting"},
		{"no fallback", func(s *Script) { s.Fallback = "" }, "fallback"},
		{"offset count mismatch", func(s *Script) { s.Timing.Notices = s.Timing.Notices[:2] }, "notice offsets"},
		{"offsets out of order", func(s *Script) { s.Timing.Notices[1] = 100 * time.Millisecond }, "earlier"},
		{"handoff before notices", func(s *Script) { s.Timing.Handoff = time.Second }, "handoff"},
		{"bad ack mode", func(s *Script) { s.Variant.AckMode = "improvised" }, "ack_mode"},
		{"negative gate", func(s *Script) { s.Variant.GateAfter = -1 }, "gate_after"},
		{"gate without notice", func(s *Script) { s.Variant.GateAfter = 1; s.GateNotice = "" }, "gate_notice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScript()
			tt.mutate(&s)
			err := ValidateScript(&s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestScriptYAMLDurations(t *testing.T) {
	input := `
timing:
  turn_delay: 250ms
  notices: [1s, 2s]
  handoff: 3s
variant:
  ack_mode: generated
  gate_after: 1
`
	s := DefaultScript()
	if err := yaml.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if s.Timing.TurnDelay != 250*time.Millisecond {
		t.Errorf("turn_delay = %v", s.Timing.TurnDelay)
	}
	if len(s.Timing.Notices) != 2 || s.Timing.Notices[1] != 2*time.Second {
		t.Errorf("notices = %v", s.Timing.Notices)
	}
	if s.Variant.AckMode != AckGenerated || s.Variant.GateAfter != 1 {
		t.Errorf("variant = %+v", s.Variant)
	}
	if s.Greeting == "" {
		t.Error("fields absent from the file should keep their defaults")
	}
}
