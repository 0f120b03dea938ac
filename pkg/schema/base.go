package schema

// Role identifies who authored a message or turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes conversational messages from interstitial notices.
type Kind string

const (
	KindDialogue     Kind = "dialogue"      // Spoken by the user, the Gatekeeper or the persona
	KindSystemNotice Kind = "system-notice" // Portal status lines shown while transitioning
)

// Phase is the conversation phase of a session.
type Phase string

const (
	PhaseScripted      Phase = "scripted"      // Fixed intake interview
	PhaseTransitioning Phase = "transitioning" // Non-interactive notice sequence
	PhaseGenerative    Phase = "generative"    // Free-form exchange with the persona
)

// Rank orders phases so forward-only movement can be checked.
func (p Phase) Rank() int {
	switch p {
	case PhaseScripted:
		return 0
	case PhaseTransitioning:
		return 1
	case PhaseGenerative:
		return 2
	default:
		return -1
	}
}

// ValidationLimits defines the constraints for various fields.
const (
	MessageTextMax   = 4000
	ProfileAnswerMax = 1000
	ScriptQuestions  = 5
)
