package schema

import "time"

// Message is one entry of the session's chat log.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Text      string    `json:"text" yaml:"text"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IsNotice reports whether the message is a system notice.
func (m Message) IsNotice() bool {
	return m.Kind == KindSystemNotice
}

// Turn is one exchange unit sent to the generation service.
type Turn struct {
	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}
