package core

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"aimigo/internal/llm"
	"aimigo/pkg/schema"
)

const (
	gatekeeperTitle    = "The Gatekeeper"
	statusScripted     = "AmoAi Portal"
	statusTransition   = "Opening portal..."
	statusGenerative   = "Xorld • Online"
	placeholderScript  = "Answer the Gatekeeper..."
	placeholderPortal  = "Portal opening..."
	placeholderGated   = "Sign in to keep talking..."
	ackCompletionInput = "I have answered all of your questions."
)

// Snapshot is a read-only copy of a session for renderers.
type Snapshot struct {
	SessionID    string               `json:"session_id"`
	Version      uint64               `json:"version"`
	Phase        schema.Phase         `json:"phase"`
	ScriptStep   int                  `json:"script_step"`
	Profile      schema.IntakeProfile `json:"profile"`
	PersonaName  string               `json:"persona_name,omitempty"`
	Messages     []schema.Message     `json:"messages"`
	History      []schema.Turn        `json:"-"`
	Busy         bool                 `json:"busy"`
	Gated        bool                 `json:"gated"`
	Closed       bool                 `json:"closed"`
	AcceptsInput bool                 `json:"accepts_input"`
	Title        string               `json:"title"`
	Status       string               `json:"status"`
	Placeholder  string               `json:"placeholder"`
}

// Waiting reports whether the session will change on its own without input.
func (s Snapshot) Waiting() bool {
	return !s.Closed && !s.AcceptsInput && !s.Gated
}

// Option configures a Controller.
type Option func(*Controller)

// WithScript replaces the built-in script.
func WithScript(s schema.Script) Option {
	return func(c *Controller) { c.script = s }
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithObserver registers a callback invoked with a snapshot after every
// state change. Calls are serialized in version order. The observer must not
// call back into the controller.
func WithObserver(f func(Snapshot)) Option {
	return func(c *Controller) { c.observer = f }
}

// WithPersonaName fixes the persona name instead of drawing one per session.
func WithPersonaName(name string) Option {
	return func(c *Controller) { c.fixedPersona = name }
}

// WithRand sets the random source used to draw persona names.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// Controller drives one conversation through the scripted intake, the
// transition notices and the generative exchange with the persona.
type Controller struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	gen          llm.Generator
	script       schema.Script
	sched        Scheduler
	logger       Logger
	observer     func(Snapshot)
	rng          *rand.Rand
	fixedPersona string

	state           *SessionState
	busy            bool
	questionPending bool
	closed          bool
	configErrLogged bool
	version         uint64

	// epoch changes on Reset and Close; work started under an older epoch
	// is discarded.
	epoch  uint64
	ctx    context.Context
	cancel context.CancelFunc
	timers []Timer
}

// NewController opens a session and emits the greeting and first question.
func NewController(gen llm.Generator, opts ...Option) (*Controller, error) {
	c := &Controller{
		gen:    gen,
		script: schema.DefaultScript(),
		sched:  NewScheduler(),
		logger: NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = newSessionRand()
	}

	if gen == nil {
		return nil, &ValidationError{Field: "generator", Message: "is required"}
	}
	if err := schema.ValidateScript(&c.script); err != nil {
		return nil, &ValidationError{Field: "script", Message: err.Error(), Err: err}
	}

	c.mu.Lock()
	c.openLocked()
	c.commitLocked()
	return c, nil
}

// openLocked starts a fresh session under a new epoch.
func (c *Controller) openLocked() {
	c.epoch++
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.busy = false
	c.questionPending = false

	id, err := schema.NewSessionID()
	if err != nil {
		c.logger.Warn("session id generation failed", "error", err)
		id = "SES-local"
	}

	persona := c.fixedPersona
	if persona == "" {
		persona = PersonaName(c.rng)
	}

	c.state = NewSessionState(id, persona)
	c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, c.script.Greeting)
	c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, c.script.Questions[0])

	c.logger.Info("session opened", "session_id", id, "persona", persona)
}

// stopLocked cancels every timer and abandons any in-flight call.
func (c *Controller) stopLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	if c.cancel != nil {
		c.cancel()
	}
}

// Submit hands one line of user input to the session.
//
// Rejected input returns one of the package's sentinel errors and leaves the
// session unchanged. Generation failures are never returned; they surface as
// the scripted fallback message.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if err := schema.ValidateUserText(text); err != nil {
		return &ValidationError{Field: "text", Message: err.Error(), Err: err}
	}

	c.mu.Lock()
	if err := c.admitLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	if c.state.Phase == schema.PhaseScripted {
		return c.answerLocked(ctx, text)
	}
	return c.exchangeLocked(ctx, text)
}

func (c *Controller) admitLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.state.Phase == schema.PhaseTransitioning:
		return ErrNotAcceptingInput
	case c.busy:
		return ErrCallInFlight
	case c.questionPending:
		return ErrTurnPending
	case c.state.Gated:
		return ErrGated
	}
	return nil
}

// answerLocked records a scripted answer. Called with c.mu held; releases it.
func (c *Controller) answerLocked(ctx context.Context, text string) error {
	key := schema.ProfileKeys[c.state.ScriptStep]
	if err := c.state.Profile.Set(key, text); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.AddMessage(schema.RoleUser, schema.KindDialogue, text)
	c.state.ScriptStep++

	c.logger.Debug("intake answer recorded", "session_id", c.state.ID, "key", key, "step", c.state.ScriptStep)

	if c.state.ScriptStep < len(c.script.Questions) {
		question := c.script.Questions[c.state.ScriptStep]
		c.questionPending = true
		c.afterLocked(c.script.Timing.TurnDelay, func() {
			c.questionPending = false
			c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, question)
		})
		c.commitLocked()
		return nil
	}

	c.state.Phase = schema.PhaseTransitioning
	c.logger.Info("intake complete", "session_id", c.state.ID)

	if c.script.Variant.AckMode != schema.AckGenerated {
		c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, c.script.Acknowledgment)
		c.scheduleHandoffLocked()
		c.commitLocked()
		return nil
	}

	c.busy = true
	epoch := c.epoch
	callCtx, cancel := c.callContextLocked(ctx)
	prompt := llm.BuildAcknowledgmentPrompt(c.state.Profile)
	c.commitLocked()

	reply, err := c.gen.Generate(callCtx, prompt, []schema.Turn{{Role: schema.RoleUser, Text: ackCompletionInput}})
	cancel()

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	c.busy = false

	ack := strings.TrimSpace(reply)
	if err != nil || ack == "" || ack == llm.EmptyResponse {
		if err != nil {
			c.reportFailureLocked(err)
		}
		ack = c.script.Acknowledgment
	}
	c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, ack)
	c.scheduleHandoffLocked()
	c.commitLocked()
	return nil
}

// scheduleHandoffLocked queues the transition notices and the persona's entry.
func (c *Controller) scheduleHandoffLocked() {
	persona := c.state.PersonaName

	for i, notice := range c.script.Notices {
		text := schema.RenderPersona(notice, persona)
		c.afterLocked(c.script.Timing.Notices[i], func() {
			c.state.AddMessage(schema.RoleAssistant, schema.KindSystemNotice, text)
		})
	}

	opening := schema.RenderPersona(c.script.OpeningLine, persona)
	c.afterLocked(c.script.Timing.Handoff, func() {
		c.state.Phase = schema.PhaseGenerative
		c.state.GenerativeHistory = append(c.state.GenerativeHistory, schema.Turn{Role: schema.RoleAssistant, Text: opening})
		c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, opening)
		c.logger.Info("persona connected", "session_id", c.state.ID, "persona", persona)
	})
}

// exchangeLocked runs one generative exchange. Called with c.mu held; releases it.
func (c *Controller) exchangeLocked(ctx context.Context, text string) error {
	c.state.AddMessage(schema.RoleUser, schema.KindDialogue, text)

	userTurn := schema.Turn{Role: schema.RoleUser, Text: text}
	history := make([]schema.Turn, 0, len(c.state.GenerativeHistory)+1)
	history = append(history, c.state.GenerativeHistory...)
	history = append(history, userTurn)
	prompt := llm.BuildPersonaPrompt(c.state.Profile, c.state.PersonaName)

	c.busy = true
	epoch := c.epoch
	callCtx, cancel := c.callContextLocked(ctx)
	c.commitLocked()

	reply, err := c.gen.Generate(callCtx, prompt, history)
	cancel()

	c.mu.Lock()
	if c.epoch != epoch {
		// Reset or closed while the call was outstanding
		c.mu.Unlock()
		return nil
	}
	c.busy = false

	if err != nil && llm.IsMalformed(err) {
		c.logger.Warn("malformed generation response", "session_id", c.state.ID, "error", err)
		reply, err = llm.EmptyResponse, nil
	}

	if err != nil {
		c.reportFailureLocked(err)
		c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, c.script.Fallback)
		c.commitLocked()
		return nil
	}

	c.state.GenerativeHistory = append(c.state.GenerativeHistory, userTurn, schema.Turn{Role: schema.RoleAssistant, Text: reply})
	c.state.AddMessage(schema.RoleAssistant, schema.KindDialogue, reply)
	c.state.Exchanges++

	if gate := c.script.Variant.GateAfter; gate > 0 && c.state.Exchanges >= gate && !c.state.Authenticated {
		c.state.Gated = true
		c.state.AddMessage(schema.RoleAssistant, schema.KindSystemNotice, schema.RenderPersona(c.script.GateNotice, c.state.PersonaName))
		c.logger.Info("session gated", "session_id", c.state.ID, "exchanges", c.state.Exchanges)
	}

	c.commitLocked()
	return nil
}

// callContextLocked derives the context of a generation call. It ends when
// either the caller's context or the session epoch ends.
func (c *Controller) callContextLocked(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) reportFailureLocked(err error) {
	if llm.IsConfiguration(err) {
		if !c.configErrLogged {
			c.configErrLogged = true
			c.logger.Error("generation backend is not configured", "session_id", c.state.ID, "error", err)
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		c.logger.Debug("generation canceled", "session_id", c.state.ID)
		return
	}
	c.logger.Warn("generation failed", "session_id", c.state.ID, "type", llm.ErrorType(err), "error", err)
}

// afterLocked schedules f to run under the lock in the current epoch.
func (c *Controller) afterLocked(d time.Duration, f func()) {
	epoch := c.epoch
	t := c.sched.AfterFunc(d, func() {
		c.mu.Lock()
		if c.closed || c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		f()
		c.commitLocked()
	})
	c.timers = append(c.timers, t)
}

// commitLocked bumps the version, releases c.mu and notifies the observer.
func (c *Controller) commitLocked() {
	c.version++
	if c.observer == nil {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	c.observer(snap)
}

// Reset abandons the current session and opens a new one with a new persona.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	old := c.state.ID
	c.stopLocked()
	c.openLocked()
	c.logger.Info("session reset", "previous_session_id", old, "session_id", c.state.ID)
	c.commitLocked()
	return nil
}

// Close cancels pending timers and abandons any in-flight call. Results that
// arrive afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.busy = false
	c.questionPending = false
	c.stopLocked()
	c.epoch++
	c.logger.Info("session closed", "session_id", c.state.ID)
	c.commitLocked()
}

// Authenticate lifts the gate. Later exchanges are never gated again.
func (c *Controller) Authenticate() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	wasGated := c.state.Gated
	c.state.Gated = false
	c.state.Authenticated = true
	if wasGated {
		c.logger.Info("session ungated", "session_id", c.state.ID)
	}
	c.commitLocked()
	return nil
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Transcript returns an exportable copy of the chat log.
func (c *Controller) Transcript() *schema.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Transcript()
}

func (c *Controller) snapshotLocked() Snapshot {
	st := c.state.Clone()
	snap := Snapshot{
		SessionID:  st.ID,
		Version:    c.version,
		Phase:      st.Phase,
		ScriptStep: st.ScriptStep,
		Profile:    st.Profile,
		Messages:   st.Messages,
		History:    st.GenerativeHistory,
		Busy:       c.busy,
		Gated:      st.Gated,
		Closed:     c.closed,
	}
	snap.AcceptsInput = c.admitLocked() == nil

	switch st.Phase {
	case schema.PhaseGenerative:
		snap.PersonaName = st.PersonaName
		snap.Title = st.PersonaName
		snap.Status = statusGenerative
		snap.Placeholder = "Message " + st.PersonaName + "..."
		if st.Gated {
			snap.Placeholder = placeholderGated
		}
	case schema.PhaseTransitioning:
		snap.Title = gatekeeperTitle
		snap.Status = statusTransition
		snap.Placeholder = placeholderPortal
	default:
		snap.Title = gatekeeperTitle
		snap.Status = statusScripted
		snap.Placeholder = placeholderScript
	}
	return snap
}
