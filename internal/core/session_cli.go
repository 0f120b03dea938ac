package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"aimigo/internal/llm"
	"aimigo/internal/repository"
	"aimigo/pkg/schema"
)

// CLISession manages an interactive terminal chat.
type CLISession struct {
	Controller *Controller

	// TranscriptPath, when set, receives the chat log on exit.
	TranscriptPath string

	in  io.Reader
	out io.Writer

	mu        sync.Mutex
	sessionID string
	status    string
	printed   int
	changed   chan struct{}
}

// NewCLISession creates a terminal chat over in and out.
func NewCLISession(gen llm.Generator, in io.Reader, out io.Writer, opts ...Option) (*CLISession, error) {
	s := &CLISession{
		in:      in,
		out:     out,
		changed: make(chan struct{}, 1),
	}

	c, err := NewController(gen, append(opts, WithObserver(s.render))...)
	if err != nil {
		return nil, err
	}
	s.Controller = c
	return s, nil
}

// Run executes the interactive loop until input ends, /quit is typed or ctx
// is canceled.
func (s *CLISession) Run(ctx context.Context) error {
	defer s.Controller.Close()

	fmt.Fprintln(s.out, "Commands: /reset starts over, /login signs in, /quit leaves.")

	scanner := bufio.NewScanner(s.in)
	for {
		if err := s.waitForInput(ctx); err != nil {
			return s.finish(err)
		}

		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			return s.finish(nil)
		case "/reset":
			if err := s.Controller.Reset(); err != nil {
				return s.finish(err)
			}
			continue
		case "/login":
			if err := s.Controller.Authenticate(); err != nil {
				return s.finish(err)
			}
			fmt.Fprintln(s.out, "🔓 Signed in")
			continue
		}

		err := s.Controller.Submit(ctx, line)
		switch {
		case err == nil, errors.Is(err, ErrEmptyInput):
		case errors.Is(err, ErrGated):
			fmt.Fprintln(s.out, "🔒 Type /login to keep talking")
		case IsRejection(err):
			fmt.Fprintf(s.out, "⏳ %v\n", err)
		case errors.Is(err, ErrClosed):
			return s.finish(nil)
		default:
			fmt.Fprintf(s.out, "⚠️  %v\n", err)
		}
	}

	return s.finish(scanner.Err())
}

// waitForInput blocks while the session is busy with scheduled messages or
// a generation call.
func (s *CLISession) waitForInput(ctx context.Context) error {
	for {
		if !s.Controller.Snapshot().Waiting() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.changed:
		}
	}
}

func (s *CLISession) finish(err error) error {
	if s.TranscriptPath != "" {
		if werr := repository.WriteTranscript(s.TranscriptPath, s.Controller.Transcript()); werr != nil {
			return errors.Join(err, fmt.Errorf("export transcript: %w", werr))
		}
		fmt.Fprintf(s.out, "📝 Transcript written to %s\n", s.TranscriptPath)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// render prints messages the terminal has not shown yet.
func (s *CLISession) render(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.SessionID != s.sessionID {
		if s.sessionID != "" {
			fmt.Fprintln(s.out, "\n🌀 New session")
		}
		s.sessionID = snap.SessionID
		s.printed = 0
		s.status = ""
	}

	if snap.Status != s.status {
		fmt.Fprintf(s.out, "── %s · %s ──\n", snap.Title, snap.Status)
		s.status = snap.Status
	}

	for ; s.printed < len(snap.Messages); s.printed++ {
		fmt.Fprintln(s.out, formatMessage(snap.Messages[s.printed], snap.Title))
	}

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func formatMessage(m schema.Message, speaker string) string {
	switch {
	case m.IsNotice():
		return "   " + m.Text
	case m.Role == schema.RoleUser:
		return "🙂 You: " + m.Text
	default:
		return fmt.Sprintf("✨ %s: %s", speaker, m.Text)
	}
}
