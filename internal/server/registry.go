package server

import (
	"context"
	"sync"
	"time"

	"aimigo/internal/core"
	"aimigo/internal/repository"
	"aimigo/pkg/schema"
)

// ControllerFactory builds a controller whose state changes go to observer.
type ControllerFactory func(observer func(core.Snapshot)) (*core.Controller, error)

// Registry tracks the open widget sessions of this process. Handles are
// stable across resets, unlike the session ids inside snapshots.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	factory ControllerFactory
	hub     *Hub
	repo    *repository.Repository // nil disables transcript export
	idleTTL time.Duration
	logger  core.Logger
	now     func() time.Time
}

type entry struct {
	ctrl     *core.Controller
	lastSeen time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(factory ControllerFactory, hub *Hub, repo *repository.Repository, idleTTL time.Duration, logger core.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		hub:      hub,
		repo:     repo,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Open creates a session and returns its handle.
func (r *Registry) Open() (string, *core.Controller, error) {
	handle, err := schema.NewSessionID()
	if err != nil {
		return "", nil, err
	}

	ctrl, err := r.factory(func(s core.Snapshot) {
		r.hub.Publish(handle, s)
	})
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.sessions[handle] = &entry{ctrl: ctrl, lastSeen: r.now()}
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("widget session opened", "handle", handle, "open_sessions", count)
	return handle, ctrl, nil
}

// Get returns the controller for handle and marks it active.
func (r *Registry) Get(handle string) (*core.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[handle]
	if !ok {
		return nil, core.ErrUnknownSession
	}
	e.lastSeen = r.now()
	return e.ctrl, nil
}

// Remove closes a session and forgets it.
func (r *Registry) Remove(handle string) error {
	r.mu.Lock()
	e, ok := r.sessions[handle]
	delete(r.sessions, handle)
	r.mu.Unlock()

	if !ok {
		return core.ErrUnknownSession
	}
	r.close(handle, e.ctrl)
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	idle := make(map[string]*entry)
	for handle, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			idle[handle] = e
			delete(r.sessions, handle)
		}
	}
	r.mu.Unlock()

	for handle, e := range idle {
		r.logger.Info("closing idle session", "handle", handle)
		r.close(handle, e.ctrl)
	}
	return len(idle)
}

// RunSweeper sweeps at interval until ctx ends.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for handle, e := range all {
		r.close(handle, e.ctrl)
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) close(handle string, ctrl *core.Controller) {
	ctrl.Close()
	r.hub.CloseSession(handle)

	if r.repo == nil {
		return
	}
	path, err := r.repo.SaveTranscript(ctrl.Transcript())
	if err != nil {
		r.logger.Warn("transcript export failed", "handle", handle, "error", err)
		return
	}
	r.logger.Debug("transcript exported", "handle", handle, "path", path)
}
