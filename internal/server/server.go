package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"aimigo/internal/core"
	"aimigo/internal/repository"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP surface of the widget.
type Server struct {
	Registry *Registry
	Hub      *Hub

	http   *http.Server
	logger core.Logger
}

// Options configure New.
type Options struct {
	Addr           string
	JWTSecret      string
	SessionIdleTTL time.Duration
	TranscriptDir  string
	Logger         core.Logger
}

// New creates a server whose sessions are built by factory.
func New(factory ControllerFactory, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger()
	}

	var repo *repository.Repository
	if opts.TranscriptDir != "" {
		repo = repository.NewRepository(opts.TranscriptDir)
	}

	hub := NewHub(logger)
	registry := NewRegistry(factory, hub, repo, opts.SessionIdleTTL, logger)
	handler := NewHandler(registry, hub, NewAuthenticator(opts.JWTSecret), logger)

	return &Server{
		Registry: registry,
		Hub:      hub,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx ends, then shuts down and closes every session.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if ttl := s.Registry.idleTTL; ttl > 0 {
		go s.Registry.RunSweeper(sweepCtx, sweepInterval(ttl))
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Registry.CloseAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.Registry.CloseAll()
	return err
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}
