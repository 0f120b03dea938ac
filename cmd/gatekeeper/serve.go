package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aimigo/internal/core"
	"aimigo/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the widget's session API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		port := servePort
		if port == "" {
			port = rt.cfg.Port
		}

		factory := func(observer func(core.Snapshot)) (*core.Controller, error) {
			return core.NewController(rt.gen, append(rt.controllerOptions(), core.WithObserver(observer))...)
		}

		srv := server.New(factory, server.Options{
			Addr:           net.JoinHostPort("", port),
			JWTSecret:      rt.cfg.AuthJWTSecret,
			SessionIdleTTL: rt.cfg.SessionIdleTTL,
			TranscriptDir:  rt.cfg.TranscriptDir,
			Logger:         rt.logger,
		})
		if rt.cfg.AuthJWTSecret == "" {
			rt.logger.Warn("AUTH_JWT_SECRET is not set; authenticate accepts every request")
		}

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (default: $PORT or 8080)")
}
