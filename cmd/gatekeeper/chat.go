package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"aimigo/internal/core"
)

var transcriptPath string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the Gatekeeper in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		session, err := core.NewCLISession(rt.gen, cmd.InOrStdin(), cmd.OutOrStdout(), rt.controllerOptions()...)
		if err != nil {
			return err
		}
		session.TranscriptPath = transcriptPath

		return session.Run(ctx)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Write the chat log to this YAML file on exit")
}
