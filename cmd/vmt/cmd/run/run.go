package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vm-transcriber/cmd/vmt/cmd/cli"
	"vm-transcriber/internal/app"
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and transcribe voice messages",
	Long: `Connect to Discord and transcribe voice messages until interrupted.

- SIGINT, SIGTERM or the owner's /exit command start a graceful shutdown
- Transcriptions in progress get bot.shutdown_grace to finish`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cli.LoadSettings()
		if err != nil {
			return err
		}
		sink, err := cli.OpenSink(settings)
		if err != nil {
			return err
		}
		defer sink.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.InitializeApp(ctx, settings, sink)
		if err != nil {
			return err
		}
		return a.Run(ctx)
	},
}
