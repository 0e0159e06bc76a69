package lookup

import (
	"fmt"

	"github.com/spf13/cobra"

	"vm-transcriber/cmd/vmt/cmd/cli"
	"vm-transcriber/internal/app"
)

// Cmd represents the lookup command
var Cmd = &cobra.Command{
	Use:   "lookup <message-id>",
	Short: "Print the transcription reply link recorded for a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := cli.LoadStoreSettings()
		if err != nil {
			return err
		}
		sink, err := cli.OpenSink(settings)
		if err != nil {
			return err
		}
		defer sink.Close()

		store, err := app.OpenDurableStore(cmd.Context(), settings, sink.Named("lookup"))
		if err != nil {
			return err
		}
		defer store.Close()

		link, ok, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no transcription recorded for message %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}
