package clean

import (
	"fmt"

	"github.com/spf13/cobra"

	"vm-transcriber/cmd/vmt/cmd/cli"
	"vm-transcriber/internal/app"
)

var yes bool

func init() {
	Cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every record")
}

// Cmd represents the clean command
var Cmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every recorded transcription",
	Long: `Delete every recorded transcription from the database.

- Messages transcribed before are transcribed again on the next request
- Requires --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !yes {
			return fmt.Errorf("refusing to clean without --yes")
		}
		settings, err := cli.LoadStoreSettings()
		if err != nil {
			return err
		}
		sink, err := cli.OpenSink(settings)
		if err != nil {
			return err
		}
		defer sink.Close()

		store, err := app.OpenDurableStore(cmd.Context(), settings, sink.Named("clean"))
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.Clean(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "clean finished, removed %d records\n", removed)
		return nil
	},
}
