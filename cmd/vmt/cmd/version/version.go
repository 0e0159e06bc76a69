package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X vm-transcriber/cmd/vmt/cmd/version.version=..."
var version = "v0.1.0"

// Cmd represents the version command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vmt",
	Long:  `All software has versions. This is vmt's.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}
