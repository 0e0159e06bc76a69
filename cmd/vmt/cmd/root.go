package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vm-transcriber/cmd/vmt/cmd/clean"
	"vm-transcriber/cmd/vmt/cmd/cli"
	"vm-transcriber/cmd/vmt/cmd/lookup"
	"vm-transcriber/cmd/vmt/cmd/run"
	"vm-transcriber/cmd/vmt/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmt",
	Short: "A Discord bot that transcribes voice messages",
	Long: `A Discord bot that transcribes voice messages.
- Voice messages are transcribed automatically, or on demand with the "Transcribe VM" context menu
- Recognition runs on the OpenAI Whisper API or a local whisper.cpp binary
- Each message is transcribed at most once; the reply link is kept in the database.`,
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(run.Cmd)
	rootCmd.AddCommand(lookup.Cmd)
	rootCmd.AddCommand(clean.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringVarP(&cli.ConfigPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&cli.Verbose, "verbose", "V", false, "log at debug level to the console")
}
