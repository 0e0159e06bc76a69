// Package cli holds the flags and setup shared by the vmt subcommands.
package cli

import (
	"errors"
	"io/fs"
	"os"

	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/config"
)

var (
	// ConfigPath is the --config flag.
	ConfigPath string
	// Verbose is the --verbose flag.
	Verbose bool
)

// LoadSettings loads the config file. A missing file at the default path
// is not an error; settings then come from the environment alone.
func LoadSettings() (*config.Settings, error) {
	return config.Load(configPath())
}

// LoadStoreSettings loads the config for commands that only open the
// result store; the bot token and recognition backend may be absent.
func LoadStoreSettings() (*config.Settings, error) {
	return config.LoadStore(configPath())
}

func configPath() string {
	if _, err := os.Stat(ConfigPath); errors.Is(err, fs.ErrNotExist) && ConfigPath == "config.yaml" {
		return ""
	}
	return ConfigPath
}

// OpenSink opens the logging sink. --verbose forces debug level on the console.
func OpenSink(settings *config.Settings) (*logging.Sink, error) {
	ls := settings.Logging
	if Verbose {
		ls.Level = "debug"
		ls.Console = true
	}
	return logging.Open(ls, settings.Bot.Development)
}
