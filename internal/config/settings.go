package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "vm-transcriber/internal/app/errors"
)

// APIKeyUnset is the apikey value that means "no key configured".
const APIKeyUnset = "0"

// Settings is the process-wide configuration. It is built once by Load and
// never mutated afterwards; components receive the section they need.
type Settings struct {
	Bot        BotSettings        `yaml:"bot"`
	Transcribe TranscribeSettings `yaml:"transcribe"`
	Database   DatabaseSettings   `yaml:"database"`
	Logging    LoggingSettings    `yaml:"logging"`
	Admin      AdminSettings      `yaml:"admin"`
}

// BotSettings configures the chat gateway side of the process.
type BotSettings struct {
	Token          string        `yaml:"token" validate:"required"`
	OwnerID        string        `yaml:"owner_id"`
	TestingGuildID string        `yaml:"testing_guild_id"`
	Development    bool          `yaml:"development"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" validate:"gte=0"`
	// SourceURL is linked by the opensource command.
	SourceURL string `yaml:"source_url" validate:"omitempty,url"`
}

// TranscribeSettings selects the recognition backend and the auto-transcribe behavior.
type TranscribeSettings struct {
	UseAPI            bool   `yaml:"use_api"`
	APIKey            string `yaml:"apikey"`
	Automatically     bool   `yaml:"automatically"`
	VoiceMessagesOnly bool   `yaml:"voice_messages_only"`
	Workers           int    `yaml:"workers" validate:"gte=1,lte=64"`

	APIModel   string `yaml:"api_model"`
	APIBaseURL string `yaml:"api_base_url" validate:"omitempty,url"`

	WhisperBinary string `yaml:"whisper_binary"`
	WhisperModel  string `yaml:"whisper_model"`
	Language      string `yaml:"language"`
}

// DatabaseSettings configures the durable result store.
type DatabaseSettings struct {
	Enabled        bool          `yaml:"enabled"`
	Required       bool          `yaml:"required"`
	Driver         string        `yaml:"driver" validate:"omitempty,oneof=mysql postgres sqlite3"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"gte=0,lte=65535"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Name           string        `yaml:"name"`
	Path           string        `yaml:"path"`
	MaxConnections int           `yaml:"max_connections" validate:"gte=1,lte=100"`
	CleanOnStart   bool          `yaml:"clean_on_start"`
	Retry          RetrySettings `yaml:"retry"`
}

// RetrySettings bounds connection acquisition retries at the store boundary.
type RetrySettings struct {
	MaxAttempts    uint          `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `yaml:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" validate:"gtefield=InitialBackoff"`
}

// LoggingSettings configures the observability sink.
type LoggingSettings struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// AdminSettings configures the optional admin HTTP server.
type AdminSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// Default returns the settings used when a key is absent from the file.
func Default() Settings {
	return Settings{
		Bot: BotSettings{
			ShutdownGrace: DefaultShutdownGrace,
		},
		Transcribe: TranscribeSettings{
			APIKey:            APIKeyUnset,
			Automatically:     true,
			VoiceMessagesOnly: true,
			Workers:           DefaultWorkers,
			APIModel:          DefaultAPIModel,
			Language:          DefaultLanguage,
		},
		Database: DatabaseSettings{
			Driver:         DefaultDriver,
			MaxConnections: DefaultMaxConnections,
			Retry: RetrySettings{
				MaxAttempts:    DefaultRetryAttempts,
				InitialBackoff: DefaultRetryInitialBackoff,
				MaxBackoff:     DefaultRetryMaxBackoff,
			},
		},
		Logging: LoggingSettings{
			Level:      "warn",
			File:       DefaultLogFile,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
		Admin: AdminSettings{
			Addr: DefaultAdminAddr,
		},
	}
}

// Load reads .env, the YAML file at path (optional when empty), applies
// environment overrides and validates the result for running the bot.
func Load(path string) (*Settings, error) {
	return load(path, Validate)
}

// LoadStore is Load for commands that only touch the result store. Only the
// database and logging sections are validated.
func LoadStore(path string) (*Settings, error) {
	return load(path, ValidateStore)
}

func load(path string, check func(*Settings) error) (*Settings, error) {
	if err := LoadEnv(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, err.Error())
	}

	settings := Default()
	if path != "" {
		if err := readFile(path, &settings); err != nil {
			return nil, err
		}
	}

	applyEnv(&settings)
	normalize(&settings)

	if err := check(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func readFile(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrConfiguration, "read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return apperrors.Wrapf(apperrors.ErrConfiguration, "parse config %s: %v", path, err)
	}
	return nil
}

// Parse decodes YAML settings on top of the defaults without touching the
// environment. It is used by tests and by tooling that embeds a config.
func Parse(data []byte) (*Settings, error) {
	return parse(data, Validate)
}

// ParseStore is Parse with the validation of LoadStore.
func ParseStore(data []byte) (*Settings, error) {
	return parse(data, ValidateStore)
}

func parse(data []byte, check func(*Settings) error) (*Settings, error) {
	settings := Default()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "parse config: %v", err)
	}
	normalize(&settings)
	if err := check(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func normalize(s *Settings) {
	s.Logging.Level = NormalizeLevel(s.Logging.Level)
	if s.Database.Port == 0 {
		switch s.Database.Driver {
		case "mysql":
			s.Database.Port = DefaultMySQLPort
		case "postgres":
			s.Database.Port = DefaultPostgresPort
		}
	}
	if s.Bot.SourceURL == "" {
		s.Bot.SourceURL = DefaultSourceURL
	}
}

// NormalizeLevel maps the legacy numeric levels (2, 1, anything else) to names.
func NormalizeLevel(level string) string {
	switch level {
	case "2", "debug":
		return "debug"
	case "1", "info":
		return "info"
	case "error":
		return "error"
	default:
		return "warn"
	}
}

// DSNSummary describes the database target without credentials, for logs.
func (d DatabaseSettings) DSNSummary() string {
	if d.Driver == "sqlite3" {
		return fmt.Sprintf("sqlite3:%s", d.Path)
	}
	return fmt.Sprintf("%s://%s:%d/%s", d.Driver, d.Host, d.Port, d.Name)
}
