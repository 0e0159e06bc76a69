package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vm-transcriber/internal/app/errors"
)

const localConfig = `
bot:
  token: "bot-token"
  owner_id: "42"
transcribe:
  use_api: false
  whisper_binary: /opt/whisper/main
  whisper_model: /opt/whisper/ggml-base.bin
`

func TestParse(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		expectError error
		check       func(t *testing.T, s *Settings)
	}{
		{
			name: "local engine with defaults",
			yaml: localConfig,
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, "bot-token", s.Bot.Token)
				assert.False(t, s.Transcribe.UseAPI)
				assert.True(t, s.Transcribe.Automatically)
				assert.True(t, s.Transcribe.VoiceMessagesOnly)
				assert.Equal(t, DefaultWorkers, s.Transcribe.Workers)
				assert.Equal(t, "warn", s.Logging.Level)
				assert.Equal(t, DefaultShutdownGrace, s.Bot.ShutdownGrace)
				assert.False(t, s.Database.Enabled)
			},
		},
		{
			name: "remote api with key",
			yaml: `
bot:
  token: t
transcribe:
  use_api: true
  apikey: sk-test
  automatically: false
logging:
  level: "2"
`,
			check: func(t *testing.T, s *Settings) {
				assert.True(t, s.Transcribe.UseAPI)
				assert.Equal(t, "sk-test", s.Transcribe.APIKey)
				assert.False(t, s.Transcribe.Automatically)
				assert.Equal(t, "debug", s.Logging.Level)
			},
		},
		{
			name: "remote api with sentinel key",
			yaml: `
bot:
  token: t
transcribe:
  use_api: true
  apikey: "0"
`,
			expectError: apperrors.ErrConfiguration,
		},
		{
			name: "missing token",
			yaml: `
transcribe:
  whisper_binary: /bin/whisper
  whisper_model: /m.bin
`,
			expectError: apperrors.ErrConfiguration,
		},
		{
			name: "local engine without binary",
			yaml: `
bot:
  token: t
transcribe:
  whisper_model: /m.bin
`,
			expectError: apperrors.ErrConfiguration,
		},
		{
			name: "sqlite without path",
			yaml: localConfig + `
database:
  enabled: true
  driver: sqlite3
`,
			expectError: apperrors.ErrConfiguration,
		},
		{
			name: "unknown driver",
			yaml: localConfig + `
database:
  enabled: true
  driver: oracle
`,
			expectError: apperrors.ErrConfiguration,
		},
		{
			name: "mysql with durations",
			yaml: localConfig + `
database:
  enabled: true
  host: db
  name: transcriptions
  retry:
    max_attempts: 3
    initial_backoff: 100ms
    max_backoff: 1s
`,
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, "mysql", s.Database.Driver)
				assert.Equal(t, DefaultMySQLPort, s.Database.Port)
				assert.Equal(t, uint(3), s.Database.Retry.MaxAttempts)
				assert.Equal(t, 100*time.Millisecond, s.Database.Retry.InitialBackoff)
				assert.Equal(t, "mysql://db:3306/transcriptions", s.Database.DSNSummary())
			},
		},
		{
			name: "retry backoff inverted",
			yaml: localConfig + `
database:
  retry:
    initial_backoff: 2s
    max_backoff: 1s
`,
			expectError: apperrors.ErrConfiguration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse([]byte(tc.yaml))
			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			tc.check(t, s)
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	assert.NoError(t, ValidateAPIKey(TranscribeSettings{UseAPI: false, APIKey: APIKeyUnset}))
	assert.NoError(t, ValidateAPIKey(TranscribeSettings{UseAPI: true, APIKey: "sk-abc"}))

	err := ValidateAPIKey(TranscribeSettings{UseAPI: true, APIKey: " 0 "})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Contains(t, err.Error(), apperrors.ErrMissingAPIKey.Error())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(localConfig+`
database:
  enabled: true
  driver: postgres
  host: from-file
  name: bot
  port: 5432
`), 0o600))

	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DB_CONNECTION_MAX_LIMIT", "9")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", s.Bot.Token)
	assert.Equal(t, "from-env", s.Database.Host)
	assert.Equal(t, 9, s.Database.MaxConnections)
	assert.Equal(t, 5432, s.Database.Port)
}

func TestLoad_MalformedPortFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(localConfig), 0o600))
	t.Setenv("DB_PORT", "not-a-port")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "debug", NormalizeLevel("2"))
	assert.Equal(t, "info", NormalizeLevel("1"))
	assert.Equal(t, "warn", NormalizeLevel("0"))
	assert.Equal(t, "warn", NormalizeLevel(""))
	assert.Equal(t, "error", NormalizeLevel("error"))
}

func TestParse_DriverDefaultPort(t *testing.T) {
	s, err := Parse([]byte(localConfig + `
database:
  enabled: true
  driver: postgres
  host: db
  name: bot
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultPostgresPort, s.Database.Port)
	assert.Equal(t, DefaultSourceURL, s.Bot.SourceURL)
}

const storeOnlyConfig = `
database:
  enabled: true
  driver: sqlite3
  path: /var/lib/vmt/vmt.db
`

func TestParseStore(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		expectError error
	}{
		{name: "database only, no token or backend", yaml: storeOnlyConfig},
		{name: "database disabled", yaml: "database:\n  enabled: false\n", expectError: apperrors.ErrConfiguration},
		{name: "sqlite without path", yaml: "database:\n  enabled: true\n  driver: sqlite3\n", expectError: apperrors.ErrConfiguration},
		{name: "bad retry bounds", yaml: storeOnlyConfig + "  retry:\n    max_attempts: 0\n", expectError: apperrors.ErrConfiguration},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseStore([]byte(tc.yaml))
			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/var/lib/vmt/vmt.db", s.Database.Path)
			assert.Empty(t, s.Bot.Token)
		})
	}

	// The full validation still insists on the bot sections.
	_, err := Parse([]byte(storeOnlyConfig))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestLoadStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(storeOnlyConfig), 0o600))
	t.Setenv("DB_NAME", "ignored-by-sqlite")

	s, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", s.Database.Driver)
}
