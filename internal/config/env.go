package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from .env file if it exists.
// Variables already present in the environment win over the file.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
	}

	// Look for .env file, but don't fail if not found (environment variables might be set system-wide)
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// applyEnv overlays secrets and connection parameters from the environment.
func applyEnv(s *Settings) {
	setString(&s.Bot.Token, "BOT_TOKEN")
	setString(&s.Bot.OwnerID, "BOT_OWNER_ID")
	setString(&s.Transcribe.APIKey, "OPENAI_API_KEY")

	setString(&s.Database.Host, "DB_HOST")
	setInt(&s.Database.Port, "DB_PORT")
	setString(&s.Database.User, "DB_USER")
	setString(&s.Database.Password, "DB_PASSWORD")
	setString(&s.Database.Name, "DB_NAME")
	setInt(&s.Database.MaxConnections, "DB_CONNECTION_MAX_LIMIT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

// setInt ignores malformed values; validation reports the resulting setting.
func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*dst = -1
		return
	}
	*dst = n
}
