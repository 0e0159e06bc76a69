package config

import "time"

// Default configuration constants
const (
	// Bot defaults
	DefaultShutdownGrace = 10 * time.Second
	DefaultSourceURL     = "https://github.com/manan006/discord-voice-message-transcriber"

	// Transcription defaults
	DefaultWorkers  = 4
	DefaultAPIModel = "whisper-1"
	DefaultLanguage = "auto"

	// Database defaults
	DefaultDriver              = "mysql"
	DefaultMySQLPort           = 3306
	DefaultPostgresPort        = 5432
	DefaultMaxConnections      = 5
	DefaultRetryAttempts       = 6
	DefaultRetryInitialBackoff = 500 * time.Millisecond
	DefaultRetryMaxBackoff     = 5 * time.Second

	// Logging defaults
	DefaultLogFile       = "vmt.log"
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5

	// Admin server defaults
	DefaultAdminAddr = "127.0.0.1:8080"
)
