package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "vm-transcriber/internal/app/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and the cross-field rules that the
// struct tags cannot express. Every failure wraps ErrConfiguration.
func Validate(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, describe(err))
	}

	if err := ValidateAPIKey(s.Transcribe); err != nil {
		return err
	}

	if !s.Transcribe.UseAPI {
		if s.Transcribe.WhisperBinary == "" {
			return apperrors.RequiredField("transcribe.whisper_binary")
		}
		if s.Transcribe.WhisperModel == "" {
			return apperrors.RequiredField("transcribe.whisper_model")
		}
	}

	if s.Database.Enabled {
		if err := validateDatabase(s.Database); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStore checks what the maintenance commands need: the database
// and logging sections. The bot token and recognition backend are ignored.
func ValidateStore(s *Settings) error {
	if err := validate.Struct(s.Database); err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, describe(err))
	}
	if err := validate.Struct(s.Logging); err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, describe(err))
	}
	if !s.Database.Enabled {
		return apperrors.Wrap(apperrors.ErrConfiguration, "database is disabled")
	}
	return validateDatabase(s.Database)
}

// ValidateAPIKey rejects remote mode without a usable key.
func ValidateAPIKey(t TranscribeSettings) error {
	if !t.UseAPI {
		return nil
	}
	key := strings.TrimSpace(t.APIKey)
	if key == "" || key == APIKeyUnset {
		return apperrors.Wrap(apperrors.ErrConfiguration, apperrors.ErrMissingAPIKey.Error())
	}
	return nil
}

func validateDatabase(d DatabaseSettings) error {
	switch d.Driver {
	case "sqlite3":
		if d.Path == "" {
			return apperrors.RequiredField("database.path")
		}
	case "mysql", "postgres":
		if d.Host == "" {
			return apperrors.RequiredField("database.host")
		}
		if d.Name == "" {
			return apperrors.RequiredField("database.name")
		}
		if d.Port <= 0 {
			return apperrors.InvalidField("database.port", "must be positive")
		}
	default:
		return apperrors.InvalidField("database.driver", fmt.Sprintf("unsupported driver %q", d.Driver))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
