package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// Eligibility errors, answered locally with a user-visible reply
	ErrNoAttachment    = New("no attachment")
	ErrNotVoiceMessage = New("attachment not a voice message")
	ErrInFlight        = New("transcription already in progress")

	// Stage errors
	ErrDownload    = New("attachment download failed")
	ErrConversion  = New("audio conversion failed")
	ErrRecognition = New("speech recognition failed")

	// Store errors
	ErrStore           = New("result store failure")
	ErrDuplicateRecord = New("transcription record already exists")
	ErrStoreClosed     = New("result store closed")

	// Configuration errors
	ErrConfiguration = New("invalid configuration")
	ErrMissingAPIKey = New("API key is required")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Stage tags err with a sentinel so callers can match the failing stage with
// errors.Is while the original cause stays in the chain.
func Stage(sentinel *Error, err error) error {
	if err == nil {
		return nil
	}
	return &staged{sentinel: sentinel, cause: err}
}

type staged struct {
	sentinel *Error
	cause    error
}

func (s *staged) Error() string {
	return fmt.Sprintf("%s: %v", s.sentinel.message, s.cause)
}

func (s *staged) Unwrap() []error {
	return []error{s.sentinel, s.cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Wrapf(ErrConfiguration, "%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Wrapf(ErrConfiguration, "%s is invalid: %s", field, reason)
}
