package api

import (
	"context"

	"vm-transcriber/internal/app/audio"
)

// Backend names used in logs and metrics.
const (
	BackendRemote = "openai_whisper_api"
	BackendLocal  = "whisper_cpp"
)

// Transcriber converts a decoded clip to text. Implementations block until the
// recognition finishes and wrap every failure in errors.ErrRecognition.
type Transcriber interface {
	Transcript(ctx context.Context, clip *audio.Clip) (string, error)

	// Name identifies the backend in logs.
	Name() string
}
