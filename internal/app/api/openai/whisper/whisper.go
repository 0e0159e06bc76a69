package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"vm-transcriber/internal/app/api"
	"vm-transcriber/internal/app/audio"
	apperrors "vm-transcriber/internal/app/errors"
)

// Failure classes reported in the logged error detail.
const (
	FailureAuth    = "auth"
	FailureQuota   = "quota"
	FailureAPI     = "api"
	FailureNetwork = "network"
)

// RemoteTranscriber implements remote transcription using the OpenAI API.
type RemoteTranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(client *openai.Client, model, language string) *RemoteTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	if language == "auto" {
		language = ""
	}
	return &RemoteTranscriber{client: client, model: model, language: language}
}

// Name implements api.Transcriber.
func (rt *RemoteTranscriber) Name() string {
	return api.BackendRemote
}

// Transcript uploads the clip's WAV bytes for transcription. There is no retry:
// a failure is reported to the user, who can ask again.
func (rt *RemoteTranscriber) Transcript(ctx context.Context, clip *audio.Clip) (string, error) {
	if clip == nil || len(clip.WAV) == 0 {
		return "", apperrors.Stage(apperrors.ErrRecognition, fmt.Errorf("empty clip"))
	}

	req := openai.AudioRequest{
		Model:    rt.model,
		FilePath: "voice-message.wav",
		Reader:   bytes.NewReader(clip.WAV),
		Language: rt.language,
	}
	resp, err := rt.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", apperrors.Stage(apperrors.ErrRecognition,
			fmt.Errorf("createTranscription failed (%s): %w", Classify(err), err))
	}

	return resp.Text, nil
}

// Classify sorts an API error into auth, quota, api or network failures.
func Classify(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureAuth
		case http.StatusTooManyRequests:
			return FailureQuota
		default:
			return FailureAPI
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureAuth
		case http.StatusTooManyRequests:
			return FailureQuota
		}
		return FailureAPI
	}
	return FailureNetwork
}
