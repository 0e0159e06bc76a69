package whisper_cpp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"vm-transcriber/internal/app/api"
	"vm-transcriber/internal/app/audio"
	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/logging"
)

// LocalTranscriber implements local transcription, using the whisper.cpp binary.
type LocalTranscriber struct {
	binaryPath string
	modelPath  string
	language   string
	logger     logging.Logger
}

// NewLocalTranscriber creates a new instance of LocalTranscriber.
func NewLocalTranscriber(binaryPath, modelPath, language string, logger logging.Logger) *LocalTranscriber {
	if language == "" {
		language = "auto"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalTranscriber{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		language:   language,
		logger:     logger,
	}
}

// Name implements api.Transcriber.
func (lt *LocalTranscriber) Name() string {
	return api.BackendLocal
}

// Transcript writes the clip to a scratch directory, runs whisper.cpp over it
// and returns the trimmed text output.
func (lt *LocalTranscriber) Transcript(ctx context.Context, clip *audio.Clip) (string, error) {
	if clip == nil || len(clip.WAV) == 0 {
		return "", apperrors.Stage(apperrors.ErrRecognition, fmt.Errorf("empty clip"))
	}

	workDir, err := os.MkdirTemp("", "vmt-whisper-*")
	if err != nil {
		return "", apperrors.Stage(apperrors.ErrRecognition, err)
	}
	defer os.RemoveAll(workDir)

	inputFilePath := filepath.Join(workDir, "voice-message.wav")
	if err := os.WriteFile(inputFilePath, clip.WAV, 0o600); err != nil {
		return "", apperrors.Stage(apperrors.ErrRecognition, err)
	}
	outputFile := filepath.Join(workDir, "transcript")

	args := []string{
		"-m", lt.modelPath,
		"-l", lt.language,
		"-nt",
		"-otxt",
		"-f", inputFilePath,
		"-of", outputFile,
	}

	command := exec.CommandContext(ctx, lt.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	lt.logger.Debug("Running transcription command",
		zap.String("command", lt.binaryPath+" "+strings.Join(args, " ")),
		zap.Duration("clip_duration", clip.Duration))

	if err := command.Run(); err != nil {
		return "", apperrors.Stage(apperrors.ErrRecognition,
			fmt.Errorf("command execution error: %v, stderr: %s", err, stderr.String()))
	}

	output, err := os.ReadFile(outputFile + ".txt")
	if err != nil {
		return "", apperrors.Stage(apperrors.ErrRecognition, fmt.Errorf("failed to read output file: %w", err))
	}

	return strings.TrimSpace(string(output)), nil
}
