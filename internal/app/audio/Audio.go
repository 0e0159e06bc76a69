package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/model"
)

// Target format handed to recognition backends.
const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	TargetBitDepth   = 16

	wavFormatPCM = 1
)

// Clip is a decoded voice message: 16 kHz PCM WAV bytes plus the samples.
type Clip struct {
	WAV        []byte
	PCM        *goaudio.IntBuffer
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command and folds stderr into the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s error: %v, stderr: %s", name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Converter turns compressed voice attachments into Clips using ffmpeg.
type Converter struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
}

// NewConverter creates a Converter. Empty binary names fall back to the PATH lookups.
func NewConverter(ffmpeg, ffprobe string, runner Runner) *Converter {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Converter{ffmpeg: ffmpeg, ffprobe: ffprobe, runner: runner}
}

// Convert decodes data into a 16 kHz mono Clip. It blocks for the duration of
// the ffmpeg run; callers schedule it on the worker pool. Every failure wraps
// ErrConversion and is deterministic for the same input.
func (c *Converter) Convert(ctx context.Context, data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, apperrors.Stage(apperrors.ErrConversion, fmt.Errorf("empty attachment"))
	}

	if Is16kHzWav(data) {
		return Decode(data)
	}

	workDir, err := os.MkdirTemp("", "vmt-convert-*")
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrConversion, err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "voice-message.ogg")
	outputPath := filepath.Join(workDir, "voice-message_16khz.wav")

	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, apperrors.Stage(apperrors.ErrConversion, err)
	}

	if err := c.probe(ctx, inputPath); err != nil {
		return nil, apperrors.Stage(apperrors.ErrConversion, err)
	}

	_, err = c.runner.Run(ctx, c.ffmpeg,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-vn", "-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(TargetSampleRate), "-ac", fmt.Sprint(TargetChannels),
		outputPath,
	)
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrConversion, fmt.Errorf("FFmpeg error: %w", err))
	}

	wavData, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrConversion, err)
	}
	return Decode(wavData)
}

func (c *Converter) probe(ctx context.Context, path string) error {
	output, err := c.runner.Run(ctx, c.ffprobe, "-v", "quiet", "-print_format", "json", "-show_streams", path)
	if err != nil {
		return fmt.Errorf("FFprobe error: %w", err)
	}

	var probeOutput model.FFProbeOutput
	if err := json.Unmarshal(output, &probeOutput); err != nil {
		return fmt.Errorf("parse ffprobe output: %w", err)
	}
	if !probeOutput.HasAudio() {
		return fmt.Errorf("attachment has no audio stream")
	}
	return nil
}

// Is16kHzWav reports whether data already is a 16 kHz mono 16-bit PCM WAV stream.
func Is16kHzWav(data []byte) bool {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return false
	}
	return d.WavAudioFormat == wavFormatPCM &&
		d.SampleRate == TargetSampleRate &&
		d.NumChans == TargetChannels &&
		d.BitDepth == TargetBitDepth
}

// Decode validates a WAV stream and reads its samples.
func Decode(data []byte) (*Clip, error) {
	if !wav.NewDecoder(bytes.NewReader(data)).IsValidFile() {
		return nil, apperrors.Stage(apperrors.ErrConversion, fmt.Errorf("not a valid WAV stream"))
	}

	buf, err := wav.NewDecoder(bytes.NewReader(data)).FullPCMBuffer()
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrConversion, fmt.Errorf("decode PCM: %w", err))
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, apperrors.Stage(apperrors.ErrConversion, fmt.Errorf("WAV stream has no format"))
	}

	frames := len(buf.Data) / buf.Format.NumChannels
	return &Clip{
		WAV:        data,
		PCM:        buf,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Duration:   time.Duration(frames) * time.Second / time.Duration(buf.Format.SampleRate),
	}, nil
}
