package audio_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm-transcriber/internal/app/audio"
	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/testutil"
)

const probeAudio = `{"streams":[{"codec_type":"audio","codec_name":"opus","sample_rate":"48000","channels":1}]}`

// fakeRunner stands in for ffprobe/ffmpeg. ffmpeg "writes" output to the last argument.
type fakeRunner struct {
	mu        sync.Mutex
	probe     string
	output    []byte
	ffmpegErr error
	calls     []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)

	switch name {
	case "ffprobe":
		return []byte(r.probe), nil
	case "ffmpeg":
		if r.ffmpegErr != nil {
			return nil, r.ffmpegErr
		}
		return nil, os.WriteFile(args[len(args)-1], r.output, 0o600)
	}
	return nil, errors.New("unexpected command " + name)
}

func TestIs16kHzWav(t *testing.T) {
	assert.True(t, audio.Is16kHzWav(testutil.SineWAV(t, 16000, 1, time.Second)))
	assert.False(t, audio.Is16kHzWav(testutil.SineWAV(t, 16000, 2, time.Second)))
	assert.False(t, audio.Is16kHzWav(testutil.SineWAV(t, 48000, 1, time.Second)))
	assert.False(t, audio.Is16kHzWav([]byte("OggS\x00\x02garbage")))
	assert.False(t, audio.Is16kHzWav(nil))
}

func TestDecode(t *testing.T) {
	clip, err := audio.Decode(testutil.VoiceWAV(t))
	require.NoError(t, err)

	assert.Equal(t, audio.TargetSampleRate, clip.SampleRate)
	assert.Equal(t, audio.TargetChannels, clip.Channels)
	assert.Equal(t, 3*time.Second, clip.Duration)
	assert.Len(t, clip.PCM.Data, 3*audio.TargetSampleRate)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := audio.Decode([]byte("definitely not riff"))
	assert.ErrorIs(t, err, apperrors.ErrConversion)
}

func TestConverter_PassThrough(t *testing.T) {
	runner := &fakeRunner{}
	c := audio.NewConverter("", "", runner)

	wav := testutil.VoiceWAV(t)
	clip, err := c.Convert(context.Background(), wav)
	require.NoError(t, err)

	assert.Equal(t, wav, clip.WAV)
	assert.Empty(t, runner.calls, "16 kHz PCM input must not be sent through ffmpeg")
}

func TestConverter_Convert(t *testing.T) {
	tests := []struct {
		name      string
		runner    *fakeRunner
		input     []byte
		wantCalls []string
		wantErr   bool
	}{
		{
			name:      "ogg voice message",
			runner:    &fakeRunner{probe: probeAudio, output: testutil.VoiceWAV(t)},
			input:     []byte("OggS\x00\x02opus-payload"),
			wantCalls: []string{"ffprobe", "ffmpeg"},
		},
		{
			name:      "48 kHz wav is resampled",
			runner:    &fakeRunner{probe: probeAudio, output: testutil.VoiceWAV(t)},
			input:     testutil.SineWAV(t, 48000, 2, time.Second),
			wantCalls: []string{"ffprobe", "ffmpeg"},
		},
		{
			name:      "no audio stream",
			runner:    &fakeRunner{probe: `{"streams":[{"codec_type":"video","codec_name":"png"}]}`},
			input:     []byte("\x89PNG"),
			wantCalls: []string{"ffprobe"},
			wantErr:   true,
		},
		{
			name:      "unparseable probe output",
			runner:    &fakeRunner{probe: "not json"},
			input:     []byte("OggS"),
			wantCalls: []string{"ffprobe"},
			wantErr:   true,
		},
		{
			name:      "ffmpeg failure",
			runner:    &fakeRunner{probe: probeAudio, ffmpegErr: errors.New("ffmpeg error: exit status 1, stderr: Invalid data found")},
			input:     []byte("OggS"),
			wantCalls: []string{"ffprobe", "ffmpeg"},
			wantErr:   true,
		},
		{
			name:      "ffmpeg emits garbage",
			runner:    &fakeRunner{probe: probeAudio, output: []byte("garbage")},
			input:     []byte("OggS"),
			wantCalls: []string{"ffprobe", "ffmpeg"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := audio.NewConverter("ffmpeg", "ffprobe", tt.runner)

			clip, err := c.Convert(context.Background(), tt.input)
			assert.Equal(t, tt.wantCalls, tt.runner.calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrConversion)
				assert.Nil(t, clip)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, audio.TargetSampleRate, clip.SampleRate)
			assert.Equal(t, 3*time.Second, clip.Duration)
		})
	}
}

func TestConverter_EmptyInput(t *testing.T) {
	runner := &fakeRunner{}
	_, err := audio.NewConverter("", "", runner).Convert(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrConversion)
	assert.Empty(t, runner.calls)
}
