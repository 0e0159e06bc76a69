package testutil

import (
	"io"
	"math"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/require"

	"vm-transcriber/internal/app/pipeline"
)

// Chat ids shared by the message fixtures.
const (
	TestGuildID   = "1000"
	TestChannelID = "2000"
	TestAuthorID  = "3000"
)

// SineWAV encodes a 440 Hz tone of the given length as 16-bit PCM WAV.
func SineWAV(t testing.TB, sampleRate, channels int, length time.Duration) []byte {
	t.Helper()

	frames := int(length.Seconds() * float64(sampleRate))
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, frames*channels),
	}
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 8000)
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}

	out := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(out, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())

	data, err := io.ReadAll(out.Reader())
	require.NoError(t, err)
	return data
}

// VoiceWAV is a 3 second 16 kHz mono clip, the shape the converter emits.
func VoiceWAV(t testing.TB) []byte {
	return SineWAV(t, 16000, 1, 3*time.Second)
}

// AttachmentURL is where the fixtures' attachment for message id lives.
func AttachmentURL(id string) string {
	return "https://cdn.discordapp.com/attachments/" + TestChannelID + "/" + id + "/voice-message.ogg"
}

// VoiceMessage is a message carrying one audio/ogg attachment.
func VoiceMessage(id string) pipeline.Message {
	return messageWith(id, pipeline.Attachment{
		URL:         AttachmentURL(id),
		Filename:    "voice-message.ogg",
		ContentType: "audio/ogg",
		Size:        4096,
	})
}

// ImageMessage is a message carrying one image/png attachment.
func ImageMessage(id string) pipeline.Message {
	return messageWith(id, pipeline.Attachment{
		URL:         "https://cdn.discordapp.com/attachments/" + TestChannelID + "/" + id + "/screenshot.png",
		Filename:    "screenshot.png",
		ContentType: "image/png",
		Size:        2048,
	})
}

// TextMessage is a message without attachments.
func TextMessage(id string) pipeline.Message {
	return messageWith(id)
}

func messageWith(id string, attachments ...pipeline.Attachment) pipeline.Message {
	return pipeline.Message{
		ID:          id,
		ChannelID:   TestChannelID,
		GuildID:     TestGuildID,
		AuthorID:    TestAuthorID,
		Attachments: attachments,
	}
}
