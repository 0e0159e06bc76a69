package pipeline

import (
	"context"
	"mime"

	"vm-transcriber/internal/app/audio"
)

// VoiceContentType is the content type chat clients attach voice messages with.
const VoiceContentType = "audio/ogg"

// Attachment is one file attached to a chat message. Its bytes are fetched
// on demand from URL.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
	Size        int
}

// IsVoice reports whether the attachment declares the voice-message content type.
func (a Attachment) IsVoice() bool {
	mediaType, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil {
		return false
	}
	return mediaType == VoiceContentType
}

// Message is the inbound chat message a transcription is requested for.
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	Attachments []Attachment
}

// Reply identifies a message the bot posted.
type Reply struct {
	ChannelID string
	MessageID string
	// Link is the stable jump URL stored as the transcription record.
	Link string
}

// Replier posts and edits replies anchored to a source message.
type Replier interface {
	Reply(ctx context.Context, source Message, content string) (Reply, error)
	Edit(ctx context.Context, reply Reply, content string) error
}

// Fetcher downloads attachment bytes.
type Fetcher interface {
	Fetch(ctx context.Context, attachment Attachment) ([]byte, error)
}

// Converter turns downloaded attachment bytes into a 16 kHz clip.
type Converter interface {
	Convert(ctx context.Context, data []byte) (*audio.Clip, error)
}
