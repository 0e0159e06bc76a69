package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vm-transcriber/internal/app/api"
	"vm-transcriber/internal/app/audio"
	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/metrics"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/app/worker"
)

// User-visible reply texts.
const (
	MsgNoVoiceMessage    = "Transcription failed! (No Voice Message)"
	MsgNotVoiceMessage   = "Transcription failed! (Attachment not a Voice Message)"
	MsgTranscribing      = "✨ Transcribing..."
	MsgDownloadFailed    = "Transcription failed! (Attachment Download Error)"
	MsgConversionFailed  = "Transcription failed! (Audio Conversion Error)"
	MsgRecognitionFailed = "Transcription failed! (Speech Recognition Error)"

	EmptyTranscript    = "*nothing*"
	MaxTranscriptRunes = 1900
	Ellipsis           = "..."

	transcriptHeader = "**Audio Message Transcription:\n** ```"
	transcriptFooter = "```"
)

// Stage labels used in logs and metrics.
const (
	StageEligibility = "eligibility"
	StageReply       = "reply"
	StageDownload    = "download"
	StageConversion  = "conversion"
	StageRecognition = "recognition"
	StageEdit        = "edit"
	StageComplete    = "complete"
)

// DefaultStoreTimeout bounds a single Put or Get, retries included.
const DefaultStoreTimeout = 2 * time.Second

// Options holds the pipeline switches taken from the transcribe settings.
type Options struct {
	VoiceMessagesOnly bool
	// StoreTimeout caps each store call on the message path. Zero means
	// DefaultStoreTimeout.
	StoreTimeout time.Duration
}

// Pipeline turns a voice message into a transcript reply and records the
// reply link so the work happens at most once per message.
type Pipeline struct {
	store     repository.ResultStore
	converter Converter
	backend   api.Transcriber
	replier   Replier
	fetcher   Fetcher
	pool      *worker.Pool
	metrics   *metrics.Metrics
	logger    logging.Logger
	opts      Options

	// message ids with a Handle call in progress
	inflight sync.Map
}

// New wires a pipeline. Nil metrics, logger or pool are replaced with a
// private registry, a no-op logger and a single-slot pool.
func New(
	store repository.ResultStore,
	converter Converter,
	backend api.Transcriber,
	replier Replier,
	fetcher Fetcher,
	pool *worker.Pool,
	m *metrics.Metrics,
	logger logging.Logger,
	opts Options,
) *Pipeline {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = worker.NewPool(1)
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	return &Pipeline{
		store:     store,
		converter: converter,
		backend:   backend,
		replier:   replier,
		fetcher:   fetcher,
		pool:      pool,
		metrics:   m,
		logger:    logger,
		opts:      opts,
	}
}

// Handle transcribes the first attachment of msg.
//
// Ineligible messages get a failure reply and ErrNoAttachment or
// ErrNotVoiceMessage; nothing is recorded for them. Eligible messages get a
// placeholder reply whose link is stored before any slow work starts. Stage
// failures edit the placeholder, keep the record and are returned.
func (p *Pipeline) Handle(ctx context.Context, msg Message) error {
	start := time.Now()
	fields := []zap.Field{
		zap.String("msg_id", msg.ID),
		zap.String("invocation_id", uuid.NewString()),
	}

	if len(msg.Attachments) == 0 {
		p.logger.Debug("Message has no attachment", fields...)
		p.replyIneligible(ctx, msg, MsgNoVoiceMessage, fields)
		return apperrors.ErrNoAttachment
	}
	attachment := msg.Attachments[0]
	if p.opts.VoiceMessagesOnly && !attachment.IsVoice() {
		p.logger.Debug("Attachment is not a voice message",
			append(fields, zap.String("content_type", attachment.ContentType))...)
		p.replyIneligible(ctx, msg, MsgNotVoiceMessage, fields)
		return apperrors.ErrNotVoiceMessage
	}

	if _, busy := p.inflight.LoadOrStore(msg.ID, struct{}{}); busy {
		p.logger.Debug("Transcription already in progress", fields...)
		p.metrics.RecordOutcome(metrics.OutcomeDuplicate, StageEligibility)
		return apperrors.ErrInFlight
	}
	defer p.inflight.Delete(msg.ID)

	p.logger.Info("Transcribing message", append(fields, zap.String("backend", p.backend.Name()))...)

	placeholder, err := p.replier.Reply(ctx, msg, MsgTranscribing)
	if err != nil {
		p.logger.Error("Failed to post placeholder reply", append(fields, zap.Error(err))...)
		p.metrics.RecordOutcome(metrics.OutcomeFailed, StageReply)
		return fmt.Errorf("post placeholder: %w", err)
	}
	fields = append(fields, zap.String("reply_link", placeholder.Link))

	if err := p.put(ctx, msg.ID, placeholder.Link); err != nil {
		p.logger.Error("Failed to record transcription", append(fields, zap.Error(err))...)
		p.metrics.RecordStoreError("put")
	}

	text, stage, err := p.transcribe(ctx, attachment)
	if err != nil {
		p.logger.Error("Transcription failed",
			append(fields, zap.String("stage", stage), zap.String("backend", p.backend.Name()), zap.Error(err))...)
		p.metrics.RecordOutcome(metrics.OutcomeFailed, stage)
		if editErr := p.replier.Edit(ctx, placeholder, failureMessage(stage)); editErr != nil {
			p.logger.Error("Failed to edit reply", append(fields, zap.Error(editErr))...)
		}
		return err
	}

	if err := p.replier.Edit(ctx, placeholder, Render(text)); err != nil {
		p.logger.Error("Failed to edit reply", append(fields, zap.Error(err))...)
		p.metrics.RecordOutcome(metrics.OutcomeFailed, StageEdit)
		return fmt.Errorf("edit reply: %w", err)
	}

	p.metrics.RecordOutcome(metrics.OutcomeSuccess, StageComplete)
	p.logger.Info("Transcription complete",
		append(fields, zap.Int("transcript_runes", utf8.RuneCountInString(text)), zap.Duration("took", time.Since(start)))...)
	return nil
}

// Lookup returns the stored reply link for a message. Store errors are logged
// and reported as a miss. Lookup never starts a transcription.
func (p *Pipeline) Lookup(ctx context.Context, messageID string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.StoreTimeout)
	defer cancel()
	link, ok, err := p.store.Get(ctx, messageID)
	if err != nil {
		p.logger.Error("Lookup failed, treating as miss", zap.String("msg_id", messageID), zap.Error(err))
		p.metrics.RecordStoreError("get")
		return "", false
	}
	if ok {
		p.metrics.RecordLookupHit()
	}
	return link, ok
}

func (p *Pipeline) put(ctx context.Context, messageID, link string) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.StoreTimeout)
	defer cancel()
	return p.store.Put(ctx, messageID, link)
}

func (p *Pipeline) transcribe(ctx context.Context, attachment Attachment) (string, string, error) {
	began := time.Now()
	data, err := p.fetcher.Fetch(ctx, attachment)
	if err != nil {
		return "", StageDownload, tag(apperrors.ErrDownload, err)
	}
	p.observe(StageDownload, began)

	began = time.Now()
	clip, err := worker.Submit(ctx, p.pool, func(ctx context.Context) (*audio.Clip, error) {
		return p.converter.Convert(ctx, data)
	})
	if err != nil {
		return "", StageConversion, tag(apperrors.ErrConversion, err)
	}
	p.observe(StageConversion, began)

	began = time.Now()
	text, err := worker.Submit(ctx, p.pool, func(ctx context.Context) (string, error) {
		return p.backend.Transcript(ctx, clip)
	})
	if err != nil {
		return "", StageRecognition, tag(apperrors.ErrRecognition, err)
	}
	p.observe(StageRecognition, began)

	return text, "", nil
}

func (p *Pipeline) observe(stage string, began time.Time) {
	p.metrics.RecordDuration(stage, time.Since(began).Seconds())
}

func (p *Pipeline) replyIneligible(ctx context.Context, msg Message, content string, fields []zap.Field) {
	p.metrics.RecordOutcome(metrics.OutcomeIneligible, StageEligibility)
	if _, err := p.replier.Reply(ctx, msg, content); err != nil {
		p.logger.Warn("Failed to send ineligible reply", append(fields, zap.Error(err))...)
	}
}

// Render formats a transcript as the reply body.
func Render(transcript string) string {
	body := transcript
	switch {
	case body == "":
		body = EmptyTranscript
	case utf8.RuneCountInString(body) > MaxTranscriptRunes:
		body = string([]rune(body)[:MaxTranscriptRunes]) + Ellipsis
	}
	return transcriptHeader + body + transcriptFooter
}

func failureMessage(stage string) string {
	switch stage {
	case StageDownload:
		return MsgDownloadFailed
	case StageConversion:
		return MsgConversionFailed
	default:
		return MsgRecognitionFailed
	}
}

// tag makes sure err matches sentinel without wrapping it twice.
func tag(sentinel *apperrors.Error, err error) error {
	if apperrors.Is(err, sentinel) {
		return err
	}
	return apperrors.Stage(sentinel, err)
}
