package bot

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"go.uber.org/zap"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/pipeline"
)

// Transcriber is the part of the pipeline the bot drives.
type Transcriber interface {
	Handle(ctx context.Context, msg pipeline.Message) error
	Lookup(ctx context.Context, messageID string) (string, bool)
}

// Conn is a gateway connection: the REST calls plus handler registration
// and the websocket lifecycle. *discordgo.Session implements it.
type Conn interface {
	Session
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
}

// Options are the bot switches taken from the settings.
type Options struct {
	Automatically  bool
	OwnerID        string
	TestingGuildID string
	SourceURL      string
}

// Bot filters gateway events and hands eligible messages to the pipeline.
type Bot struct {
	conn        Conn
	transcriber Transcriber
	logger      logging.Logger
	opts        Options

	// ctx is handed to background Handle calls; Abandon cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	// mu orders dispatch's wg.Add against Close.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	selfID   atomic.Value
	removers []func()
	onExit   func()
	exitOnce sync.Once
}

func New(conn Conn, transcriber Transcriber, logger logging.Logger, opts Options) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		conn:        conn,
		transcriber: transcriber,
		logger:      logger,
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
	}
	b.selfID.Store("")
	return b
}

// OnExit sets the callback run once when the owner issues the exit command.
func (b *Bot) OnExit(fn func()) {
	b.onExit = fn
}

// Open registers the event handlers and connects to the gateway.
func (b *Bot) Open() error {
	b.removers = append(b.removers,
		b.conn.AddHandler(b.onReady),
		b.conn.AddHandler(b.onMessageCreate),
		b.conn.AddHandler(b.onInteractionCreate),
	)
	if err := b.conn.Open(); err != nil {
		return apperrors.Wrapf(apperrors.ErrConfiguration, "open gateway: %v", err)
	}
	b.logger.Info("Connected to gateway")
	return nil
}

// Close stops event delivery. Transcriptions already dispatched keep running
// until Wait returns or Abandon is called.
func (b *Bot) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil
	return b.conn.Close()
}

// Wait blocks until every dispatched transcription has returned or ctx is done.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abandon cancels the context of every dispatched transcription.
func (b *Bot) Abandon() {
	b.cancel()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.ready(r)
}

func (b *Bot) ready(r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	b.selfID.Store(r.User.ID)

	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}

	cmds, err := SyncCommands(b.conn, appID, b.opts.TestingGuildID)
	if err != nil {
		b.logger.Error("Failed to sync commands", zap.Error(err))
		return
	}
	scope := "global"
	if b.opts.TestingGuildID != "" {
		scope = "guild:" + b.opts.TestingGuildID
	}
	b.logger.Info("Logged in",
		zap.String("user", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Int("commands", len(cmds)),
		zap.String("scope", scope))
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.messageCreate(m.Message)
}

func (b *Bot) messageCreate(m *discordgo.Message) {
	if !b.opts.Automatically || m == nil || m.Author == nil {
		return
	}
	if m.Author.Bot || m.Author.ID == b.selfID.Load().(string) {
		return
	}
	if m.Flags&voiceMessageFlag == 0 || len(m.Attachments) != 1 {
		return
	}
	b.dispatch(toMessage(m, m.GuildID))
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.interactionCreate(i.Interaction)
}

func (b *Bot) interactionCreate(i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	switch data.Name {
	case CommandTranscribe:
		b.transcribeCommand(i, data)
	case CommandExit:
		b.exitCommand(i)
	case CommandOpenSource:
		b.respond(i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{openSourceEmbed(b.opts.SourceURL)},
		})
	default:
		b.logger.Debug("Unknown command", zap.String("command", data.Name))
	}
}

func (b *Bot) transcribeCommand(i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) {
	var target *discordgo.Message
	if data.Resolved != nil {
		target = data.Resolved.Messages[data.TargetID]
	}
	if target == nil {
		b.logger.Warn("Context menu target not resolved", zap.String("target_id", data.TargetID))
		return
	}

	// Acknowledge first; the store lookup may outlast the interaction window.
	err := b.conn.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(b.ctx))
	if err != nil {
		b.logger.Error("Failed to acknowledge interaction", zap.String("interaction_id", i.ID), zap.Error(err))
		return
	}

	if link, ok := b.transcriber.Lookup(b.ctx, target.ID); ok {
		b.followUp(i, link)
		return
	}

	b.followUp(i, MsgTranscriptionStarted)
	b.dispatch(toMessage(target, i.GuildID))
}

// followUp replaces the deferred acknowledgement with content.
func (b *Bot) followUp(i *discordgo.Interaction, content string) {
	_, err := b.conn.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(b.ctx))
	if err != nil {
		b.logger.Error("Failed to edit interaction response", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func (b *Bot) exitCommand(i *discordgo.Interaction) {
	if b.opts.OwnerID == "" || invokerID(i) != b.opts.OwnerID {
		b.respond(i, ephemeral(MsgNotOwner))
		return
	}
	b.respond(i, ephemeral(MsgExiting))
	b.logger.Warn("Exit requested by owner", zap.String("user_id", b.opts.OwnerID))
	b.exitOnce.Do(func() {
		if b.onExit != nil {
			go b.onExit()
		}
	})
}

func (b *Bot) dispatch(msg pipeline.Message) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Debug("Gateway closed, dropping message", zap.String("msg_id", msg.ID))
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		err := b.transcriber.Handle(b.ctx, msg)
		switch {
		case err == nil:
		case apperrors.Is(err, apperrors.ErrInFlight),
			apperrors.Is(err, apperrors.ErrNoAttachment),
			apperrors.Is(err, apperrors.ErrNotVoiceMessage):
			b.logger.Debug("Message not transcribed", zap.String("msg_id", msg.ID), zap.Error(err))
		default:
			b.logger.Warn("Message transcription failed", zap.String("msg_id", msg.ID), zap.Error(err))
		}
	}()
}

func (b *Bot) respond(i *discordgo.Interaction, data *discordgo.InteractionResponseData) {
	err := b.conn.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(b.ctx))
	if err != nil {
		b.logger.Error("Failed to respond to interaction", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

func ephemeral(content string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}

func invokerID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// toMessage converts a gateway message. Resolved context menu targets carry
// no guild id, so the caller passes the one it knows.
func toMessage(m *discordgo.Message, guildID string) pipeline.Message {
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	authorID := ""
	if m.Author != nil {
		authorID = m.Author.ID
	}
	return pipeline.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   guildID,
		AuthorID:  authorID,
		Attachments: lo.Map(m.Attachments, func(a *discordgo.MessageAttachment, _ int) pipeline.Attachment {
			return pipeline.Attachment{
				URL:         a.URL,
				Filename:    a.Filename,
				ContentType: a.ContentType,
				Size:        a.Size,
			}
		}),
	}
}
