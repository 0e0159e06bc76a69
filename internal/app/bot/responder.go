package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"vm-transcriber/internal/app/pipeline"
)

// Session is the REST subset of *discordgo.Session the bot calls.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// JumpURL is the link clients open for a message. Direct messages use @me.
func JumpURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// Responder posts replies through the REST session. It implements
// pipeline.Replier.
type Responder struct {
	session Session
}

func NewResponder(session Session) *Responder {
	return &Responder{session: session}
}

// Reply posts content as a reply to source without pinging its author.
func (r *Responder) Reply(ctx context.Context, source pipeline.Message, content string) (pipeline.Reply, error) {
	msg, err := r.session.ChannelMessageSendComplex(source.ChannelID, &discordgo.MessageSend{
		Content: content,
		Reference: &discordgo.MessageReference{
			MessageID: source.ID,
			ChannelID: source.ChannelID,
			GuildID:   source.GuildID,
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return pipeline.Reply{}, fmt.Errorf("send reply to %s: %w", source.ID, err)
	}

	channelID := msg.ChannelID
	if channelID == "" {
		channelID = source.ChannelID
	}
	return pipeline.Reply{
		ChannelID: channelID,
		MessageID: msg.ID,
		Link:      JumpURL(source.GuildID, channelID, msg.ID),
	}, nil
}

// Edit replaces the body of a reply posted earlier.
func (r *Responder) Edit(ctx context.Context, reply pipeline.Reply, content string) error {
	if _, err := r.session.ChannelMessageEdit(reply.ChannelID, reply.MessageID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit reply %s: %w", reply.MessageID, err)
	}
	return nil
}
