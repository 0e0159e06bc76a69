package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Application command names.
const (
	CommandTranscribe = "Transcribe VM"
	CommandExit       = "exit"
	CommandOpenSource = "opensource"
)

// Interaction reply texts.
const (
	MsgTranscriptionStarted = "Transcription started!"
	MsgNotOwner             = "You are not the bot owner!"
	MsgExiting              = "Exiting..."
)

// voiceMessageFlag marks messages recorded with the client's voice message button.
const voiceMessageFlag discordgo.MessageFlags = 1 << 13

// Commands returns the application commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name: CommandTranscribe,
			Type: discordgo.MessageApplicationCommand,
		},
		{
			Name:        CommandExit,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Shut the bot down (owner only)",
		},
		{
			Name:        CommandOpenSource,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Where to find the source code of this bot",
		},
	}
}

// SyncCommands overwrites the registered commands. An empty guildID
// registers them globally.
func SyncCommands(session Session, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	created, err := session.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	if err != nil {
		return nil, fmt.Errorf("sync commands: %w", err)
	}
	return created, nil
}

func openSourceEmbed(sourceURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Open Source",
		Description: fmt.Sprintf("This bot is open source! You can find the source code [here](%s)", sourceURL),
		Color:       0x00ff00,
	}
}
