package service

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

// DiscordClient is the subset of the REST API the engine needs.
type DiscordClient interface {
	PostMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	PatchMessage(ctx context.Context, channelID, messageID string, edit *discordgo.MessageEdit) error
	EditOriginalResponse(ctx context.Context, applicationID, interactionToken string, edit *discordgo.WebhookEdit) error
}

// ColorExtractor derives the embed accent color from an image URL.
type ColorExtractor interface {
	AccentColor(ctx context.Context, url string) (int, error)
}

// Drawer closes one giveaway for a delivered draw task.
type Drawer interface {
	Draw(ctx context.Context, task models.DrawTask) error
}
