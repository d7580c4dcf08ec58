package discord

import "github.com/bwmarrin/discordgo"

// Commands returns the slash command set pushed by cmd/register.
func Commands() []*discordgo.ApplicationCommand {
	dmPermission := false
	nsfw := false

	return []*discordgo.ApplicationCommand{
		{
			Type:         discordgo.ChatApplicationCommand,
			Name:         CommandHello,
			Description:  "Says hi back!",
			DMPermission: &dmPermission,
			NSFW:         &nsfw,
		},
		{
			Type:         discordgo.ChatApplicationCommand,
			Name:         CommandCreate,
			Description:  "Create a giveaway!",
			DMPermission: &dmPermission,
			NSFW:         &nsfw,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionPrize,
					Description: "The prize of the giveaway (supports markdown syntax highlighting)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionDuration,
					Description: "The relative duration of the giveaway such as 1h 20m",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionMessage,
					Description: "A place to put conditions, terms, FAQs",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionImage,
					Description: "A URL to the image to be shown (changes the embed color)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        OptionWinners,
					Description: "The amount of winners, defaults to 1",
				},
			},
		},
	}
}
