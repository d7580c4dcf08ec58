package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"discord-giveaway-bot/internal/common/config"
	"discord-giveaway-bot/internal/common/logger"
	giveawayDelivery "discord-giveaway-bot/internal/features/giveaway/delivery/discord"
	"discord-giveaway-bot/internal/platform/discord"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadRegister()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init("discord-giveaway-register", cfg.Debug)

	client := discord.NewClient(discord.Options{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.BotToken,
		Timeout: cfg.Timeout,
		Logger:  logger.Component("discord"),
	})

	registered, err := client.OverwriteCommands(ctx, cfg.ApplicationID, giveawayDelivery.Commands())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to register commands")
	}
	for _, cmd := range registered {
		logger.Info().Str("command", cmd.Name).Str("id", cmd.ID).Msg("Command registered")
	}
}
