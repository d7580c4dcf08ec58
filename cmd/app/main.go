package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	colorCache "discord-giveaway-bot/internal/cache/redis"
	"discord-giveaway-bot/internal/common/config"
	"discord-giveaway-bot/internal/common/logger"
	"discord-giveaway-bot/internal/common/metrics"
	"discord-giveaway-bot/internal/common/middleware"
	giveawayDelivery "discord-giveaway-bot/internal/features/giveaway/delivery/discord"
	giveawayRepo "discord-giveaway-bot/internal/features/giveaway/repository/redis"
	giveawayService "discord-giveaway-bot/internal/features/giveaway/service"
	"discord-giveaway-bot/internal/features/interaction"
	interactionHTTP "discord-giveaway-bot/internal/features/interaction/delivery/http"
	"discord-giveaway-bot/internal/platform/discord"
	"discord-giveaway-bot/internal/platform/imagecolor"
	"discord-giveaway-bot/internal/platform/redis"
)

const serviceName = "discord-giveaway-bot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Debug)
	metrics.Init()

	logger.Info().Bool("debug", cfg.Debug).Msg("Starting Discord giveaway bot")

	publicKey, err := cfg.PublicKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid public key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redis.Open(ctx, redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis connection established")

	// Repositories
	giveaways := giveawayRepo.NewGiveawayRepository(redisClient, cfg.Giveaway.RecordRetention)
	draws := giveawayRepo.NewDrawQueue(redisClient, cfg.Scheduler.Lease, giveawayRepo.WithLogger(logger.Component("draw_queue")))

	// Outbound clients
	discordClient := discord.NewClient(discord.Options{
		BaseURL: cfg.Discord.APIBaseURL,
		Token:   cfg.Discord.BotToken,
		Timeout: cfg.Discord.RequestTimeout,
		Logger:  logger.Component("discord"),
	})
	colors := colorCache.NewCachedColors(
		colorCache.NewAccentColorCache(redisClient, cfg.Giveaway.ColorCacheTTL),
		imagecolor.NewExtractor(cfg.Giveaway.ImageFetchTimeout),
		logger.Component("colors"),
	)

	// Services
	giveawaySvc := giveawayService.NewGiveawayService(giveaways, draws, discordClient, colors, giveawayService.Options{
		MaxDuration: cfg.Giveaway.MaxDuration,
		Logger:      logger.Component("giveaway"),
	})
	drawSvc := giveawayService.NewDrawService(giveaways, discordClient, cfg.Scheduler.Lease, logger.Component("draw"))
	scheduler := giveawayService.NewScheduler(draws, drawSvc, giveawayService.SchedulerOptions{
		PollInterval: cfg.Scheduler.PollInterval,
		TaskTimeout:  drawSvc.Timeout(),
		MaxAttempts:  cfg.Scheduler.MaxAttempts,
		BatchSize:    cfg.Scheduler.BatchSize,
		Concurrency:  cfg.Scheduler.Concurrency,
		Logger:       logger.Component("scheduler"),
	})

	// Interaction routing
	registry := interaction.NewRegistry()
	if err := giveawayDelivery.NewGiveawayHandler(giveawaySvc, logger.Component("giveaway")).Register(registry); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register interaction handlers")
	}
	dispatcher, err := interaction.NewDispatcher(registry, logger.Component("dispatcher"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build dispatcher")
	}
	followups := interaction.NewRunner(interaction.RunnerOptions{
		Delay:       cfg.Giveaway.FollowupDelay,
		Timeout:     cfg.Giveaway.FollowupTimeout,
		Concurrency: cfg.Giveaway.MaxFollowups,
		Logger:      logger.Component("followup"),
	})

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(middleware.Recovery(logger.Component("http")))
	router.Use(middleware.ErrorHandler(logger.Component("http")))

	interactionHTTP.NewInteractionHandler(
		interaction.NewVerifier(publicKey),
		dispatcher,
		followups,
		logger.Component("interactions"),
	).RegisterRoutes(router)
	setupProbes(router, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	scheduler.Start()

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := followups.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Follow-ups did not finish in time")
	}
	scheduler.Stop()

	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, redisClient *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
