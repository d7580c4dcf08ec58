package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/metrics"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
	"discord-giveaway-bot/internal/utils/random"
)

var (
	// ErrDrawAbandoned marks failures that must not be retried; the task is consumed.
	ErrDrawAbandoned = stderrors.New("draw abandoned")
	// ErrDrawInProgress means another delivery holds the claim for this giveaway.
	ErrDrawInProgress = stderrors.New("draw already in progress")
	// ErrClaimLost means the claim expired before the announcement was patched.
	ErrClaimLost = stderrors.New("draw claim lost")
)

// IsPermanent reports whether err should consume the task instead of retrying it.
func IsPermanent(err error) bool {
	return stderrors.Is(err, ErrDrawAbandoned)
}

type DrawService struct {
	repo     repository.GiveawayRepository
	discord  DiscordClient
	claimTTL time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewDrawService(repo repository.GiveawayRepository, discord DiscordClient, claimTTL time.Duration, logger zerolog.Logger) *DrawService {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &DrawService{
		repo:     repo,
		discord:  discord,
		claimTTL: claimTTL,
		timeout:  DrawTimeout(claimTTL),
		logger:   logger,
	}
}

// DrawTimeout is the budget of a single draw holding a claim of claimTTL.
// It ends before the claim expires so no side effect outlives the claim.
func DrawTimeout(claimTTL time.Duration) time.Duration {
	margin := claimTTL / 10
	if margin > ClaimSafetyMargin {
		margin = ClaimSafetyMargin
	}
	return claimTTL - margin
}

// Timeout reports the per-draw budget; callers should not give a draw more.
func (s *DrawService) Timeout() time.Duration {
	return s.timeout
}

// Draw closes the giveaway behind task. Outbound side effects happen only
// while holding the claim, and the record is deleted only after the
// announcement was patched, so a redelivered task becomes a no-op.
func (s *DrawService) Draw(ctx context.Context, task models.DrawTask) error {
	log := s.logger.With().Str("giveaway_id", task.GiveawayID).Str("task_id", task.ID).Logger()
	start := time.Now()
	defer metrics.ObserveDraw(start)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.repo.Claim(ctx, task.GiveawayID, s.claimTTL)
	if stderrors.Is(err, repository.ErrAlreadyClaimed) {
		return ErrDrawInProgress
	}
	if err != nil {
		return fmt.Errorf("claim giveaway: %w", err)
	}
	defer s.release(ctx, task.GiveawayID, token, log)

	g, err := s.repo.GetByID(ctx, task.GiveawayID)
	if stderrors.Is(err, repository.ErrGiveawayNotFound) {
		log.Debug().Msg("Giveaway already closed, nothing to draw")
		metrics.IncDraw("noop")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load giveaway: %w", err)
	}

	winners, err := random.Sample(g.Participants, g.Winners)
	if err != nil {
		return fmt.Errorf("select winners: %w", err)
	}

	msg, err := s.discord.FetchMessage(ctx, task.ChannelID, task.MessageID)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("fetch announcement: %w", err)
	}
	if err != nil {
		log.Error().Err(err).Msg("Announcement unavailable, dropping giveaway")
		if delErr := s.repo.Delete(ctx, task.GiveawayID); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to delete giveaway")
		}
		metrics.IncDraw("abandoned")
		return fmt.Errorf("%w: fetch announcement: %w", ErrDrawAbandoned, err)
	}

	held, err := s.repo.HoldsClaim(ctx, task.GiveawayID, token)
	if err != nil {
		return fmt.Errorf("verify claim: %w", err)
	}
	if !held {
		log.Warn().Msg("Draw claim expired before patching, leaving it to the new owner")
		metrics.IncDraw("claim_lost")
		return ErrClaimLost
	}

	if err := s.discord.PatchMessage(ctx, task.ChannelID, task.MessageID, EndedEdit(msg, winners)); err != nil {
		metrics.IncDraw("patch_failed")
		return fmt.Errorf("patch announcement: %w", err)
	}

	// The announcement is final now; a failed delete only leaves a record
	// that expires on its own and whose buttons are disabled.
	if err := s.repo.Delete(ctx, task.GiveawayID); err != nil {
		log.Error().Err(err).Msg("Failed to delete drawn giveaway")
	}

	metrics.IncDraw("success")
	log.Info().
		Int("participants", len(g.Participants)).
		Int("winners", len(winners)).
		Dur("elapsed", time.Since(start)).
		Msg("Giveaway drawn")
	return nil
}

func (s *DrawService) release(ctx context.Context, giveawayID, token string, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.ReleaseClaim(ctx, giveawayID, token); err != nil {
		log.Warn().Err(err).Msg("Failed to release draw claim")
	}
}
