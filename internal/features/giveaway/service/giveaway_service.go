package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xhit/go-str2duration/v2"

	"discord-giveaway-bot/internal/common/errors"
	"discord-giveaway-bot/internal/common/metrics"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// CreateInput carries the /create options and the interaction coordinates
// needed to post the announcement and edit the deferred placeholder.
type CreateInput struct {
	InteractionID    string
	ApplicationID    string
	InteractionToken string
	ChannelID        string
	HostID           string

	Prize    string
	Duration string
	Message  string
	ImageURL string
	Winners  int64
}

type Options struct {
	MaxDuration time.Duration
	Logger      zerolog.Logger
	// Now is overridable in tests.
	Now func() time.Time
}

// GiveawayService implements create, toggle and info.
type GiveawayService struct {
	repo    repository.GiveawayRepository
	queue   repository.DrawQueue
	discord DiscordClient
	colors  ColorExtractor
	maxDur  time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func NewGiveawayService(repo repository.GiveawayRepository, queue repository.DrawQueue, discord DiscordClient, colors ColorExtractor, opts Options) *GiveawayService {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GiveawayService{
		repo:    repo,
		queue:   queue,
		discord: discord,
		colors:  colors,
		maxDur:  opts.MaxDuration,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// ParseDuration accepts relative durations like "1h 20m", "1d" or "90s".
// Whitespace is ignored.
func ParseDuration(raw string) (time.Duration, error) {
	compact := strings.Join(strings.Fields(raw), "")
	if compact == "" {
		return 0, fmt.Errorf("empty duration")
	}
	d, err := str2duration.ParseDuration(compact)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}

// ValidateCreate checks the options synchronously. The returned AppError
// carries the message shown to the user.
func (s *GiveawayService) ValidateCreate(in *CreateInput) (time.Duration, error) {
	d, err := ParseDuration(in.Duration)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeValidation, MsgInvalidDuration).
			WithDetail("duration", in.Duration)
	}
	if d > s.maxDur {
		return 0, errors.New(errors.ErrCodeValidation, MsgDurationTooLong).
			WithDetail("duration", d.String()).
			WithDetail("max", s.maxDur.String())
	}
	if in.Winners < 1 {
		return 0, errors.New(errors.ErrCodeValidation, MsgInvalidWinners).
			WithDetail("winners", in.Winners)
	}
	return d, nil
}

// Create posts the announcement, persists the record, schedules the draw and
// reports back through the deferred placeholder. It runs as a follow-up.
func (s *GiveawayService) Create(ctx context.Context, in *CreateInput, duration time.Duration) error {
	log := s.logger.With().Str("giveaway_id", in.InteractionID).Str("channel_id", in.ChannelID).Logger()

	startedAt := s.now()
	g := &models.Giveaway{
		ID:           in.InteractionID,
		Prize:        in.Prize,
		Message:      in.Message,
		ImageURL:     in.ImageURL,
		Winners:      int(in.Winners),
		StartedAt:    startedAt,
		EndsAt:       startedAt.Add(duration),
		HostID:       in.HostID,
		ChannelID:    in.ChannelID,
		Participants: []models.Participant{},
	}
	if err := g.Validate(); err != nil {
		s.notifyPlaceholder(ctx, in, MsgCreateFailed)
		return errors.Wrap(err, errors.ErrCodeValidation, "Invalid giveaway")
	}

	msg, err := s.discord.PostMessage(ctx, in.ChannelID, AnnouncementMessage(g, s.accentColor(ctx, in.ImageURL)))
	if err != nil {
		log.Error().Err(err).Msg("Failed to post giveaway announcement")
		s.notifyPlaceholder(ctx, in, MsgCreateFailed)
		return fmt.Errorf("post announcement: %w", err)
	}
	g.MessageID = msg.ID

	if err := s.repo.Create(ctx, g); err != nil {
		log.Error().Err(err).Msg("Failed to persist giveaway")
		s.retract(ctx, in.ChannelID, msg, log)
		s.notifyPlaceholder(ctx, in, MsgCreateFailed)
		return errors.NewStoreError("create giveaway", err)
	}

	task := models.DrawTask{
		ID:         uuid.New().String(),
		GiveawayID: g.ID,
		ChannelID:  g.ChannelID,
		MessageID:  g.MessageID,
		EnqueuedAt: startedAt,
	}
	if err := s.queue.Enqueue(ctx, task, duration); err != nil {
		log.Error().Err(err).Msg("Failed to schedule draw, removing giveaway")
		if delErr := s.repo.Delete(ctx, g.ID); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to remove unscheduled giveaway")
		}
		s.retract(ctx, in.ChannelID, msg, log)
		s.notifyPlaceholder(ctx, in, MsgCreateFailed)
		return errors.NewQueueError("enqueue draw", err)
	}

	log.Info().
		Str("message_id", g.MessageID).
		Time("ends_at", g.EndsAt).
		Int("winners", g.Winners).
		Msg("Giveaway created")

	content := fmt.Sprintf(MsgCreated, in.ChannelID)
	if err := s.discord.EditOriginalResponse(ctx, in.ApplicationID, in.InteractionToken, &discordgo.WebhookEdit{Content: &content}); err != nil {
		return fmt.Errorf("edit deferred response: %w", err)
	}
	return nil
}

// retract disables the buttons of an announcement that has no draw behind it.
func (s *GiveawayService) retract(ctx context.Context, channelID string, msg *discordgo.Message, log zerolog.Logger) {
	if err := s.discord.PatchMessage(ctx, channelID, msg.ID, DisabledEdit(msg)); err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to disable orphaned announcement")
	}
}

// Toggle flips the user's participation. A missing record yields GIVEAWAY_NOT_FOUND.
func (s *GiveawayService) Toggle(ctx context.Context, giveawayID string, p models.Participant) (models.ToggleAction, error) {
	var action models.ToggleAction
	_, err := s.repo.Update(ctx, giveawayID, func(g *models.Giveaway) error {
		action = g.Toggle(p)
		return nil
	})
	if stderrors.Is(err, repository.ErrGiveawayNotFound) {
		return "", errors.NewGiveawayNotFoundError(giveawayID)
	}
	if stderrors.Is(err, repository.ErrConflict) {
		return "", errors.Wrap(err, errors.ErrCodeConflict, "Too many concurrent updates")
	}
	if err != nil {
		return "", errors.NewStoreError("toggle participant", err)
	}

	metrics.IncToggle(string(action))
	s.logger.Debug().
		Str("giveaway_id", giveawayID).
		Str("user_id", p.ID).
		Str("action", string(action)).
		Msg("Participation toggled")
	return action, nil
}

// Participants is read-only; a missing record reads as empty.
func (s *GiveawayService) Participants(ctx context.Context, giveawayID string) ([]models.Participant, error) {
	g, err := s.repo.GetByID(ctx, giveawayID)
	if stderrors.Is(err, repository.ErrGiveawayNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreError("load giveaway", err)
	}
	return g.Participants, nil
}

func (s *GiveawayService) accentColor(ctx context.Context, imageURL string) int {
	if imageURL == "" || s.colors == nil {
		return NeutralColor
	}
	color, err := s.colors.AccentColor(ctx, imageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("image_url", imageURL).Msg("Falling back to neutral embed color")
		return NeutralColor
	}
	return color
}

func (s *GiveawayService) notifyPlaceholder(ctx context.Context, in *CreateInput, content string) {
	if err := s.discord.EditOriginalResponse(ctx, in.ApplicationID, in.InteractionToken, &discordgo.WebhookEdit{Content: &content}); err != nil {
		s.logger.Error().Err(err).Str("giveaway_id", in.InteractionID).Msg("Failed to edit deferred response")
	}
}
