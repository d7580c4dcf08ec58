// Package discord binds the giveaway engine to slash commands and buttons.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/errors"
	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/service"
	"discord-giveaway-bot/internal/features/interaction"
)

const (
	CommandHello  = "hello"
	CommandCreate = "create"

	OptionPrize    = "prize"
	OptionDuration = "duration"
	OptionMessage  = "message"
	OptionImage    = "image"
	OptionWinners  = "winners"
)

type GiveawayService interface {
	ValidateCreate(in *service.CreateInput) (time.Duration, error)
	Create(ctx context.Context, in *service.CreateInput, duration time.Duration) error
	Toggle(ctx context.Context, giveawayID string, p models.Participant) (models.ToggleAction, error)
	Participants(ctx context.Context, giveawayID string) ([]models.Participant, error)
}

type GiveawayHandler struct {
	service GiveawayService
	logger  zerolog.Logger
}

func NewGiveawayHandler(service GiveawayService, logger zerolog.Logger) *GiveawayHandler {
	return &GiveawayHandler{
		service: service,
		logger:  logger,
	}
}

func (h *GiveawayHandler) Register(registry *interaction.Registry) error {
	routes := []struct {
		kind interaction.Kind
		name string
		fn   interaction.HandlerFunc
	}{
		{interaction.KindCommand, CommandHello, h.hello},
		{interaction.KindCommand, CommandCreate, h.create},
		{interaction.KindLabel, service.LabelAction, h.toggle},
		{interaction.KindLabel, service.LabelInfo, h.info},
	}
	for _, r := range routes {
		if err := registry.Register(r.kind, r.name, r.fn); err != nil {
			return err
		}
	}
	return nil
}

func (h *GiveawayHandler) hello(_ context.Context, req *interaction.Request) (*interaction.Result, error) {
	username := ""
	if u := interaction.UserOf(req.Interaction); u != nil {
		username = u.Username
	}
	return interaction.Public(fmt.Sprintf(service.MsgHello, username)), nil
}

func (h *GiveawayHandler) create(_ context.Context, req *interaction.Request) (*interaction.Result, error) {
	i := req.Interaction

	values := make(map[string]string, 3)
	for _, name := range []string{OptionPrize, OptionDuration, OptionMessage} {
		v, ok := interaction.StringOption(i, name)
		if !ok || v == "" {
			return interaction.Ephemeral(fmt.Sprintf(service.MsgMissingOption, name)), nil
		}
		values[name] = v
	}

	winners := int64(service.DefaultWinners)
	if n, ok := interaction.IntOption(i, OptionWinners); ok {
		winners = n
	}
	image, _ := interaction.StringOption(i, OptionImage)

	hostID := ""
	if u := interaction.UserOf(i); u != nil {
		hostID = u.ID
	}

	in := &service.CreateInput{
		InteractionID:    i.ID,
		ApplicationID:    i.AppID,
		InteractionToken: i.Token,
		ChannelID:        i.ChannelID,
		HostID:           hostID,
		Prize:            values[OptionPrize],
		Duration:         values[OptionDuration],
		Message:          values[OptionMessage],
		ImageURL:         image,
		Winners:          winners,
	}

	duration, err := h.service.ValidateCreate(in)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeValidation {
			return interaction.Ephemeral(appErr.Message), nil
		}
		return nil, err
	}

	// The follow-up context belongs to the runner, not to the HTTP request.
	return interaction.Deferred(func(ctx context.Context) error {
		return h.service.Create(ctx, in, duration)
	}), nil
}

func (h *GiveawayHandler) toggle(ctx context.Context, req *interaction.Request) (*interaction.Result, error) {
	user := interaction.UserOf(req.Interaction)
	if user == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "Interaction has no user")
	}

	action, err := h.service.Toggle(ctx, req.CorrelationID, models.Participant{
		ID:          user.ID,
		DisplayName: interaction.DisplayName(req.Interaction),
	})
	if errors.HasCode(err, errors.ErrCodeGiveawayNotFound) {
		return interaction.Ephemeral(service.MsgNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	if action == models.ToggleLeft {
		return interaction.Ephemeral(service.MsgLeft), nil
	}
	return interaction.Ephemeral(service.MsgEntered), nil
}

func (h *GiveawayHandler) info(ctx context.Context, req *interaction.Request) (*interaction.Result, error) {
	participants, err := h.service.Participants(ctx, req.CorrelationID)
	if err != nil {
		return nil, err
	}
	return interaction.Ephemeral(service.ParticipantsList(participants)), nil
}
