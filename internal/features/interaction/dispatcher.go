package interaction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/errors"
	"discord-giveaway-bot/internal/common/metrics"
)

const (
	MessageCommandNotFound   = "Command not found"
	MessageComponentNotFound = "Component not found"
)

// Dispatcher routes verified interaction payloads to registered handlers.
type Dispatcher struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewDispatcher seals the registry. An empty registry is a startup error.
func NewDispatcher(registry *Registry, logger zerolog.Logger) (*Dispatcher, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, errors.New(errors.ErrCodeNoHandlersRegistered, "No interaction handlers registered")
	}
	registry.Seal()
	logger.Info().Strs("handlers", registry.Keys()).Msg("Interaction handlers registered")
	return &Dispatcher{registry: registry, logger: logger}, nil
}

// Dispatch decodes body and produces the interaction response.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (*Result, error) {
	var i discordgo.Interaction
	if err := json.Unmarshal(body, &i); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "Malformed interaction payload")
	}

	switch i.Type {
	case discordgo.InteractionPing:
		metrics.IncInteraction("ping", "ok")
		return &Result{Response: &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}}, nil

	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := d.registry.Resolve(KindCommand, name)
		if !ok {
			metrics.IncInteraction("command", "not_found")
			d.logger.Warn().Str("command", name).Msg("Unknown command")
			return Ephemeral(MessageCommandNotFound), nil
		}
		return d.invoke(ctx, "command", handler, &Request{Interaction: &i})

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		label, correlationID := SplitCustomID(customID)
		handler, ok := d.registry.Resolve(KindLabel, label)
		if !ok {
			metrics.IncInteraction("component", "not_found")
			d.logger.Warn().Str("custom_id", customID).Msg("Unknown component")
			return Ephemeral(MessageComponentNotFound), nil
		}
		return d.invoke(ctx, "component", handler, &Request{Interaction: &i, CorrelationID: correlationID})
	}

	metrics.IncInteraction("unsupported", "rejected")
	return nil, errors.New(errors.ErrCodeUnsupportedInteraction, "Unsupported interaction type").
		WithDetail("type", int(i.Type))
}

func (d *Dispatcher) invoke(ctx context.Context, kind string, handler Handler, req *Request) (*Result, error) {
	result, err := handler.Handle(ctx, req)
	if err != nil {
		metrics.IncInteraction(kind, "error")
		return nil, err
	}
	if result == nil || result.Response == nil {
		metrics.IncInteraction(kind, "error")
		return nil, errors.New(errors.ErrCodeInternal, "Handler returned no response")
	}
	metrics.IncInteraction(kind, "ok")
	return result, nil
}

// SplitCustomID splits on the first underscore: "action_123" -> ("action", "123").
func SplitCustomID(customID string) (label, correlationID string) {
	label, correlationID, _ = strings.Cut(customID, "_")
	return label, correlationID
}
