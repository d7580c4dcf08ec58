package interaction

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Request is what a registered handler receives.
type Request struct {
	Interaction *discordgo.Interaction
	// CorrelationID is the custom_id part after the first underscore.
	// Empty for application commands.
	CorrelationID string
}

// Followup runs after the HTTP response has been flushed.
type Followup func(ctx context.Context) error

// Result is the synchronous response plus an optional deferred follow-up.
type Result struct {
	Response *discordgo.InteractionResponse
	Followup Followup
}

type Handler interface {
	Handle(ctx context.Context, req *Request) (*Result, error)
}

type HandlerFunc func(ctx context.Context, req *Request) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// Ephemeral builds a channel message visible only to the invoking user.
func Ephemeral(content string) *Result {
	return &Result{Response: &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}}
}

// Public builds a channel message visible to everyone.
func Public(content string) *Result {
	return &Result{Response: &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	}}
}

// Deferred acknowledges with an ephemeral placeholder and schedules followup.
func Deferred(followup Followup) *Result {
	return &Result{
		Response: &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags: discordgo.MessageFlagsEphemeral,
			},
		},
		Followup: followup,
	}
}

// UserOf returns the invoking user for guild and DM interactions alike.
func UserOf(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// DisplayName prefers the guild nickname, then the global name, then the username.
func DisplayName(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	u := UserOf(i)
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Option finds a top level slash command option by name.
func Option(i *discordgo.Interaction, name string) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}
	for _, opt := range i.ApplicationCommandData().Options {
		if opt != nil && opt.Name == name {
			return opt, true
		}
	}
	return nil, false
}

// StringOption reads a string option. Missing or non-string values report false.
func StringOption(i *discordgo.Interaction, name string) (string, bool) {
	opt, ok := Option(i, name)
	if !ok {
		return "", false
	}
	s, ok := opt.Value.(string)
	return s, ok
}

// IntOption reads an integer option. JSON numbers decode as float64.
func IntOption(i *discordgo.Interaction, name string) (int64, bool) {
	opt, ok := Option(i, name)
	if !ok {
		return 0, false
	}
	switch v := opt.Value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
