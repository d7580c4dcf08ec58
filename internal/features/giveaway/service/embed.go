package service

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

// AnnouncementMessage renders the public giveaway post with its two buttons.
func AnnouncementMessage(g *models.Giveaway, color int) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       TitleNew,
		Description: fmt.Sprintf("Click the button and have a chance to win:\n```md\n%s\n```", g.Prize),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: FieldHost, Value: Mention(g.HostID), Inline: true},
			{Name: FieldEnds, Value: fmt.Sprintf("<t:%d:R>", g.EndsAt.Unix()), Inline: true},
			{Name: FieldWinners, Value: winnersLabel(g.Winners), Inline: true},
			{Name: FieldMessage, Value: "> " + g.Message},
		},
	}
	if g.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: g.ImageURL}
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Emoji:    &discordgo.ComponentEmoji{Name: "🎉"},
					Style:    discordgo.PrimaryButton,
					CustomID: LabelAction + "_" + g.ID,
				},
				discordgo.Button{
					Label:    InfoLabelText,
					Emoji:    &discordgo.ComponentEmoji{Name: "👥"},
					Style:    discordgo.SecondaryButton,
					CustomID: LabelInfo + "_" + g.ID,
				},
			}},
		},
	}
}

// EndedEdit turns a fetched announcement into its final state.
// Only the title, the Winners value and the Ends name change; every button is disabled.
func EndedEdit(msg *discordgo.Message, winners []models.Participant) *discordgo.MessageEdit {
	embeds := make([]*discordgo.MessageEmbed, 0, len(msg.Embeds))
	for i, e := range msg.Embeds {
		if e == nil {
			continue
		}
		copied := *e
		if i == 0 {
			copied.Title = TitleEnded
			copied.Fields = endedFields(e.Fields, winners)
		}
		embeds = append(embeds, &copied)
	}

	components := disableComponents(msg.Components)
	return &discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Embeds:     &embeds,
		Components: &components,
	}
}

// DisabledEdit keeps the announcement as is but disables every button.
func DisabledEdit(msg *discordgo.Message) *discordgo.MessageEdit {
	components := disableComponents(msg.Components)
	return &discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Components: &components,
	}
}

func disableComponents(in []discordgo.MessageComponent) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(in))
	for _, c := range in {
		out = append(out, disableComponent(c))
	}
	return out
}

func endedFields(fields []*discordgo.MessageEmbedField, winners []models.Participant) []*discordgo.MessageEmbedField {
	out := make([]*discordgo.MessageEmbedField, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		copied := *f
		switch f.Name {
		case FieldWinners:
			copied.Value = WinnersValue(winners)
		case FieldEnds:
			copied.Name = FieldEnded
		}
		out = append(out, &copied)
	}
	return out
}

func disableComponent(c discordgo.MessageComponent) discordgo.MessageComponent {
	switch v := c.(type) {
	case *discordgo.ActionsRow:
		return disableRow(*v)
	case discordgo.ActionsRow:
		return disableRow(v)
	case *discordgo.Button:
		b := *v
		b.Disabled = true
		return b
	case discordgo.Button:
		v.Disabled = true
		return v
	case *discordgo.SelectMenu:
		m := *v
		m.Disabled = true
		return m
	case discordgo.SelectMenu:
		v.Disabled = true
		return v
	default:
		return c
	}
}

func disableRow(row discordgo.ActionsRow) discordgo.ActionsRow {
	inner := make([]discordgo.MessageComponent, 0, len(row.Components))
	for _, c := range row.Components {
		inner = append(inner, disableComponent(c))
	}
	return discordgo.ActionsRow{Components: inner}
}

// WinnersValue lists winner mentions one per line, or the no-winner marker.
func WinnersValue(winners []models.Participant) string {
	if len(winners) == 0 {
		return NoWinners
	}
	mentions := make([]string, 0, len(winners))
	for _, w := range winners {
		mentions = append(mentions, Mention(w.ID))
	}
	return strings.Join(mentions, "\n")
}

// ParticipantsList renders the info reply.
func ParticipantsList(participants []models.Participant) string {
	if len(participants) == 0 {
		return MsgNoParticipants
	}
	var b strings.Builder
	b.WriteString("## people participating:")
	for _, p := range participants {
		b.WriteString("\n* ")
		b.WriteString(Mention(p.ID))
	}
	return b.String()
}

func Mention(userID string) string {
	return "<@" + userID + ">"
}

func winnersLabel(n int) string {
	if n > 1 {
		return fmt.Sprintf("`%d` people", n)
	}
	return fmt.Sprintf("`%d` person", n)
}
