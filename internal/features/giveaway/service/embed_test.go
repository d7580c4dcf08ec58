package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

func sampleGiveaway() *models.Giveaway {
	start := time.Unix(1_700_000_000, 0)
	return &models.Giveaway{
		ID:        "123",
		Prize:     "Nitro",
		Message:   "good luck",
		ImageURL:  "https://example.com/a.png",
		Winners:   2,
		StartedAt: start,
		EndsAt:    start.Add(time.Hour),
		HostID:    "host",
		ChannelID: "chan",
	}
}

func TestAnnouncementMessage(t *testing.T) {
	msg := AnnouncementMessage(sampleGiveaway(), 0xff0000)

	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]
	assert.Equal(t, TitleNew, embed.Title)
	assert.Contains(t, embed.Description, "Nitro")
	assert.Equal(t, 0xff0000, embed.Color)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://example.com/a.png", embed.Image.URL)

	fields := map[string]string{}
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "<@host>", fields[FieldHost])
	assert.Equal(t, "<t:1700003600:R>", fields[FieldEnds])
	assert.Equal(t, "`2` people", fields[FieldWinners])
	assert.Equal(t, "> good luck", fields[FieldMessage])

	require.Len(t, msg.Components, 1)
	row, ok := msg.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)
	assert.Equal(t, "action_123", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "info_123", row.Components[1].(discordgo.Button).CustomID)
}

func TestAnnouncementSingleWinnerWithoutImage(t *testing.T) {
	g := sampleGiveaway()
	g.Winners = 1
	g.ImageURL = ""

	embed := AnnouncementMessage(g, NeutralColor).Embeds[0]
	assert.Nil(t, embed.Image)
	for _, f := range embed.Fields {
		if f.Name == FieldWinners {
			assert.Equal(t, "`1` person", f.Value)
		}
	}
}

// decoded mimics a message read back from the API, where components are pointers.
func decoded(t *testing.T, send *discordgo.MessageSend) *discordgo.Message {
	t.Helper()
	data, err := json.Marshal(send)
	require.NoError(t, err)
	var msg discordgo.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	msg.ID = "m1"
	msg.ChannelID = "chan"
	return &msg
}

func TestEndedEdit(t *testing.T) {
	msg := decoded(t, AnnouncementMessage(sampleGiveaway(), 0x123456))

	edit := EndedEdit(msg, []models.Participant{{ID: "u1"}, {ID: "u2"}})

	require.NotNil(t, edit.Embeds)
	embeds := *edit.Embeds
	require.Len(t, embeds, 1)
	assert.Equal(t, TitleEnded, embeds[0].Title)
	assert.Equal(t, 0x123456, embeds[0].Color)
	assert.Equal(t, msg.Embeds[0].Description, embeds[0].Description)

	names := make([]string, 0, len(embeds[0].Fields))
	for _, f := range embeds[0].Fields {
		names = append(names, f.Name)
		if f.Name == FieldWinners {
			assert.Equal(t, "<@u1>\n<@u2>", f.Value)
		}
	}
	assert.Equal(t, []string{FieldHost, FieldEnded, FieldWinners, FieldMessage}, names)

	// the fetched message is not mutated
	assert.Equal(t, TitleNew, msg.Embeds[0].Title)

	require.NotNil(t, edit.Components)
	components := *edit.Components
	require.Len(t, components, 1)
	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	for _, c := range row.Components {
		button, ok := c.(discordgo.Button)
		require.True(t, ok)
		assert.True(t, button.Disabled)
	}
}

func TestEndedEditWithoutWinners(t *testing.T) {
	msg := decoded(t, AnnouncementMessage(sampleGiveaway(), NeutralColor))

	edit := EndedEdit(msg, nil)
	for _, f := range (*edit.Embeds)[0].Fields {
		if f.Name == FieldWinners {
			assert.Equal(t, NoWinners, f.Value)
		}
	}
}

func TestParticipantsList(t *testing.T) {
	assert.Equal(t, MsgNoParticipants, ParticipantsList(nil))
	assert.Equal(t,
		"## people participating:\n* <@u1>\n* <@u2>",
		ParticipantsList([]models.Participant{{ID: "u1"}, {ID: "u2"}}),
	)
}

func TestDisabledEdit(t *testing.T) {
	msg := decoded(t, AnnouncementMessage(sampleGiveaway(), NeutralColor))

	edit := DisabledEdit(msg)
	assert.Nil(t, edit.Embeds, "embeds are not rewritten")
	assert.Equal(t, "m1", edit.ID)

	require.NotNil(t, edit.Components)
	row, ok := (*edit.Components)[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)
	for _, c := range row.Components {
		assert.True(t, c.(discordgo.Button).Disabled)
	}
}
