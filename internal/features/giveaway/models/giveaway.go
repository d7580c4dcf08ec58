package models

import (
	"errors"
	"time"
)

var (
	ErrInvalidWinnersCount = errors.New("winners count must be at least 1")
	ErrInvalidSchedule     = errors.New("giveaway must end after it starts")
)

// Participant is a user who opted in through the enter/leave button.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Giveaway is stored under giveaway:<ID>, where ID is the originating interaction id.
type Giveaway struct {
	ID           string        `json:"id"`
	Prize        string        `json:"prize"`
	Message      string        `json:"message,omitempty"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Winners      int           `json:"winners"`
	StartedAt    time.Time     `json:"startedAt"`
	EndsAt       time.Time     `json:"endsAt"`
	HostID       string        `json:"hostId"`
	ChannelID    string        `json:"channelId"`
	MessageID    string        `json:"messageId"`
	Participants []Participant `json:"participants"`
}

func (g *Giveaway) Validate() error {
	if g.Winners < 1 {
		return ErrInvalidWinnersCount
	}
	if !g.EndsAt.After(g.StartedAt) {
		return ErrInvalidSchedule
	}
	return nil
}

func (g *Giveaway) HasEnded(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

func (g *Giveaway) IndexOf(userID string) int {
	for i, p := range g.Participants {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

// Toggle removes the participant when present and appends it otherwise.
// Reports the resulting action.
func (g *Giveaway) Toggle(p Participant) ToggleAction {
	if idx := g.IndexOf(p.ID); idx >= 0 {
		g.Participants = append(g.Participants[:idx:idx], g.Participants[idx+1:]...)
		return ToggleLeft
	}
	g.Participants = append(g.Participants, p)
	return ToggleEntered
}

type ToggleAction string

const (
	ToggleEntered ToggleAction = "entered"
	ToggleLeft    ToggleAction = "left"
)

// DrawTask is the payload of the delayed queue.
type DrawTask struct {
	ID         string    `json:"id"`
	GiveawayID string    `json:"giveawayId"`
	ChannelID  string    `json:"channelId"`
	MessageID  string    `json:"messageId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Delivery is a leased task together with its delivery count (1 on first delivery).
type Delivery struct {
	Task     DrawTask
	Attempts int
	// Raw is the queue member used to ack the delivery.
	Raw string
}
