package repository

import (
	"context"
	"errors"
	"time"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrGiveawayExists   = errors.New("giveaway already exists")
	ErrConflict         = errors.New("giveaway update conflicted too many times")
	ErrAlreadyClaimed   = errors.New("giveaway is already claimed")
)

// GiveawayRepository is the durable map of giveaway records.
type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	// Update applies fn to the current record and writes it back atomically.
	// If fn returns an error nothing is written and the error is returned.
	// A missing record yields ErrGiveawayNotFound and is never recreated.
	Update(ctx context.Context, id string, fn func(*models.Giveaway) error) (*models.Giveaway, error)
	Delete(ctx context.Context, id string) error

	// Claim takes the exclusive draw claim for id and returns its token.
	Claim(ctx context.Context, id string, ttl time.Duration) (string, error)
	// HoldsClaim reports whether token still owns the claim for id.
	HoldsClaim(ctx context.Context, id, token string) (bool, error)
	// ReleaseClaim drops the claim only when token still owns it.
	ReleaseClaim(ctx context.Context, id, token string) error
}

// DrawQueue is the durable at-least-once delayed queue of draw tasks.
type DrawQueue interface {
	Enqueue(ctx context.Context, task models.DrawTask, delay time.Duration) error
	// Lease returns up to limit due tasks and hides them for the lease duration.
	Lease(ctx context.Context, limit int) ([]models.Delivery, error)
	Ack(ctx context.Context, delivery models.Delivery) error
	// DeadLetter removes the task and records it in the undelivered list.
	DeadLetter(ctx context.Context, delivery models.Delivery, reason string) error
	Depth(ctx context.Context) (int64, error)
	DeadLetters(ctx context.Context) (int64, error)
}
