package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyPrefixClaim    = "giveaway:claim:"

	maxUpdateRetries = 32
)

// releaseClaimScript deletes the claim only if the caller still owns it.
var releaseClaimScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type giveawayRepository struct {
	client    redis.UniversalClient
	retention time.Duration
	now       func() time.Time
}

// NewGiveawayRepository stores records as JSON. Records expire retention
// after their end time so an undelivered draw cannot leak them forever.
func NewGiveawayRepository(client redis.UniversalClient, retention time.Duration) repository.GiveawayRepository {
	return &giveawayRepository{client: client, retention: retention, now: time.Now}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeClaimKey(id string) string {
	return keyPrefixClaim + id
}

func (r *giveawayRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	var ttl time.Duration
	if r.retention > 0 {
		ttl = giveaway.EndsAt.Sub(r.now()) + r.retention
		if ttl < r.retention {
			ttl = r.retention
		}
	}

	ok, err := r.client.SetNX(ctx, makeGiveawayKey(giveaway.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store giveaway: %w", err)
	}
	if !ok {
		return repository.ErrGiveawayExists
	}
	return nil
}

func (r *giveawayRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load giveaway: %w", err)
	}
	return decodeGiveaway(data)
}

func (r *giveawayRepository) Update(ctx context.Context, id string, fn func(*models.Giveaway) error) (*models.Giveaway, error) {
	key := makeGiveawayKey(id)
	var updated *models.Giveaway

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return repository.ErrGiveawayNotFound
		}
		if err != nil {
			return err
		}

		giveaway, err := decodeGiveaway(data)
		if err != nil {
			return err
		}
		if err := fn(giveaway); err != nil {
			return err
		}

		out, err := json.Marshal(giveaway)
		if err != nil {
			return fmt.Errorf("failed to marshal giveaway: %w", err)
		}

		// EXEC fails with TxFailedErr when key changed after WATCH.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, out, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			updated = giveaway
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, repository.ErrConflict
}

func (r *giveawayRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, makeGiveawayKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete giveaway: %w", err)
	}
	return nil
}

func (r *giveawayRepository) Claim(ctx context.Context, id string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, makeClaimKey(id), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire claim: %w", err)
	}
	if !ok {
		return "", repository.ErrAlreadyClaimed
	}
	return token, nil
}

func (r *giveawayRepository) HoldsClaim(ctx context.Context, id, token string) (bool, error) {
	current, err := r.client.Get(ctx, makeClaimKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read claim: %w", err)
	}
	return current == token, nil
}

func (r *giveawayRepository) ReleaseClaim(ctx context.Context, id, token string) error {
	if err := releaseClaimScript.Run(ctx, r.client, []string{makeClaimKey(id)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release claim: %w", err)
	}
	return nil
}

func decodeGiveaway(data []byte) (*models.Giveaway, error) {
	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, fmt.Errorf("failed to unmarshal giveaway: %w", err)
	}
	return &giveaway, nil
}
