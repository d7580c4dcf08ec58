package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

const (
	keyDrawQueue       = "giveaway:draws"
	keyDrawAttempts    = "giveaway:draws:attempts"
	keyDrawUndelivered = "giveaway:draws:undelivered"
)

// leaseScript moves due members to now+lease and bumps their delivery count.
// KEYS[1] queue, KEYS[2] attempts hash; ARGV[1] now ms, ARGV[2] visible-again ms, ARGV[3] limit.
var leaseScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[3]))
local out = {}
for _, member in ipairs(due) do
	redis.call("ZADD", KEYS[1], ARGV[2], member)
	local n = redis.call("HINCRBY", KEYS[2], member, 1)
	table.insert(out, member)
	table.insert(out, n)
end
return out
`)

type deadLetter struct {
	Task     json.RawMessage `json:"task"`
	Attempts int             `json:"attempts"`
	Reason   string          `json:"reason"`
	At       time.Time       `json:"at"`
}

type drawQueue struct {
	client redis.UniversalClient
	lease  time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

type QueueOption func(*drawQueue)

// WithClock replaces time.Now, letting tests move the queue forward in time.
func WithClock(now func() time.Time) QueueOption {
	return func(q *drawQueue) {
		q.now = now
	}
}

// WithLogger reports failures that Lease cannot return to the caller.
func WithLogger(logger zerolog.Logger) QueueOption {
	return func(q *drawQueue) {
		q.logger = logger
	}
}

// NewDrawQueue keeps tasks in a sorted set scored by due time (unix ms).
// A leased task becomes visible again after lease unless it is acked.
func NewDrawQueue(client redis.UniversalClient, lease time.Duration, opts ...QueueOption) repository.DrawQueue {
	q := &drawQueue{client: client, lease: lease, now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *drawQueue) Enqueue(ctx context.Context, task models.DrawTask, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	member, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal draw task: %w", err)
	}

	due := q.now().Add(delay).UnixMilli()
	if err := q.client.ZAdd(ctx, keyDrawQueue, redis.Z{Score: float64(due), Member: string(member)}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue draw task: %w", err)
	}
	return nil
}

func (q *drawQueue) Lease(ctx context.Context, limit int) ([]models.Delivery, error) {
	now := q.now()
	res, err := leaseScript.Run(ctx, q.client,
		[]string{keyDrawQueue, keyDrawAttempts},
		now.UnixMilli(),
		now.Add(q.lease).UnixMilli(),
		limit,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to lease draw tasks: %w", err)
	}

	deliveries := make([]models.Delivery, 0, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		member, _ := res[i].(string)
		attempts, err := toInt(res[i+1])
		if err != nil {
			return nil, err
		}

		var task models.DrawTask
		if err := json.Unmarshal([]byte(member), &task); err != nil {
			// Unparseable members can never succeed; park them right away.
			if dlErr := q.DeadLetter(ctx, models.Delivery{Raw: member, Attempts: attempts}, "malformed task: "+err.Error()); dlErr != nil {
				q.logger.Error().Err(dlErr).Str("member", member).Msg("Failed to dead-letter malformed draw task")
			}
			continue
		}
		deliveries = append(deliveries, models.Delivery{Task: task, Attempts: attempts, Raw: member})
	}
	return deliveries, nil
}

func (q *drawQueue) Ack(ctx context.Context, delivery models.Delivery) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, keyDrawQueue, delivery.Raw)
		pipe.HDel(ctx, keyDrawAttempts, delivery.Raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ack draw task: %w", err)
	}
	return nil
}

func (q *drawQueue) DeadLetter(ctx context.Context, delivery models.Delivery, reason string) error {
	entry, err := json.Marshal(deadLetter{
		Task:     json.RawMessage(delivery.Raw),
		Attempts: delivery.Attempts,
		Reason:   reason,
		At:       q.now(),
	})
	if err != nil || !json.Valid([]byte(delivery.Raw)) {
		entry, _ = json.Marshal(map[string]interface{}{"raw": delivery.Raw, "reason": reason})
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, keyDrawQueue, delivery.Raw)
		pipe.HDel(ctx, keyDrawAttempts, delivery.Raw)
		pipe.LPush(ctx, keyDrawUndelivered, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to dead-letter draw task: %w", err)
	}
	return nil
}

func (q *drawQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, keyDrawQueue).Result()
}

func (q *drawQueue) DeadLetters(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, keyDrawUndelivered).Result()
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unexpected attempts value %T", v)
	}
}
