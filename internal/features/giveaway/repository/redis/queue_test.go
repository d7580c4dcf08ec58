package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-giveaway-bot/internal/features/giveaway/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newQueue(t *testing.T) (*drawQueue, *fakeClock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	q := NewDrawQueue(client, time.Minute, WithClock(clock.Now)).(*drawQueue)
	return q, clock, mr
}

func task(id string) models.DrawTask {
	return models.DrawTask{ID: "task-" + id, GiveawayID: id, ChannelID: "c", MessageID: "m"}
}

func TestQueueNeverDeliversEarly(t *testing.T) {
	q, clock, _ := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("1"), time.Minute))

	got, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	clock.Advance(59 * time.Second)
	got, err = q.Lease(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	clock.Advance(time.Second)
	got, err = q.Lease(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Task.GiveawayID)
	assert.Equal(t, 1, got[0].Attempts)
}

func TestQueueLeaseHidesUntilExpiry(t *testing.T) {
	q, clock, _ := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("1"), 0))

	first, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again, "leased task must stay hidden")

	clock.Advance(time.Minute)
	redelivered, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	require.Len(t, redelivered, 1)
	assert.Equal(t, 2, redelivered[0].Attempts)
	assert.Equal(t, first[0].Raw, redelivered[0].Raw)
}

func TestQueueAck(t *testing.T) {
	q, clock, mr := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("1"), 0))
	got, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, q.Ack(ctx, got[0]))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
	assert.False(t, mr.Exists(keyDrawAttempts))

	clock.Advance(time.Hour)
	got, err = q.Lease(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueueLeaseLimit(t *testing.T) {
	q, _, _ := newQueue(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, q.Enqueue(ctx, task(id), 0))
	}

	got, err := q.Lease(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = q.Lease(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestQueueDeadLetter(t *testing.T) {
	q, _, mr := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("1"), 0))
	got, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, q.DeadLetter(ctx, got[0], "patch failed"))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)

	entries, err := mr.List(keyDrawUndelivered)
	require.NoError(t, err)
	var entry deadLetter
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &entry))
	assert.Equal(t, "patch failed", entry.Reason)
	assert.Equal(t, 1, entry.Attempts)
}

func TestQueueParksMalformedMembers(t *testing.T) {
	q, _, mr := newQueue(t)
	ctx := context.Background()

	_, err := mr.ZAdd(keyDrawQueue, 0, "not-json")
	require.NoError(t, err)

	got, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)
}

func TestQueueLogsFailedPark(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var buf bytes.Buffer
	q := NewDrawQueue(client, time.Minute, WithLogger(zerolog.New(&buf)))
	ctx := context.Background()

	// a string under the dead-letter key makes LPUSH fail with WRONGTYPE
	require.NoError(t, mr.Set(keyDrawUndelivered, "occupied"))
	_, err := mr.ZAdd(keyDrawQueue, 0, "not-json")
	require.NoError(t, err)

	got, err := q.Lease(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Contains(t, buf.String(), "Failed to dead-letter malformed draw task")
	assert.Contains(t, buf.String(), `"member":"not-json"`)
}
