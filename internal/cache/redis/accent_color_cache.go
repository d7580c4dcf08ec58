package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AccentColorEntry stores the color derived from an image URL and when it was computed.
type AccentColorEntry struct {
	Color     int       `json:"color"`
	FetchedAt time.Time `json:"fetched_at"`
}

// AccentColorCache provides Redis-based caching for image accent colors.
type AccentColorCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewAccentColorCache(client redis.UniversalClient, ttl time.Duration) *AccentColorCache {
	return &AccentColorCache{client: client, ttl: ttl}
}

func (c *AccentColorCache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "image:" + hex.EncodeToString(sum[:16]) + ":color"
}

// Get returns the cached entry, or redis.Nil when missing.
func (c *AccentColorCache) Get(ctx context.Context, url string) (*AccentColorEntry, error) {
	v, err := c.client.Get(ctx, c.key(url)).Bytes()
	if err != nil {
		return nil, err
	}
	var e AccentColorEntry
	if err := json.Unmarshal(v, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Set stores the entry with TTL.
func (c *AccentColorCache) Set(ctx context.Context, url string, e *AccentColorEntry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(url), b, c.ttl).Err()
}

// Invalidate removes the cached color for url.
func (c *AccentColorCache) Invalidate(ctx context.Context, url string) error {
	return c.client.Del(ctx, c.key(url)).Err()
}

// ColorSource computes an accent color from an image URL.
type ColorSource interface {
	AccentColor(ctx context.Context, url string) (int, error)
}

// CachedColors serves colors from the cache and falls back to the source on a miss.
// Cache failures are logged and never fail the lookup.
type CachedColors struct {
	cache  *AccentColorCache
	source ColorSource
	logger zerolog.Logger
}

func NewCachedColors(cache *AccentColorCache, source ColorSource, logger zerolog.Logger) *CachedColors {
	return &CachedColors{cache: cache, source: source, logger: logger}
}

func (c *CachedColors) AccentColor(ctx context.Context, url string) (int, error) {
	entry, err := c.cache.Get(ctx, url)
	if err == nil {
		return entry.Color, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Msg("Accent color cache read failed")
	}

	color, err := c.source.AccentColor(ctx, url)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(ctx, url, &AccentColorEntry{Color: color}); err != nil {
		c.logger.Warn().Err(err).Msg("Accent color cache write failed")
	}
	return color, nil
}
