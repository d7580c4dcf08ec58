package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port            int           `env:"PORT" envDefault:"8080"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		BotToken       string        `env:"BOT_TOKEN,required,notEmpty"`
		PublicKey      string        `env:"DISCORD_PUBLIC_KEY,required"`
		ApplicationID  string        `env:"CLIENT_ID"`
		APIBaseURL     string        `env:"DISCORD_API_BASE_URL" envDefault:"https://discord.com/api/v10"`
		RequestTimeout time.Duration `env:"DISCORD_REQUEST_TIMEOUT" envDefault:"10s"`
	}

	Giveaway struct {
		// Upper bound for the /create duration option.
		MaxDuration time.Duration `env:"GIVEAWAY_MAX_DURATION" envDefault:"720h"`
		// How long a record survives past its end time if no draw ever deletes it.
		RecordRetention   time.Duration `env:"GIVEAWAY_RECORD_RETENTION" envDefault:"168h"`
		FollowupDelay     time.Duration `env:"FOLLOWUP_DELAY" envDefault:"500ms"`
		FollowupTimeout   time.Duration `env:"FOLLOWUP_TIMEOUT" envDefault:"30s"`
		MaxFollowups      int           `env:"FOLLOWUP_CONCURRENCY" envDefault:"32"`
		ImageFetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"5s"`
		ColorCacheTTL     time.Duration `env:"IMAGE_COLOR_CACHE_TTL" envDefault:"24h"`
	}

	Scheduler struct {
		PollInterval time.Duration `env:"SCHEDULER_POLL_INTERVAL" envDefault:"1s"`
		Lease        time.Duration `env:"SCHEDULER_LEASE" envDefault:"1m"`
		MaxAttempts  int           `env:"SCHEDULER_MAX_ATTEMPTS" envDefault:"5"`
		Concurrency  int           `env:"SCHEDULER_CONCURRENCY" envDefault:"10"`
		BatchSize    int           `env:"SCHEDULER_BATCH_SIZE" envDefault:"20"`
	}
}

// RegisterConfig is the subset used by cmd/register.
type RegisterConfig struct {
	BotToken      string        `env:"BOT_TOKEN,required,notEmpty"`
	ApplicationID string        `env:"CLIENT_ID,required,notEmpty"`
	APIBaseURL    string        `env:"DISCORD_API_BASE_URL" envDefault:"https://discord.com/api/v10"`
	Timeout       time.Duration `env:"DISCORD_REQUEST_TIMEOUT" envDefault:"10s"`
	Debug         bool          `env:"DEBUG" envDefault:"false"`
}

func LoadRegister() (*RegisterConfig, error) {
	_ = godotenv.Load()

	cfg := &RegisterConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// drawOverhead covers the Redis round-trips of a draw plus the safety margin
// the draw keeps before its claim expires.
const drawOverhead = 10 * time.Second

func (c *Config) validate() error {
	if _, err := c.PublicKey(); err != nil {
		return err
	}
	if c.Giveaway.MaxDuration <= 0 {
		return fmt.Errorf("GIVEAWAY_MAX_DURATION must be positive")
	}
	if c.Scheduler.MaxAttempts < 1 {
		return fmt.Errorf("SCHEDULER_MAX_ATTEMPTS must be at least 1")
	}
	if c.Scheduler.Concurrency < 1 || c.Scheduler.BatchSize < 1 {
		return fmt.Errorf("SCHEDULER_CONCURRENCY and SCHEDULER_BATCH_SIZE must be at least 1")
	}
	// A draw fetches and patches the announcement while holding a claim of one lease.
	if minLease := 2*c.Discord.RequestTimeout + drawOverhead; c.Scheduler.Lease <= minLease {
		return fmt.Errorf("SCHEDULER_LEASE must exceed %s (two DISCORD_REQUEST_TIMEOUT plus %s), got %s",
			minLease, drawOverhead, c.Scheduler.Lease)
	}
	return nil
}

// PublicKey decodes the hex encoded application public key.
func (c *Config) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(c.Discord.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("DISCORD_PUBLIC_KEY is not hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("DISCORD_PUBLIC_KEY must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
