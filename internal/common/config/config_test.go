package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPublicKey = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestLoad(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DISCORD_PUBLIC_KEY", testPublicKey)
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("GIVEAWAY_MAX_DURATION", "48h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Discord.BotToken)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
	assert.Equal(t, 48*time.Hour, cfg.Giveaway.MaxDuration)
	assert.Equal(t, "https://discord.com/api/v10", cfg.Discord.APIBaseURL)
	assert.Equal(t, 5, cfg.Scheduler.MaxAttempts)

	key, err := cfg.PublicKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestLoadRejectsBadPublicKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "not hex", key: "zz", want: "not hex"},
		{name: "wrong length", key: "abcd", want: "must be 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "token")
			t.Setenv("DISCORD_PUBLIC_KEY", tt.key)

			_, err := Load()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestLoadRejectsLeaseShorterThanDraw(t *testing.T) {
	tests := []struct {
		name    string
		lease   string
		timeout string
		wantErr bool
	}{
		{name: "defaults", lease: "1m", timeout: "10s"},
		{name: "lease equal to minimum", lease: "30s", timeout: "10s", wantErr: true},
		{name: "slow discord", lease: "1m", timeout: "30s", wantErr: true},
		{name: "short lease", lease: "12s", timeout: "2s", wantErr: true},
		{name: "short lease with fast discord", lease: "20s", timeout: "2s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "token")
			t.Setenv("DISCORD_PUBLIC_KEY", testPublicKey)
			t.Setenv("SCHEDULER_LEASE", tt.lease)
			t.Setenv("DISCORD_REQUEST_TIMEOUT", tt.timeout)

			_, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "SCHEDULER_LEASE")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadRequiresBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DISCORD_PUBLIC_KEY", testPublicKey)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRegister(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("CLIENT_ID", "123")

	cfg, err := LoadRegister()
	require.NoError(t, err)
	assert.Equal(t, "123", cfg.ApplicationID)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestLoadRegisterRequiresClientID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("CLIENT_ID", "")

	_, err := LoadRegister()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLIENT_ID")
}
