package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-giveaway-bot/internal/common/errors"
)

const (
	DefaultBaseURL = "https://discord.com/api/v10"

	maxErrorBody = 512
)

// Client talks to the Discord REST API with the bot token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		logger:  opts.Logger,
	}
}

// PostMessage creates a message in a channel.
func (c *Client) PostMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	var result discordgo.Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.makeRequest(ctx, "post message", http.MethodPost, path, msg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchMessage reads a message back, including its embeds and components.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	var result discordgo.Message
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.makeRequest(ctx, "fetch message", http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PatchMessage edits a message previously posted by the bot.
func (c *Client) PatchMessage(ctx context.Context, channelID, messageID string, edit *discordgo.MessageEdit) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.makeRequest(ctx, "patch message", http.MethodPatch, path, edit, nil)
}

// EditOriginalResponse edits the placeholder left by a deferred interaction response.
func (c *Client) EditOriginalResponse(ctx context.Context, applicationID, interactionToken string, edit *discordgo.WebhookEdit) error {
	path := fmt.Sprintf("/webhooks/%s/%s/messages/@original", applicationID, interactionToken)
	return c.makeRequest(ctx, "edit original response", http.MethodPatch, path, edit, nil)
}

// OverwriteCommands replaces the global application command set.
func (c *Client) OverwriteCommands(ctx context.Context, applicationID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	var result []*discordgo.ApplicationCommand
	path := fmt.Sprintf("/applications/%s/commands", applicationID)
	if err := c.makeRequest(ctx, "overwrite commands", http.MethodPut, path, commands, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) makeRequest(ctx context.Context, operation, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", "DiscordBot (discord-giveaway-bot, 1.0)")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeDiscordAPI, "Discord API %s request failed", operation).
			WithDetail("operation", operation)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}

	c.logger.Debug().
		Str("operation", operation).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Discord API call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return errors.NewDiscordAPIError(operation, resp.StatusCode, text)
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", operation, err)
	}
	return nil
}
