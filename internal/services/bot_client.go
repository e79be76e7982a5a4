package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Messages sent to the user who scanned a QR code.
const (
	MsgAuthenticated  = "You are authenticated!"
	MsgSessionExpired = "This QR code has expired."
)

// BotClient talks to the Telegram Bot API.
type BotClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.Logger
}

// NewBotClient returns a client for apiURL (normally https://api.telegram.org).
// An empty token disables sending.
func NewBotClient(apiURL, token string, timeout time.Duration, log *zap.Logger) *BotClient {
	return &BotClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		log:     log,
	}
}

// HTTPClient is exposed so tests can intercept outbound calls.
func (c *BotClient) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *BotClient) Enabled() bool {
	return c.token != ""
}

func (c *BotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error carries the request URL, which contains the token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("bot api unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bot api returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// Notify sends text in the background. The outcome never reaches the caller:
// failures are logged and dropped.
func (c *BotClient) Notify(chatID int64, text string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.SendMessage(ctx, chatID, text); err != nil {
			c.log.Warn("failed to send bot notification", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}()
	return done
}
