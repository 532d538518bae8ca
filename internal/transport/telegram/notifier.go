// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
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

	"github.com/kailas-cloud/trafficwatch/internal/domain"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Config holds Telegram notifier settings.
type Config struct {
	BotToken string
	ChatID   string
	APIURL   string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Notifier sends plain-text messages to a single chat.
type Notifier struct {
	client   *http.Client
	endpoint string
	chatID   string
	logger   *zap.Logger
}

// NewNotifier creates a Telegram notifier. With an empty BotToken messages
// are only logged.
func NewNotifier(cfg *Config) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &Notifier{
		client: &http.Client{Timeout: timeout},
		chatID: cfg.ChatID,
		logger: logger,
	}
	if cfg.BotToken != "" {
		n.endpoint = apiURL + "/bot" + cfg.BotToken + "/sendMessage"
	}
	return n
}

// Enabled reports whether messages are actually delivered.
func (n *Notifier) Enabled() bool { return n.endpoint != "" }

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text to the configured chat. Errors match domain.ErrNotifierUnavailable.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if !n.Enabled() {
		n.logger.Info("telegram disabled, notification not sent", zap.String("text", text))
		return nil
	}

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrNotifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		// url.Error includes the request URL, which contains the bot token.
		return fmt.Errorf("%w: send message: %s", domain.ErrNotifierUnavailable, redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrNotifierUnavailable, err)
	}

	var out apiResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("%w: telegram API status %d: %s",
			domain.ErrNotifierUnavailable, resp.StatusCode, out.Description)
	}
	return nil
}

// redact strips the request URL from transport errors.
func redact(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Op + ": " + ue.Err.Error()
	}
	return err.Error()
}
