package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"passportwatch/pkg/availability"
	"passportwatch/pkg/logger"
)

// DefaultTelegramAPI is the Bot API base URL
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramOptions configures a TelegramNotifier
type TelegramOptions struct {
	BotToken  string
	ChatID    string
	Timeout   time.Duration
	APIBase   string // overrides DefaultTelegramAPI
	TargetURL string // linked from each message
}

// TelegramNotifier sends hits to a chat through the Bot API
type TelegramNotifier struct {
	opts       TelegramOptions
	httpClient *http.Client
	limiter    *rate.Limiter
}

// TelegramMessage represents a sendMessage request body
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// TelegramResponse represents a Bot API response
type TelegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// NewTelegramNotifier creates a Telegram alerter. Messages are limited to one
// per second per chat, which is the Bot API's documented ceiling. Logging goes
// to the logger carried by each Alert context.
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	if opts.BotToken == "" || opts.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token or chat ID missing: %w", ErrNotConfigured)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.APIBase == "" {
		opts.APIBase = DefaultTelegramAPI
	}

	return &TelegramNotifier{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Name implements Alerter
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// Alert implements Alerter
func (t *TelegramNotifier) Alert(ctx context.Context, hit availability.Hit) error {
	return t.SendMessage(ctx, formatHit(hit, t.opts.TargetURL, escapeMarkdown))
}

// SendMessage sends a Markdown message to the configured chat
func (t *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	return t.sendTelegramMessage(ctx, &TelegramMessage{
		ChatID:    t.opts.ChatID,
		Text:      text,
		ParseMode: "Markdown",
	})
}

func (t *TelegramNotifier) sendTelegramMessage(ctx context.Context, message *TelegramMessage) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.opts.APIBase, t.opts.BotToken)

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log := logger.FromContext(ctx).Named("telegram")
	log.Debug("Sending Telegram message",
		zap.String("chat_id", message.ChatID),
		zap.String("text", message.Text[:min(100, len(message.Text))]))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var telegramResp TelegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&telegramResp); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !telegramResp.OK {
		return &APIError{Service: "telegram", Code: telegramResp.ErrorCode, Message: telegramResp.Description}
	}

	log.Info("Telegram message sent", zap.String("chat_id", message.ChatID))
	return nil
}
