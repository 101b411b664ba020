package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"passportwatch/pkg/availability"
	"passportwatch/pkg/logger"
)

// WeChatOptions configures a WeChat Work group robot
type WeChatOptions struct {
	WebhookURL   string
	MentionUsers []string
	MaxRetries   int
	RetryDelay   time.Duration
	Timeout      time.Duration
	TargetURL    string
}

// WeChatNotifier posts hits to a WeChat Work group robot webhook
type WeChatNotifier struct {
	opts       WeChatOptions
	httpClient *http.Client
}

type webhookMessage struct {
	MsgType string       `json:"msgtype"`
	Text    *webhookText `json:"text,omitempty"`
}

type webhookText struct {
	Content       string   `json:"content"`
	MentionedList []string `json:"mentioned_list,omitempty"`
}

type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// NewWeChatNotifier creates a webhook alerter
func NewWeChatNotifier(opts WeChatOptions) (*WeChatNotifier, error) {
	if opts.WebhookURL == "" {
		return nil, fmt.Errorf("wechat webhook URL missing: %w", ErrNotConfigured)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &WeChatNotifier{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Name implements Alerter
func (w *WeChatNotifier) Name() string {
	return "wechat"
}

// Alert implements Alerter. WeChat text messages do not render Markdown, so
// the emphasis markers stay as plain text and nothing is escaped.
func (w *WeChatNotifier) Alert(ctx context.Context, hit availability.Hit) error {
	return w.SendText(ctx, formatHit(hit, w.opts.TargetURL, nil))
}

// SendText posts a text message, mentioning the configured users
func (w *WeChatNotifier) SendText(ctx context.Context, content string) error {
	return w.sendMessage(ctx, &webhookMessage{
		MsgType: "text",
		Text: &webhookText{
			Content:       content,
			MentionedList: w.opts.MentionUsers,
		},
	})
}

// sendMessage retries failed deliveries with a fixed delay
func (w *WeChatNotifier) sendMessage(ctx context.Context, msg *webhookMessage) error {
	log := logger.FromContext(ctx).Named("wechat")
	var lastErr error

	for attempt := 0; attempt <= w.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.opts.RetryDelay):
			}
		}

		err := w.doSendMessage(ctx, msg)
		if err == nil {
			log.Info("WeChat message sent", zap.Int("attempt", attempt+1))
			return nil
		}

		lastErr = err
		if attempt < w.opts.MaxRetries {
			log.Warn("WeChat message failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", w.opts.MaxRetries),
				zap.Duration("retry_delay", w.opts.RetryDelay),
				zap.Error(err))
		}
	}

	return fmt.Errorf("%w (%d retries): %w", ErrRetryExceeded, w.opts.MaxRetries, lastErr)
}

func (w *WeChatNotifier) doSendMessage(ctx context.Context, msg *webhookMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.opts.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result webhookResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if result.ErrCode != 0 {
		return &APIError{Service: "wechat", Code: result.ErrCode, Message: result.ErrMsg}
	}

	return nil
}
