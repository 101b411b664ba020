package config

import "time"

const (
	defaultTelegramTimeout  = Duration(30 * time.Second)
	defaultWeChatRetryDelay = Duration(2 * time.Second)
)

// TelegramConfig Telegram bot notification settings
type TelegramConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	BotToken string   `json:"bot_token" yaml:"bot_token"`
	ChatID   string   `json:"chat_id" yaml:"chat_id"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
}

// NewTelegramConfig fills Telegram defaults from the environment
func NewTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		Enabled:  getEnvBool("TELEGRAM_ENABLED", false),
		Timeout:  defaultTelegramTimeout,
	}
}

// Validate checks Telegram settings when enabled
func (tc *TelegramConfig) Validate() error {
	if !tc.Enabled {
		return nil
	}
	if tc.BotToken == "" || tc.ChatID == "" {
		return ErrMissingRequired
	}
	if tc.Timeout <= 0 {
		tc.Timeout = defaultTelegramTimeout
	}
	return nil
}

// WeChatConfig WeChat Work group robot settings
type WeChatConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	WebhookURL   string   `json:"webhook_url" yaml:"webhook_url"`
	MentionUsers []string `json:"mention_users" yaml:"mention_users"`
	MaxRetries   int      `json:"max_retries" yaml:"max_retries"`
	RetryDelay   Duration `json:"retry_delay" yaml:"retry_delay"`
}

// NewWeChatConfig fills WeChat defaults from the environment
func NewWeChatConfig() *WeChatConfig {
	return &WeChatConfig{
		WebhookURL:   getEnv("WECHAT_WEBHOOK_URL", ""),
		Enabled:      getEnvBool("WECHAT_ENABLED", false),
		MentionUsers: parseStringList(getEnv("WECHAT_MENTION_USERS", "")),
		MaxRetries:   3,
		RetryDelay:   defaultWeChatRetryDelay,
	}
}

// Validate checks WeChat settings when enabled
func (wc *WeChatConfig) Validate() error {
	if !wc.Enabled {
		return nil
	}
	if wc.WebhookURL == "" {
		return ErrMissingRequired
	}
	if wc.MaxRetries < 0 {
		wc.MaxRetries = 3
	}
	if wc.RetryDelay <= 0 {
		wc.RetryDelay = defaultWeChatRetryDelay
	}
	return nil
}

// KafkaConfig publishes availability events to a Kafka topic
type KafkaConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Broker  string `json:"broker" yaml:"broker"`
	Topic   string `json:"topic" yaml:"topic"`
}

// Validate checks Kafka settings when enabled
func (kc *KafkaConfig) Validate() error {
	if !kc.Enabled {
		return nil
	}
	if kc.Broker == "" || kc.Topic == "" {
		return ErrMissingRequired
	}
	return nil
}
