package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the complete configuration
func (c *Config) Validate() error {
	if err := c.validateMonitorConfig(); err != nil {
		return err
	}

	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrTelegramConfig, err)
	}
	if err := c.WeChat.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrWeChatConfig, err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrKafkaConfig, err)
	}

	if c.Alert.BeepFrequency < 37 || c.Alert.BeepFrequency > 32767 {
		return fmt.Errorf("%w: beep_frequency must be within 37-32767 Hz", ErrInvalidValue)
	}

	if !isValidValue(strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "warning", "error"}) {
		return fmt.Errorf("%w: log level %q", ErrInvalidValue, c.Log.Level)
	}
	if c.Log.Caller != "" && !isValidValue(strings.ToLower(c.Log.Caller), []string{"short", "medium", "full"}) {
		return fmt.Errorf("%w: log caller %q", ErrInvalidValue, c.Log.Caller)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation limits cannot be negative", ErrInvalidValue)
	}

	return nil
}

func (c *Config) validateMonitorConfig() error {
	if c.Monitor == nil {
		return fmt.Errorf("%w: monitor", ErrMissingRequired)
	}

	m := c.Monitor

	u, err := url.Parse(m.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: target_url must be an absolute http(s) URL", ErrInvalidValue)
	}

	if strings.TrimSpace(m.CookieName) == "" {
		return fmt.Errorf("%w: cookie_name", ErrMissingRequired)
	}
	if strings.TrimSpace(m.UnavailablePhrase) == "" {
		return fmt.Errorf("%w: unavailable_phrase", ErrMissingRequired)
	}

	if m.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidValue)
	}
	if m.Cooldown <= 0 {
		return fmt.Errorf("%w: cooldown must be positive", ErrInvalidValue)
	}
	if m.TableWaitTimeout <= 0 {
		return fmt.Errorf("%w: table_wait_timeout must be positive", ErrInvalidValue)
	}

	return nil
}

func isValidValue(value string, valid []string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}
