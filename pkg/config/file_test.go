package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Monitor.TargetURL != DefaultTargetURL {
		t.Errorf("TargetURL = %s, want default", cfg.Monitor.TargetURL)
	}
	if cfg.Monitor.CookieName != "JSESSIONID" {
		t.Errorf("CookieName = %s, want JSESSIONID", cfg.Monitor.CookieName)
	}
	if cfg.Monitor.Interval.Std() != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Cooldown.Std() != 40000*time.Second {
		t.Errorf("Cooldown = %v, want 40000s", cfg.Monitor.Cooldown)
	}
	if cfg.Monitor.TableWaitTimeout.Std() != 30*time.Second {
		t.Errorf("TableWaitTimeout = %v, want 30s", cfg.Monitor.TableWaitTimeout)
	}
	if cfg.Alert.Silent {
		t.Error("beep should be enabled by default")
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passport_monitor.yaml")
	content := `
monitor:
  interval: 45s
  cooldown: 2h
  unavailable_phrase: "Non Offre Al Momento"
browser:
  headless: true
alert:
  silent: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Monitor.Interval.Std() != 45*time.Second {
		t.Errorf("Interval = %v, want 45s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Cooldown.Std() != 2*time.Hour {
		t.Errorf("Cooldown = %v, want 2h", cfg.Monitor.Cooldown)
	}
	// unset values keep defaults
	if cfg.Monitor.TableWaitTimeout.Std() != 30*time.Second {
		t.Errorf("TableWaitTimeout = %v, want 30s", cfg.Monitor.TableWaitTimeout)
	}
	if cfg.Monitor.TargetURL != DefaultTargetURL {
		t.Errorf("TargetURL = %s, want default", cfg.Monitor.TargetURL)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should be true")
	}
	if !cfg.Alert.Silent {
		t.Error("Silent should be true")
	}
	if cfg.Alert.BeepFrequency != DefaultBeepFrequency {
		t.Errorf("BeepFrequency = %v, want default", cfg.Alert.BeepFrequency)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passport_monitor.json")
	content := `{
  "monitor": {"interval": 45, "cooldown": "2h", "target_url": "https://example.test/booking"},
  "telegram": {"enabled": true, "bot_token": "t", "chat_id": "42", "timeout": 10},
  "wechat": {"retry_delay": "500ms"},
  "log": {"level": "warn", "caller": "full", "max_backups": 3}
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Monitor.Interval.Std() != 45*time.Second {
		t.Errorf("Interval = %v, want 45s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Cooldown.Std() != 2*time.Hour {
		t.Errorf("Cooldown = %v, want 2h", cfg.Monitor.Cooldown)
	}
	if cfg.Monitor.TargetURL != "https://example.test/booking" {
		t.Errorf("TargetURL = %s", cfg.Monitor.TargetURL)
	}
	if cfg.Telegram.Timeout.Std() != 10*time.Second {
		t.Errorf("Telegram.Timeout = %v, want 10s", cfg.Telegram.Timeout)
	}
	if cfg.WeChat.RetryDelay.Std() != 500*time.Millisecond {
		t.Errorf("WeChat.RetryDelay = %v, want 500ms", cfg.WeChat.RetryDelay)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Caller != "full" || cfg.Log.MaxBackups != 3 {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestNotifierDurationDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Timeout.Std() != 30*time.Second {
		t.Errorf("Telegram.Timeout = %v, want 30s", cfg.Telegram.Timeout)
	}
	if cfg.WeChat.RetryDelay.Std() != 2*time.Second {
		t.Errorf("WeChat.RetryDelay = %v, want 2s", cfg.WeChat.RetryDelay)
	}

	tc := &TelegramConfig{Enabled: true, BotToken: "t", ChatID: "c"}
	if err := tc.Validate(); err != nil || tc.Timeout.Std() != 30*time.Second {
		t.Errorf("Validate() = %v, timeout %v", err, tc.Timeout)
	}
	wc := &WeChatConfig{Enabled: true, WebhookURL: "https://example.test/hook"}
	if err := wc.Validate(); err != nil || wc.RetryDelay.Std() != 2*time.Second {
		t.Errorf("Validate() = %v, retry delay %v", err, wc.RetryDelay)
	}
}

func TestConfigWithEnvVars(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PASSPORT_INTERVAL", "10s")
	t.Setenv("PASSPORT_COOLDOWN", "600")
	t.Setenv("PASSPORT_HEADLESS", "true")
	t.Setenv("PASSPORT_LOG_LEVEL", "debug")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("TELEGRAM_ENABLED", "1")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Monitor.Interval.Std() != 10*time.Second {
		t.Errorf("Expected interval 10s, got %v", cfg.Monitor.Interval)
	}
	if cfg.Monitor.Cooldown.Std() != 600*time.Second {
		t.Errorf("Expected cooldown 600s, got %v", cfg.Monitor.Cooldown)
	}
	if !cfg.Browser.Headless {
		t.Error("Expected headless from env")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken != "token" || cfg.Telegram.ChatID != "42" {
		t.Errorf("Telegram env not merged: %+v", cfg.Telegram)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"relative url", func(c *Config) { c.Monitor.TargetURL = "/cittadino" }, ErrInvalidValue},
		{"ftp url", func(c *Config) { c.Monitor.TargetURL = "ftp://host/x" }, ErrInvalidValue},
		{"empty cookie name", func(c *Config) { c.Monitor.CookieName = " " }, ErrMissingRequired},
		{"empty phrase", func(c *Config) { c.Monitor.UnavailablePhrase = "" }, ErrMissingRequired},
		{"negative interval", func(c *Config) { c.Monitor.Interval = -1 }, ErrInvalidValue},
		{"zero cooldown", func(c *Config) { c.Monitor.Cooldown = 0 }, ErrInvalidValue},
		{"telegram without token", func(c *Config) { c.Telegram = &TelegramConfig{Enabled: true, ChatID: "1"} }, ErrTelegramConfig},
		{"wechat without webhook", func(c *Config) { c.WeChat = &WeChatConfig{Enabled: true} }, ErrWeChatConfig},
		{"kafka without topic", func(c *Config) { c.Kafka = &KafkaConfig{Enabled: true, Broker: "localhost:9092"} }, ErrKafkaConfig},
		{"inaudible beep", func(c *Config) { c.Alert.BeepFrequency = 10 }, ErrInvalidValue},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidValue},
		{"bad log caller", func(c *Config) { c.Log.Caller = "wide" }, ErrInvalidValue},
		{"negative log backups", func(c *Config) { c.Log.MaxBackups = -1 }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Telegram = &TelegramConfig{}
			cfg.WeChat = &WeChatConfig{}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"40000", 40000 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && d.Std() != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, d.Std(), tt.want)
		}
	}
}

func TestDurationUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{`45`, 45 * time.Second, false},
		{`1.5`, 1500 * time.Millisecond, false},
		{`"30s"`, 30 * time.Second, false},
		{`"40000"`, 40000 * time.Second, false},
		{`null`, 0, false},
		{`"soon"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		var d Duration
		err := json.Unmarshal([]byte(tt.in), &d)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && d.Std() != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, d.Std(), tt.want)
		}
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore Chdir: %v", err)
		}
	})
}
