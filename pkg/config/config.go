package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTargetURL is the appointment office selection page of the passport booking wizard
	DefaultTargetURL = "https://passaportonline.poliziadistato.it/cittadino/a/sc/wizardAppuntamentoCittadino/sceltaSede"

	DefaultCookieName        = "JSESSIONID"
	DefaultUnavailablePhrase = "non offre al momento"
	DefaultInterval          = 30 * time.Second
	DefaultCooldown          = 40000 * time.Second
	DefaultTableWaitTimeout  = 30 * time.Second

	DefaultBeepFrequency = 440.0
	DefaultBeepDuration  = 500 * time.Millisecond
)

// MonitorConfig controls the polling loop
type MonitorConfig struct {
	TargetURL         string   `json:"target_url" yaml:"target_url"`
	CookieName        string   `json:"cookie_name" yaml:"cookie_name"`
	Interval          Duration `json:"interval" yaml:"interval"`                     // wait between cycles without availability
	Cooldown          Duration `json:"cooldown" yaml:"cooldown"`                     // pause after each hit
	TableWaitTimeout  Duration `json:"table_wait_timeout" yaml:"table_wait_timeout"` // bound on waiting for a results table
	UnavailablePhrase string   `json:"unavailable_phrase" yaml:"unavailable_phrase"`
}

// NewMonitorConfig returns monitor defaults
func NewMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		TargetURL:         DefaultTargetURL,
		CookieName:        DefaultCookieName,
		Interval:          Duration(DefaultInterval),
		Cooldown:          Duration(DefaultCooldown),
		TableWaitTimeout:  Duration(DefaultTableWaitTimeout),
		UnavailablePhrase: DefaultUnavailablePhrase,
	}
}

// BrowserConfig controls the Chrome session
type BrowserConfig struct {
	Headless   bool   `json:"headless" yaml:"headless"`
	ChromePath string `json:"chrome_path" yaml:"chrome_path"` // empty means auto-detect
	UserAgent  string `json:"user_agent" yaml:"user_agent"`
}

// AlertConfig controls the audible alert
type AlertConfig struct {
	Silent        bool     `json:"silent" yaml:"silent"` // disables the tone, other alerters still fire
	BeepFrequency float64  `json:"beep_frequency" yaml:"beep_frequency"`
	BeepDuration  Duration `json:"beep_duration" yaml:"beep_duration"`
}

// NewAlertConfig returns alert defaults
func NewAlertConfig() *AlertConfig {
	return &AlertConfig{
		BeepFrequency: DefaultBeepFrequency,
		BeepDuration:  Duration(DefaultBeepDuration),
	}
}

// StatusConfig controls the optional status store and HTTP endpoint
type StatusConfig struct {
	ListenAddr  string   `json:"listen_addr" yaml:"listen_addr"`
	RedisAddr   string   `json:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string   `json:"redis_prefix" yaml:"redis_prefix"`
	TTL         Duration `json:"ttl" yaml:"ttl"`
}

// LogConfig controls logging
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	File        string `json:"file" yaml:"file"`
	Caller      string `json:"caller" yaml:"caller"` // short, medium or full
	MaxSizeMB   int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups  int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `json:"max_age_days" yaml:"max_age_days"`
	Development bool   `json:"development" yaml:"development"`
}

// Duration is a time.Duration that reads "30s"-style strings from config files
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler for yaml.v3 and JSON strings.
// Bare integers are read as seconds.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON accepts a JSON number of seconds as well as a duration string.
// encoding/json never hands numbers to UnmarshalText.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	if string(data) == "null" {
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
