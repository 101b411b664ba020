package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads configuration from configPath, falling back to the default
// search locations when configPath is empty. A missing file yields defaults.
// Environment variables are merged after the file and the result is validated.
func LoadConfig(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = getDefaultConfigPath()
	}

	config := &Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		config = Default()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}

		switch ext := filepath.Ext(configPath); ext {
		case ".json":
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("%w: JSON parsing failed: %v", ErrInvalidFormat, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
			}
		default:
			return nil, fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
		}
	}

	config.fillDefaults()
	mergeEnvVars(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// getDefaultConfigPath returns the first existing candidate:
// current directory > config/ > user config directory
func getDefaultConfigPath() string {
	paths := []string{
		"./passport_monitor.yaml",
		"./passport_monitor.json",
		"./config/passport_monitor.yaml",
		"./config/passport_monitor.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".passportwatch", "config.yaml"),
			filepath.Join(homeDir, ".passportwatch", "config.json"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return paths[0]
}

// mergeEnvVars overlays environment variables onto config
func mergeEnvVars(config *Config) {
	mergeMonitorEnvVars(config)
	mergeNotifierEnvVars(config)

	if level := os.Getenv("PASSPORT_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if file := os.Getenv("PASSPORT_LOG_FILE"); file != "" {
		config.Log.File = file
	}
	if headless := os.Getenv("PASSPORT_HEADLESS"); headless != "" {
		config.Browser.Headless = headless == "true" || headless == "1"
	}
}

func mergeMonitorEnvVars(config *Config) {
	m := config.Monitor

	if target := os.Getenv("PASSPORT_TARGET_URL"); target != "" {
		m.TargetURL = target
	}

	durations := map[string]*Duration{
		"PASSPORT_INTERVAL":           &m.Interval,
		"PASSPORT_COOLDOWN":           &m.Cooldown,
		"PASSPORT_TABLE_WAIT_TIMEOUT": &m.TableWaitTimeout,
	}
	for envKey, ptr := range durations {
		value := os.Getenv(envKey)
		if value == "" {
			continue
		}
		var d Duration
		if err := d.UnmarshalText([]byte(value)); err == nil && d > 0 {
			*ptr = d
		}
	}
}

func mergeNotifierEnvVars(config *Config) {
	tc := config.Telegram
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tc.BotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		tc.ChatID = chatID
	}
	if enabled := os.Getenv("TELEGRAM_ENABLED"); enabled != "" {
		tc.Enabled = enabled == "true" || enabled == "1"
	}

	wc := config.WeChat
	if webhook := os.Getenv("WECHAT_WEBHOOK_URL"); webhook != "" {
		wc.WebhookURL = webhook
	}
	if users := os.Getenv("WECHAT_MENTION_USERS"); users != "" {
		wc.MentionUsers = parseStringList(users)
	}
	if enabled := os.Getenv("WECHAT_ENABLED"); enabled != "" {
		wc.Enabled = enabled == "true" || enabled == "1"
	}
}
