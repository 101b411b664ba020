package config

// Config root configuration
type Config struct {
	Monitor  *MonitorConfig  `json:"monitor" yaml:"monitor"`
	Browser  *BrowserConfig  `json:"browser" yaml:"browser"`
	Alert    *AlertConfig    `json:"alert" yaml:"alert"`
	Telegram *TelegramConfig `json:"telegram" yaml:"telegram"`
	WeChat   *WeChatConfig   `json:"wechat" yaml:"wechat"`
	Kafka    *KafkaConfig    `json:"kafka" yaml:"kafka"`
	Status   *StatusConfig   `json:"status" yaml:"status"`
	Log      *LogConfig      `json:"log" yaml:"log"`
}

// Default returns a configuration where every section holds its defaults
func Default() *Config {
	return &Config{
		Monitor:  NewMonitorConfig(),
		Browser:  &BrowserConfig{},
		Alert:    NewAlertConfig(),
		Telegram: NewTelegramConfig(),
		WeChat:   NewWeChatConfig(),
		Kafka:    &KafkaConfig{},
		Status:   &StatusConfig{RedisPrefix: "passportwatch:"},
		Log:      &LogConfig{Level: "info"},
	}
}

// fillDefaults replaces missing sections and zero values with defaults
func (c *Config) fillDefaults() {
	def := Default()

	if c.Monitor == nil {
		c.Monitor = def.Monitor
	} else {
		m := c.Monitor
		if m.TargetURL == "" {
			m.TargetURL = def.Monitor.TargetURL
		}
		if m.CookieName == "" {
			m.CookieName = def.Monitor.CookieName
		}
		if m.Interval == 0 {
			m.Interval = def.Monitor.Interval
		}
		if m.Cooldown == 0 {
			m.Cooldown = def.Monitor.Cooldown
		}
		if m.TableWaitTimeout == 0 {
			m.TableWaitTimeout = def.Monitor.TableWaitTimeout
		}
		if m.UnavailablePhrase == "" {
			m.UnavailablePhrase = def.Monitor.UnavailablePhrase
		}
	}

	if c.Browser == nil {
		c.Browser = def.Browser
	}

	if c.Alert == nil {
		c.Alert = def.Alert
	} else {
		if c.Alert.BeepFrequency == 0 {
			c.Alert.BeepFrequency = def.Alert.BeepFrequency
		}
		if c.Alert.BeepDuration == 0 {
			c.Alert.BeepDuration = def.Alert.BeepDuration
		}
	}

	if c.Telegram == nil {
		c.Telegram = def.Telegram
	}
	if c.WeChat == nil {
		c.WeChat = def.WeChat
	}
	if c.Kafka == nil {
		c.Kafka = def.Kafka
	}

	if c.Status == nil {
		c.Status = def.Status
	} else if c.Status.RedisPrefix == "" {
		c.Status.RedisPrefix = def.Status.RedisPrefix
	}

	if c.Log == nil {
		c.Log = def.Log
	} else if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
