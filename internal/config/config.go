package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address       string `yaml:"address"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		CacheTTLHours int    `yaml:"cache_ttl_hours"`
	} `yaml:"redis"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
	} `yaml:"sheets"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	RateLimit struct {
		MessagesPerSecond float64 `yaml:"messages_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Profiles struct {
		Path          string `yaml:"path"`
		ReloadSeconds int    `yaml:"reload_seconds"`
	} `yaml:"profiles"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/slotgen.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.CacheTTLHours) * time.Hour
}

func (c *Config) SendRate() float64 {
	if c.RateLimit.MessagesPerSecond <= 0 {
		return 25
	}
	return c.RateLimit.MessagesPerSecond
}

func (c *Config) SendBurst() int {
	if c.RateLimit.Burst <= 0 {
		return 5
	}
	return c.RateLimit.Burst
}

func (c *Config) ProfilesPath() string {
	if c.Profiles.Path == "" {
		return "configs/profiles.yaml"
	}
	return c.Profiles.Path
}

func (c *Config) ProfilesReload() time.Duration {
	if c.Profiles.ReloadSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Profiles.ReloadSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
