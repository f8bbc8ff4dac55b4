package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Remote   RemoteConfig  `mapstructure:"remote"`
	Sync     SyncConfig    `mapstructure:"sync"`
	Rewards  RewardsConfig `mapstructure:"rewards"`
	JWT      JWTConfig     `mapstructure:"jwt"`
	Tracing  TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig 远程进度存储(系统记录源)的连接配置
type RemoteConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout_seconds"`
}

// SyncConfig 同步引擎的调度参数，支持热更新
type SyncConfig struct {
	DebounceInterval time.Duration `mapstructure:"debounce_seconds"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	BackoffBase      time.Duration `mapstructure:"backoff_ms"`
	PushTimeout      time.Duration `mapstructure:"push_timeout_seconds"`
}

// RewardsConfig 经验换算与成就评估的调节参数
type RewardsConfig struct {
	XPPerCoin          int `mapstructure:"xp_per_coin"`
	LevelXP            int `mapstructure:"level_xp"`
	ModuleMinutes      int `mapstructure:"module_minutes"` // 课程剩余时长估算用的单模块时长
	QuizScoreThreshold int `mapstructure:"quiz_score_threshold"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EDUSYNC")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.path", "DATABASE_PATH")

	// Remote store
	viper.BindEnv("remote.enabled", "REMOTE_ENABLED")
	viper.BindEnv("remote.base_url", "REMOTE_BASE_URL")
	viper.BindEnv("remote.api_key", "REMOTE_API_KEY")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Sync.DebounceInterval = cfg.Sync.DebounceInterval * time.Second
	cfg.Sync.BackoffBase = cfg.Sync.BackoffBase * time.Millisecond
	cfg.Sync.PushTimeout = cfg.Sync.PushTimeout * time.Second
	cfg.Remote.RequestTimeout = cfg.Remote.RequestTimeout * time.Second
	cfg.applyDefaults()

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Remote.Enabled && cfg.Remote.BaseURL == "" {
		return nil, fmt.Errorf("remote.base_url is required when remote sync is enabled")
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.MkdirAll(dir, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/edusync.db"
	}
	if c.Sync.DebounceInterval <= 0 {
		c.Sync.DebounceInterval = 3 * time.Second
	}
	if c.Sync.MaxAttempts <= 0 {
		c.Sync.MaxAttempts = 3
	}
	if c.Sync.BackoffBase <= 0 {
		c.Sync.BackoffBase = 500 * time.Millisecond
	}
	if c.Sync.PushTimeout <= 0 {
		c.Sync.PushTimeout = 10 * time.Second
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = 15 * time.Second
	}
	if c.Rewards.XPPerCoin <= 0 {
		c.Rewards.XPPerCoin = 10
	}
	if c.Rewards.LevelXP <= 0 {
		c.Rewards.LevelXP = 200
	}
	if c.Rewards.ModuleMinutes <= 0 {
		c.Rewards.ModuleMinutes = 30
	}
	if c.Rewards.QuizScoreThreshold <= 0 {
		c.Rewards.QuizScoreThreshold = 80
	}
}
