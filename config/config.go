package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "thinkhub/pkg/config"
)

type ActivityConfig struct {
	FeedLimit    int `yaml:"feed_limit"`
	MaxFeedLimit int `yaml:"max_feed_limit"`
}

type DashboardConfig struct {
	CacheTTLSeconds     int `yaml:"cache_ttl_seconds"`
	UserCacheTTLSeconds int `yaml:"user_cache_ttl_seconds"`
}

type OutboxConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMS int  `yaml:"interval_ms"`
	BatchSize  int  `yaml:"batch_size"`
	MaxRetries int  `yaml:"max_retries"`
}

type Config struct {
	DB        pkgconfig.DBConfig     `yaml:"db"`
	MQ        pkgconfig.MQConfig     `yaml:"mq"`
	Redis     pkgconfig.RedisConfig  `yaml:"redis"`
	JWT       pkgconfig.JWTConfig    `yaml:"jwt"`
	Server    pkgconfig.ServerConfig `yaml:"server"`
	Activity  ActivityConfig         `yaml:"activity"`
	Dashboard DashboardConfig        `yaml:"dashboard"`
	Outbox    OutboxConfig           `yaml:"outbox"`
}

// Load reads base.yaml plus the CONFIG_ENV overlay from dir, then applies environment overrides.
func Load(dir string) (*Config, error) {
	raw, err := pkgconfig.LoadConfig(pkgconfig.GetConfigEnv(), dir)
	if err != nil {
		return nil, err
	}

	// 合并后的 map 重新编码，再解码到强类型结构
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// 环境变量覆盖（生产环境使用）
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideServerFromEnv(&cfg.Server)

	if cfg.JWT.Secret == "" || strings.Contains(cfg.JWT.Secret, "${") {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DB: pkgconfig.DBConfig{
			Host:          "localhost",
			Port:          5432,
			MaxConns:      10,
			MigrationsDir: "migrations",
		},
		JWT:    pkgconfig.JWTConfig{TTLHours: 24},
		Server: pkgconfig.ServerConfig{Port: ":8080", LogLevel: "info"},
		Activity: ActivityConfig{
			FeedLimit:    20,
			MaxFeedLimit: 100,
		},
		Dashboard: DashboardConfig{
			CacheTTLSeconds:     30,
			UserCacheTTLSeconds: 300,
		},
		Outbox: OutboxConfig{
			Enabled:    true,
			IntervalMS: 1000,
			BatchSize:  100,
			MaxRetries: 5,
		},
	}
}

func (c *Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.Dashboard.CacheTTLSeconds) * time.Second
}

func (c *Config) UserCacheTTL() time.Duration {
	return time.Duration(c.Dashboard.UserCacheTTLSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTLHours) * time.Hour
}

func (c *Config) OutboxInterval() time.Duration {
	return time.Duration(c.Outbox.IntervalMS) * time.Millisecond
}
