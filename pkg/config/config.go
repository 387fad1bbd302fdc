package config

import (
	"os"
	"strconv"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	MaxConns      int32  `yaml:"max_conns"`
	MigrationsDir string `yaml:"migrations_dir"`
	// SlowQueryMS 慢查询阈值（毫秒），0 表示默认 100ms
	SlowQueryMS int `yaml:"slow_query_ms"`
}

// MQConfig 消息队列配置
type MQConfig struct {
	URL      string `yaml:"url"`
	Prefetch int    `yaml:"prefetch"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envInt ignores values that are not integers.
func envInt(key string, dst *int) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

// OverrideDBFromEnv 环境变量优先于配置文件
func OverrideDBFromEnv(cfg *DBConfig) {
	envString("DB_HOST", &cfg.Host)
	envInt("DB_PORT", &cfg.Port)
	envString("DB_USER", &cfg.User)
	envString("DB_PASSWORD", &cfg.Password)
	envString("DB_NAME", &cfg.Name)
	envString("DB_MIGRATIONS_DIR", &cfg.MigrationsDir)
}

func OverrideMQFromEnv(cfg *MQConfig) {
	envString("MQ_URL", &cfg.URL)
	envInt("MQ_PREFETCH", &cfg.Prefetch)
}

func OverrideRedisFromEnv(cfg *RedisConfig) {
	envString("REDIS_ADDR", &cfg.Addr)
	envString("REDIS_PASSWORD", &cfg.Password)
	envInt("REDIS_DB", &cfg.DB)
}

func OverrideJWTFromEnv(cfg *JWTConfig) {
	envString("JWT_SECRET", &cfg.Secret)
	envInt("JWT_TTL_HOURS", &cfg.TTLHours)
}

func OverrideServerFromEnv(cfg *ServerConfig) {
	envString("SERVER_PORT", &cfg.Port)
	envString("LOG_LEVEL", &cfg.LogLevel)
}
