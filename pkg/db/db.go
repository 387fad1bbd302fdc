package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/pkg/config"
)

const (
	defaultMaxConns = 10
	connectTimeout  = 5 * time.Second
)

// DSN builds a postgres URL from cfg; credentials are escaped.
func DSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func poolConfig(cfg config.DBConfig, logger *zap.Logger) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	pc.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = 2
	pc.MaxConnIdleTime = time.Minute
	pc.HealthCheckPeriod = 30 * time.Second
	pc.ConnConfig.Tracer = NewSlowQueryTracer(logger, time.Duration(cfg.SlowQueryMS)*time.Millisecond)
	return pc, nil
}

// NewConnection opens the pool and fails unless the first ping succeeds.
func NewConnection(cfg config.DBConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	log := logger.With(zap.String("host", cfg.Host), zap.Int("port", cfg.Port), zap.String("db", cfg.Name))

	pc, err := poolConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		log.Error("PostgreSQL pool creation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error("PostgreSQL ping failed", zap.Error(err))
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	log.Info("PostgreSQL pool ready", zap.Int32("max_conns", pc.MaxConns))
	return pool, nil
}
