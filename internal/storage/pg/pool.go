package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
)

const applicationName = "iqrf-gateway"

// 交换日志写入量小，默认连接池保持很小
const (
	defaultMaxConns     = 4
	defaultMinConns     = 1
	defaultConnLifetime = time.Hour
	connIdleTime        = 30 * time.Minute
	healthCheckPeriod   = time.Minute
	pingTimeout         = 3 * time.Second
)

// NewPool 解析 DSN、设置连接池参数并探活
func NewPool(ctx context.Context, dc cfgpkg.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dc.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	applyPoolConfig(cfg, dc)
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	if logger != nil {
		cfg.ConnConfig.Tracer = newTracer(logger)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return pool, nil
}

func applyPoolConfig(cfg *pgxpool.Config, dc cfgpkg.DatabaseConfig) {
	cfg.MaxConns = defaultMaxConns
	if dc.MaxOpenConns > 0 {
		cfg.MaxConns = int32(dc.MaxOpenConns)
	}
	cfg.MinConns = defaultMinConns
	if dc.MaxIdleConns > 0 {
		cfg.MinConns = min(int32(dc.MaxIdleConns), cfg.MaxConns)
	}
	cfg.MaxConnLifetime = defaultConnLifetime
	if dc.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = dc.ConnMaxLifetime
	}
	cfg.MaxConnIdleTime = connIdleTime
	cfg.HealthCheckPeriod = healthCheckPeriod
}

// newTracer SQL 语句只在 logger 开启 debug 时输出
func newTracer(logger *zap.Logger) *tracelog.TraceLog {
	level := tracelog.LogLevelWarn
	if logger.Core().Enabled(zapcore.DebugLevel) {
		level = tracelog.LogLevelDebug
	}
	return &tracelog.TraceLog{
		Logger:   tracelog.LoggerFunc(zapTraceFunc(logger.Named("pgx"))),
		LogLevel: level,
	}
}

func zapTraceFunc(logger *zap.Logger) func(context.Context, tracelog.LogLevel, string, map[string]any) {
	return func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		fields := make([]zap.Field, 0, len(data))
		for k, v := range data {
			fields = append(fields, zap.Any(k, v))
		}
		logger.Log(zapLevel(level), msg, fields...)
	}
}

func zapLevel(level tracelog.LogLevel) zapcore.Level {
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		return zapcore.DebugLevel
	case tracelog.LogLevelWarn:
		return zapcore.WarnLevel
	case tracelog.LogLevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
