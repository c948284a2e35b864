package pg

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
)

func TestApplyPoolConfig(t *testing.T) {
	tests := []struct {
		name     string
		dc       cfgpkg.DatabaseConfig
		max, min int32
		lifetime time.Duration
	}{
		{"默认值", cfgpkg.DatabaseConfig{}, defaultMaxConns, defaultMinConns, defaultConnLifetime},
		{"显式配置", cfgpkg.DatabaseConfig{MaxOpenConns: 8, MaxIdleConns: 2, ConnMaxLifetime: time.Minute}, 8, 2, time.Minute},
		{"空闲数不超过上限", cfgpkg.DatabaseConfig{MaxOpenConns: 2, MaxIdleConns: 5}, 2, 2, defaultConnLifetime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pgxpool.ParseConfig("postgres://iqrf@localhost:5432/iqrf")
			require.NoError(t, err)
			applyPoolConfig(cfg, tt.dc)
			assert.Equal(t, tt.max, cfg.MaxConns)
			assert.Equal(t, tt.min, cfg.MinConns)
			assert.Equal(t, tt.lifetime, cfg.MaxConnLifetime)
		})
	}
}

func TestTracer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := newTracer(zap.New(core))
	assert.Equal(t, tracelog.LogLevelDebug, tr.LogLevel)

	tr.Logger.Log(t.Context(), tracelog.LogLevelError, "Query", map[string]any{"sql": "SELECT 1"})
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])

	quiet, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, tracelog.LogLevelWarn, newTracer(zap.New(quiet)).LogLevel)
}
