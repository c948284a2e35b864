package app

import (
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("目录存在", func(t *testing.T) {
		dir := t.TempDir()
		r, err := migrationRunner(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, r.Dir)
	})

	t.Run("回退内嵌", func(t *testing.T) {
		r, err := migrationRunner(filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)
		assert.Empty(t, r.Dir)
		require.NotNil(t, r.FS)
		_, err = fs.Stat(r.FS, "0001_init_up.sql")
		assert.NoError(t, err)
	})
}

func TestLoadTimingProfiles(t *testing.T) {
	log := zap.NewNop()

	p := LoadTimingProfiles(cfgpkg.GatewayConfig{}, log)
	assert.Equal(t, 60*time.Second, p.Lookup(dpa.CoordinatorDiscovery.Name).Total())

	p = LoadTimingProfiles(cfgpkg.GatewayConfig{TimingProfilePath: "/nonexistent.yaml"}, log)
	assert.Equal(t, time.Second, p.Lookup(dpa.OSRead.Name).Total(), "读取失败回退内置")

	p = LoadTimingProfiles(cfgpkg.GatewayConfig{TimingProfilePath: "../../configs/timing.yaml"}, log)
	assert.Equal(t, 2*time.Second, p.Lookup(dpa.OSRestart.Name).Total())
}

func TestGenerateInstanceID(t *testing.T) {
	t.Setenv("IQRF_INSTANCE_ID", "gw-1")
	assert.Equal(t, "gw-1", GenerateInstanceID())

	t.Setenv("IQRF_INSTANCE_ID", "")
	assert.Contains(t, GenerateInstanceID(), "iqrf-gateway-")
}

func TestNewMetrics(t *testing.T) {
	reg, appm := NewMetrics("v1.2.3", "gw-1")
	require.NotNil(t, appm)
	mfs, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range mfs {
		if mf.GetName() != "iqrf_gateway_build_info" {
			continue
		}
		found = true
		labels := map[string]string{}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		assert.Equal(t, "v1.2.3", labels["version"])
		assert.Equal(t, "gw-1", labels["instance"])
	}
	assert.True(t, found)
}

func TestNewResponseCache_Disabled(t *testing.T) {
	client, store, err := NewResponseCache(cfgpkg.RedisConfig{}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Nil(t, store, "未启用时 store 必须是 nil 接口")
}
