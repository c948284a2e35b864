package gateway

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

func TestTimingProfiles(t *testing.T) {
	p := DefaultTimingProfiles()
	assert.Equal(t, 60*time.Second, p.Lookup(dpa.CoordinatorDiscovery.Name).Total())
	assert.Equal(t, time.Second, p.Lookup(dpa.OSRead.Name).Total(), "未命中使用 Default")

	fs := p.Lookup(dpa.FRCSend.Name)
	assert.Equal(t, 10*time.Second, fs.DpaRspTime)
	assert.Equal(t, 2*time.Second, fs.DevProcessTime)

	var nilProfiles *TimingProfiles
	assert.True(t, nilProfiles.Lookup(dpa.OSRead.Name).IsZero())
}

func TestLoadTimingProfiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("合并覆盖", func(t *testing.T) {
		path := filepath.Join(dir, "timing.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
default:
  timeout: 2000
profiles:
  iqrfEmbedOs_Read:
    timeout: 500
    process: 100
`), 0o600))

		loaded, err := LoadTimingProfiles(path)
		require.NoError(t, err)

		p := DefaultTimingProfiles()
		p.Merge(loaded)
		assert.Equal(t, 600*time.Millisecond, p.Lookup(dpa.OSRead.Name).Total())
		assert.Equal(t, 2*time.Second, p.Lookup(dpa.LEDRPulse.Name).Total())
		assert.Equal(t, 60*time.Second, p.Lookup(dpa.CoordinatorDiscovery.Name).Total(), "未覆盖的内置条目保留")
	})

	t.Run("未知mType", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profiles:\n  noSuchType:\n    timeout: 1\n"), 0o600))
		_, err := LoadTimingProfiles(path)
		assert.ErrorIs(t, err, dpa.ErrUnknownMessage)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadTimingProfiles(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}
