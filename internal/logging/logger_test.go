package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(cfgpkg.LoggingConfig{Level: "info", Format: "json"}, &buf)

	log.Debug("不输出")
	log.Info("dpa tx", Frame("frame", []byte{0x00, 0x00, 0x06, 0x03, 0xFF, 0xFF}))
	_ = log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "不输出")
	assert.Contains(t, out, `"msg":"dpa tx"`)
	assert.Contains(t, out, `"frame":"00000603ffff"`)
}
