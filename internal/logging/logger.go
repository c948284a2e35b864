// Package logging zap 日志构造：stdout 与可选的 lumberjack 滚动文件
package logging

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
)

// ParseLevel 未知值按 info 处理；接受 warning 作为 warn 的别名
func ParseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.StacktraceKey = "stack"
	ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return ec
}

func newEncoder(format string) zapcore.Encoder {
	if strings.EqualFold(format, "console") {
		return zapcore.NewConsoleEncoder(encoderConfig())
	}
	return zapcore.NewJSONEncoder(encoderConfig())
}

// InitLogger 构造进程 logger 并替换全局 logger
func InitLogger(cfg cfgpkg.LoggingConfig) (*zap.Logger, error) {
	sinks := []io.Writer{os.Stdout}
	if f := cfg.File; f.Filename != "" {
		sinks = append(sinks, &lumberjack.Logger{
			Filename:   f.Filename,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}
	logger := New(cfg, sinks...)
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// New 写入任意 sinks，测试中传 bytes.Buffer
func New(cfg cfgpkg.LoggingConfig, sinks ...io.Writer) *zap.Logger {
	ws := make([]zapcore.WriteSyncer, len(sinks))
	for i, s := range sinks {
		ws[i] = zapcore.AddSync(s)
	}
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.NewMultiWriteSyncer(ws...), ParseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.DPanicLevel))
}

// frameHex 延迟编码，级别被过滤时不产生开销
type frameHex []byte

func (f frameHex) String() string { return hex.EncodeToString(f) }

// Frame 以小写十六进制记录一帧
func Frame(key string, b []byte) zap.Field {
	return zap.Stringer(key, frameHex(b))
}
