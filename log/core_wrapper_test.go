package log

import (
	"bytes"
	"fmt"
	"strings"
	"syscall"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errnoErr = fmt.Errorf("mq_open: %w", syscall.ENOENT)

func logLine(l *zap.SugaredLogger) {
	l.Debugw(
		"This is a log",
		"int", int(123),
		"int64", int64(1234),
		"uint64", uint64(1234),
		"err", errnoErr,
	)
}

func initCore(buf *bytes.Buffer) zapcore.Core {
	// Mostly copied from zap.NewExample, to make the log deterministic.
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(buf), zap.DebugLevel)
}

func TestWrappedCore(t *testing.T) {
	var (
		expectedOrigin  = fmt.Sprintf(`{"level":"debug","msg":"This is a log","int":123,"int64":1234,"uint64":1234,"err":%q}`, errnoErr.Error())
		expectedWrapped = fmt.Sprintf(`{"level":"debug","msg":"This is a log","int":"123","int64":"1234","uint64":"1234","err":%q}`, fmt.Sprintf("%v (errno=%d)", errnoErr, uintptr(syscall.ENOENT)))
	)
	t.Run("origin", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := zap.New(initCore(buf)).Sugar()
		logLine(logger)
		actual := strings.TrimSpace(buf.String())
		if actual != expectedOrigin {
			t.Errorf("Expected log line %#q, got %#q", expectedOrigin, actual)
		}
	})
	t.Run("wrapped", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := zap.New(wrappedCore{initCore(buf)}).Sugar()
		logLine(logger)
		actual := strings.TrimSpace(buf.String())
		if actual != expectedWrapped {
			t.Errorf("Expected log line %#q, got %#q", expectedWrapped, actual)
		}
	})
	t.Run("wrapped-with", func(t *testing.T) {
		buf := new(bytes.Buffer)
		logger := zap.New(wrappedCore{initCore(buf)}).Sugar()
		logger = logger.With("int", int(123))
		logger.Debugw(
			"This is a log",
			"int64", int64(1234),
			"uint64", uint64(1234),
			"err", errnoErr,
		)
		actual := strings.TrimSpace(buf.String())
		if actual != expectedWrapped {
			t.Errorf("Expected log line %#q, got %#q", expectedWrapped, actual)
		}
	})
}

func BenchmarkWrappedCore(b *testing.B) {
	b.Run("origin", func(b *testing.B) {
		buf := new(bytes.Buffer)
		logger := zap.New(initCore(buf)).Sugar()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			buf.Reset()
			logLine(logger)
		}
	})

	b.Run("wrapped", func(b *testing.B) {
		buf := new(bytes.Buffer)
		logger := zap.New(wrappedCore{initCore(buf)}).Sugar()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			buf.Reset()
			logLine(logger)
		}
	})
}
