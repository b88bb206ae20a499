package log

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// consoleTimeLayout renders as ts=2006-01-02T15:04:05.000000Z.
const consoleTimeLayout = "ts=2006-01-02T15:04:05.000000Z"

// The console encoders render key=value pairs so that the lines of mqctl
// stay grep friendly.

func consoleCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("caller=" + caller.TrimmedPath())
}

func consoleTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(consoleTimeLayout))
}

func consoleLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("level=" + l.CapitalString())
}

func jsonTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}
