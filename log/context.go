package log

import (
	"context"

	"go.uber.org/zap"
)

type contextKeyType struct{}

var contextKey contextKeyType

// logger keys for attached data.
const (
	queueKey = "queue"
)

// AttachArgs are used to create loggers to be attached to context object with
// pre-filled key-value pairs.
//
// All zero value fields will be ignored and only non-zero values will be
// attached.
//
// AdditionalPairs are provided to add any free form, additional key-value pairs
// you want to attach to all logs from the same context object.
type AttachArgs struct {
	// Canonical name of the message queue.
	Queue string

	AdditionalPairs map[string]interface{}
}

// Attach attaches a logger with data extracted from args into the context
// object.
func Attach(ctx context.Context, args AttachArgs) context.Context {
	// Number of non-AdditionalPairs fields in AttachArgs struct.
	const additional = 1
	kv := make([]interface{}, 0, len(args.AdditionalPairs)*2+additional)

	if args.Queue != "" {
		kv = append(kv, zap.String(queueKey, args.Queue))
	}

	for k, v := range args.AdditionalPairs {
		kv = append(kv, k, v)
	}

	l := C(ctx)
	if len(kv) == 0 {
		// Attaching it again still makes later log.C(ctx) calls faster.
		return context.WithValue(ctx, contextKey, l)
	}
	return context.WithValue(ctx, contextKey, l.With(kv...))
}

// C is short for Context.
//
// It extracts the logger attached to the current context object,
// and falls back to the global logger if none is found.
//
// The return value is guaranteed to be non-nil.
func C(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(contextKey).(*zap.SugaredLogger); ok && l != nil {
		return l
	}
	return logger
}
