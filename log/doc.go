// Package log provides a wrapped zap logger for the queue clients and tools,
// and a simple Wrapper interface to be used by other packages in this module.
//
// There's a global logger which can be used by top level functions, and a way
// to attach a logger with additional info (e.g. queue name) to a context
// object and reuse it.
// When you have a context object, you should use the logger attached to it:
//
//	log.C(ctx).Errorw("Something went wrong!", "err", err)
//
// If you don't have a context object, use the global one instead of creating
// one:
//
//	log.Errorw("Something went wrong!", "err", err)
//
// The global logger is a nop logger until one of the Init* functions is
// called.
package log
