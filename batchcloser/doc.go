// Package batchcloser provides an object "BatchCloser" that collects multiple
// io.Closers and closes them all, in reverse order, when BatchCloser.Close is
// called.
//
// mqctl uses it to release queue handles, the admin server and sentry on exit.
package batchcloser
