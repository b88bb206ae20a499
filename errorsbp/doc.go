// Package errorsbp provides Batch, which compiles multiple errors into a
// single one, and Suppressor, which decides which errors are worth reporting.
//
// Batch is mostly used when releasing several resources at once, for example
// closing a queue descriptor together with its waker:
//
//	var batch errorsbp.Batch
//	batch.AddPrefix("close", mqsys.Close(mqd))
//	batch.AddPrefix("close waker", waker.Close())
//	// nil when both succeeded, the single error when only one failed.
//	return batch.Compile()
//
// Batch is not thread-safe.
// The same batch should not be operated on different goroutines concurrently.
package errorsbp
