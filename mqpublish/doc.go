// Package mqpublish provides a Publisher that puts messages into a posix
// message queue with a put timeout, retries and an optional circuit breaker.
//
// A full queue is retried with capped exponential backoff until either the
// retries or the put timeout run out:
//
//	pub, err := mqpublish.Create("/events", queueCfg, mqpublish.Config{
//		MaxPutTimeout: 100 * time.Millisecond,
//		Retries:       3,
//	})
//	if err != nil {
//		// handle error
//	}
//	defer pub.Close()
//	err = pub.Put(ctx, payload)
package mqpublish
