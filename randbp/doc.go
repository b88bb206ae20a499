// Package randbp provides a thread-safe, properly seeded global
// *math/rand.Rand, and jitter helpers used by retries and circuit breakers.
package randbp
