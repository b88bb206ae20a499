package breakerbp

// CircuitBreaker is the interface publishers expect a circuit breaker to
// implement.
type CircuitBreaker interface {
	// Execute should wrap the given function call in circuit breaker logic and return the result.
	Execute(func() (interface{}, error)) (interface{}, error)
}
