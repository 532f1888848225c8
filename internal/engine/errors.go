package engine

// outOfMemoryError signals the engine ran out of device memory.
// The message is fixed so device/stack detail never reaches the caller.
type outOfMemoryError struct{}

func (e outOfMemoryError) Error() string { return "engine resource limit exceeded" }

// ErrOutOfMemory constructs an out-of-memory engine error.
func ErrOutOfMemory() error { return outOfMemoryError{} }

// IsOutOfMemory reports whether err indicates engine memory exhaustion (return 503).
func IsOutOfMemory(err error) bool {
	_, ok := err.(outOfMemoryError)
	return ok
}

// unavailableError signals the engine process is unreachable or not serving,
// so the HTTP layer can return 503 Service Unavailable instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates an unreachable engine.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

// generationError is any other engine-side failure during a completion.
type generationError struct{ msg string }

func (e generationError) Error() string { return e.msg }

// ErrGeneration constructs a generationError.
func ErrGeneration(msg string) error { return generationError{msg: msg} }

// IsGeneration reports whether err is an engine generation failure.
func IsGeneration(err error) bool {
	_, ok := err.(generationError)
	return ok
}
