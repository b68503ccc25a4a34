package orchestration

// ValidationError marks a request rejected before any service call was
// made. Handlers map it to a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrNoSlides rejects operations that need at least one slide.
var ErrNoSlides = &ValidationError{Message: "no slides have been generated yet"}
