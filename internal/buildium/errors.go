package buildium

import "fmt"

// InputError indicates a caller supplied missing or invalid request
// parameters. Never retried.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

// TransportError indicates a network failure or a non-rate-limit HTTP error
// status. Never retried.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError indicates every rate-limit retry attempt was spent
// without a successful response.
type RetryExhaustedError struct {
	URL      string
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d rate-limited attempts to %s", e.Attempts, e.URL)
}
