package llm

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the backend answered, but no stage of the
// repair pipeline produced an object of the expected shape.
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable or
// answered with a non-2xx status.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content string
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrAttemptTimeout indicates a single attempt ran past its deadline.
type ErrAttemptTimeout struct {
	Timeout time.Duration
}

func (e *ErrAttemptTimeout) Error() string {
	return fmt.Sprintf("LLM attempt timed out after %s", e.Timeout)
}

// ErrGenerationFailure is returned by Client.Generate once the attempt
// budget is spent. It is always recoverable: callers substitute fallback
// content instead of surfacing it.
type ErrGenerationFailure struct {
	Purpose  string
	Attempts int
	Err      error // last attempt's error
}

func (e *ErrGenerationFailure) Error() string {
	return fmt.Sprintf("generation %q failed after %d attempt(s): %v", e.Purpose, e.Attempts, e.Err)
}

func (e *ErrGenerationFailure) Unwrap() error { return e.Err }
