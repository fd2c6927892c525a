package domain

import "errors"

var (
	// Validation errors (surfaced before any state is created)
	ErrInvalidParams = errors.New("invalid bulk operation parameters")
	ErrTooManyItems  = errors.New("operation exceeds the maximum item limit")
	ErrUnknownDomain = errors.New("no adapter registered for domain")

	// Retryable transport errors - state is left untouched so the same
	// call can be repeated on the next turn
	ErrCountFailed   = errors.New("failed to count matching items")
	ErrFetchFailed   = errors.New("failed to fetch item batch")
	ErrExecuteFailed = errors.New("failed to execute item batch")

	// Session lifecycle errors
	ErrInvalidState    = errors.New("bulk operation is not active")
	ErrSessionActive   = errors.New("a bulk operation is already in progress")
	ErrSessionNotFound = errors.New("no bulk session found")
	ErrResultMismatch  = errors.New("adapter returned mismatched batch results")
)

// IsRetryable reports whether err is a transport failure that left the
// session state unchanged, meaning the same turn can simply be repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCountFailed) || errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrExecuteFailed)
}
