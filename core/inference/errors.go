package inference

import "errors"

// TransientError marks a transport-level failure (connection refused,
// timeout) that is worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient transport failure: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
