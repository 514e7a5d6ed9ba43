// Package backoff holds the retry delay policies used for calls to the
// camera platform and the inference backend. The policies are pure
// functions of the attempt number so they can be unit-tested without any
// network involvement.
package backoff

import "time"

// Linear returns step, 2*step, 3*step... for attempts 1, 2, 3...
// Attempt 0 (the first try) has no delay.
func Linear(attempt int, step time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(attempt) * step
}

// Exponential doubles the base delay for every attempt past the first and
// clamps the result at cap. Attempt 0 has no delay.
func Exponential(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
