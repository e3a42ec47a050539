package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes the control loop branches on.
var (
	// ErrSafetyLocked marks an attempted live execution while the platform
	// safety lock is engaged or live trading is not permitted. Always fatal
	// to the call — never downgraded to a simulated fill.
	ErrSafetyLocked = errors.New("safety lock engaged: live trading is locked")

	// ErrMissingCredentials is returned at construction time when the live
	// platform adapter has incomplete API credentials.
	ErrMissingCredentials = errors.New("missing live platform credentials")

	// ErrHalted is returned when an operation is attempted while the global
	// mode is HALTED. Exiting HALTED requires an explicit operator action.
	ErrHalted = errors.New("trading halted")

	// ErrRateLimited is the cause inside a retryable PlatformError when the
	// live adapter's order window is exhausted.
	ErrRateLimited = errors.New("order rate limit exceeded")
)

// ValidationError marks structurally invalid input (malformed signal or
// order), rejected before any side effect. Policy rejections are not errors;
// they are carried as an unapproved Decision.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PlatformError wraps an adapter failure (network, auth, rate limit).
// Retryable failures (rate limit, transient network) may be retried on a
// later cycle; non-retryable ones (auth) are fatal to the call.
// The simulated path never produces a PlatformError by construction.
type PlatformError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform: %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a PlatformError that may succeed on a
// later cycle.
func IsRetryable(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe) && pe.Retryable
}
