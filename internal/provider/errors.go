package provider

import "errors"

// Kind classifies why a Client's Chat call failed, so the router can tell a
// quota rejection from any other backend problem without string-matching.
type Kind int

const (
	// KindOther covers anything that is not a rate limit: timeouts,
	// malformed responses, connection failures.
	KindOther Kind = iota
	// KindRateLimited means the provider itself rejected the call with a
	// rate-limit response, as distinct from this gateway's own local
	// rate window (which never reaches the client at all).
	KindRateLimited
)

// Error wraps a Client failure with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// NewRateLimitedError wraps err as a provider-reported rate limit.
func NewRateLimitedError(err error) error {
	return &Error{Kind: KindRateLimited, Err: err}
}

// IsRateLimited reports whether err, or anything it wraps, is a
// provider-reported rate limit.
func IsRateLimited(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindRateLimited
}
