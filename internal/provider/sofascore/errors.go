package sofascore

import "fmt"

// FailureKind classifies a fetch failure so the refresh engine can decide
// whether a retry makes sense.
type FailureKind string

const (
	KindUnreachable FailureKind = "unreachable"
	KindRateLimited FailureKind = "rate_limited"
	KindMalformed   FailureKind = "malformed"
	KindUnknown     FailureKind = "unknown"
)

// FetchError is the typed failure surfaced for one league fetch. Network and
// upstream errors never propagate raw: one league's outage must not abort a
// whole refresh cycle.
type FetchError struct {
	League string
	Kind   FailureKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.League, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether retrying the fetch within the same cycle could
// succeed. Malformed responses won't fix themselves on a retry.
func (e *FetchError) Transient() bool {
	return e.Kind == KindUnreachable || e.Kind == KindRateLimited
}
