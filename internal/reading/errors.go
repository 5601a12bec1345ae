package reading

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure categories a reading can hit, plus
// request validation. Callers classify with errors.Is against these and
// pull details with errors.As against the typed errors below.
var (
	ErrInvalidRequest = errors.New("invalid reading request")
	ErrQuotaExceeded  = errors.New("reading quota exceeded")
	ErrTextLookup     = errors.New("hexagram text lookup failed")
	ErrModel          = errors.New("model invocation failed")
	ErrUsageLog       = errors.New("usage logging failed")
)

// RequestError reports a request that failed validation.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid reading request: %s: %s", e.Field, e.Reason)
}

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

// QuotaError reports a denied quota check. Reason is the checker's denial
// message; Err is set instead when the checker itself failed (denials and
// checker faults both refuse the reading).
type QuotaError struct {
	UserID  string
	Feature string
	Reason  string
	Err     error
}

func (e *QuotaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quota check for %s/%s: %v", e.UserID, e.Feature, e.Err)
	}
	return fmt.Sprintf("quota exceeded for %s/%s: %s", e.UserID, e.Feature, e.Reason)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

func (e *QuotaError) Unwrap() error { return e.Err }

// LookupError reports a text-store failure for a coordinate. A record that
// simply does not exist is not a LookupError; only store faults are.
type LookupError struct {
	Parent string
	Child  string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("looking up text %s/%s: %v", e.Parent, e.Child, e.Err)
}

func (e *LookupError) Is(target error) bool { return target == ErrTextLookup }

func (e *LookupError) Unwrap() error { return e.Err }

// ModelError reports a failed model invocation, including responses that
// could not be parsed into a structured reading.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("invoking model: %v", e.Err)
}

func (e *ModelError) Is(target error) bool { return target == ErrModel }

func (e *ModelError) Unwrap() error { return e.Err }

// UsageLogError reports a usage-log write that failed after the reading
// itself succeeded. GenerateReading returns it alongside the finished
// result so callers can surface the reading and still flag the miss.
type UsageLogError struct {
	UserID  string
	Feature string
	Err     error
}

func (e *UsageLogError) Error() string {
	return fmt.Sprintf("logging usage for %s/%s: %v", e.UserID, e.Feature, e.Err)
}

func (e *UsageLogError) Is(target error) bool { return target == ErrUsageLog }

func (e *UsageLogError) Unwrap() error { return e.Err }
