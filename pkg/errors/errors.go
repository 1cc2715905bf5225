package errors

import (
	"fmt"
	"strings"
)

// ErrTransport is returned when the remote API could not be reached or
// answered with a non-2xx status.
type ErrTransport struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ErrTransport) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("transport error: status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport error: status %d", e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("transport error: %v", e.Cause)
	default:
		return "transport error"
	}
}

func (e *ErrTransport) Unwrap() error {
	return e.Cause
}

// ErrRejected is returned when the server answered 2xx but the envelope
// response_code does not signal success.
type ErrRejected struct {
	Code    string
	Message string
	Errors  []string
}

func (e *ErrRejected) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rejected by server: %s", e.Code)
	}
	return fmt.Sprintf("rejected by server: %s", e.Message)
}

// ErrAuthenticationRequired is returned locally for operations that need a
// bearer credential when only a guest identity is present.
type ErrAuthenticationRequired struct {
	Operation string
}

func (e *ErrAuthenticationRequired) Error() string {
	return fmt.Sprintf("%s requires an authenticated identity", e.Operation)
}

// ErrAlreadyInFlight is returned when a mutation for the same key is still pending.
type ErrAlreadyInFlight struct {
	Key string
}

func (e *ErrAlreadyInFlight) Error() string {
	return fmt.Sprintf("a mutation for %s is already in flight", e.Key)
}

type ErrMissingIdentity struct{}

func (e *ErrMissingIdentity) Error() string {
	return "no guest id or token available"
}

type ErrInvalidQuantity struct {
	Quantity int
}

func (e *ErrInvalidQuantity) Error() string {
	return fmt.Sprintf("invalid quantity %d: must be at least 1", e.Quantity)
}

type ErrEmptyCouponCode struct{}

func (e *ErrEmptyCouponCode) Error() string {
	return "coupon code is empty"
}

// ErrStaleResponse is returned when a response arrives for an entity that was
// removed locally while the request was in flight. The response is discarded.
type ErrStaleResponse struct {
	Resource string
	ID       string
}

func (e *ErrStaleResponse) Error() string {
	return fmt.Sprintf("discarded stale response for %s %s", e.Resource, e.ID)
}

type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrInvalidStateTransition is returned by the mutation state machine.
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ValidationError describes one missing or invalid booking field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors collects every problem found in one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the collected errors.
func (e ValidationErrors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Fields returns the field names in collection order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = v.Field
	}
	return fields
}
