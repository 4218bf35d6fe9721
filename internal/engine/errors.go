package engine

import (
	"errors"
	"fmt"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// DispatchError represents an error detected while dispatching an event.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// UserID identifies the affected conversation.
	UserID card.UserID

	// Trace is the trace token of the event, if one was assigned.
	Trace string

	// Err is the underlying cause.
	Err error
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeStopped indicates the dispatcher no longer accepts events.
	ErrCodeStopped DispatchErrorCode = "DISPATCHER_STOPPED"

	// ErrCodeDeliveryFailed indicates the sender could not deliver a reply.
	ErrCodeDeliveryFailed DispatchErrorCode = "DELIVERY_FAILED"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("%s: %s (user=%s", e.Code, e.Message, e.UserID)
	if e.Trace != "" {
		msg += ", trace=" + e.Trace
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsStopped returns true if err reports a stopped dispatcher.
// Uses errors.As to handle wrapped errors.
func IsStopped(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeStopped
	}
	return false
}

// IsDeliveryError returns true if err is a delivery failure.
func IsDeliveryError(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeDeliveryFailed
	}
	return false
}
