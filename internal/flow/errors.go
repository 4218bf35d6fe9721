package flow

import (
	"errors"
	"fmt"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// Error represents a failure that escapes the flow engine.
//
// Validation and precondition failures never become an Error; they are
// answered with an ordinary reply. Only infrastructure failures (and
// malformed events) are returned to the caller.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the store operation or handler that failed.
	Op string

	// UserID identifies the affected conversation.
	UserID card.UserID

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes flow errors.
type ErrorCode string

const (
	// ErrCodeStoreUnavailable indicates the record store failed.
	// No state transition happened.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// ErrCodeUnknownEvent indicates an event kind the engine cannot route.
	ErrCodeUnknownEvent ErrorCode = "UNKNOWN_EVENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (user=%s): %v", e.Code, e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("%s: %s (user=%s)", e.Code, e.Op, e.UserID)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsStoreUnavailable returns true if err is a store failure.
// Uses errors.As to handle wrapped errors.
func IsStoreUnavailable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeStoreUnavailable
	}
	return false
}

func storeError(userID card.UserID, op string, err error) *Error {
	return &Error{
		Code:   ErrCodeStoreUnavailable,
		Op:     op,
		UserID: userID,
		Err:    err,
	}
}
