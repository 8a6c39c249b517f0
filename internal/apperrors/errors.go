package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicateTicket indicates a ticket was created with an ID that already
// exists. Ticket IDs are caller-supplied, so a collision is a caller bug and
// never a retryable condition.
var ErrDuplicateTicket = errors.New("ticket already exists")

// ErrUnknownTicket indicates an operation referenced a ticket that does not exist.
var ErrUnknownTicket = errors.New("unknown ticket")

// ErrTicketAlreadyClosed indicates a mutation was attempted on a ticket whose
// completed_at is already set. Closing a ticket is irreversible.
var ErrTicketAlreadyClosed = errors.New("ticket already closed")

// ErrAlreadySettled indicates a settlement row already exists for the given
// originating ledger entry. Under concurrent sweeps this is the expected
// outcome for every worker but the winner; callers treat it as success.
var ErrAlreadySettled = errors.New("ledger entry already settled")

// ErrMalformedEntry indicates a persisted tagged-union payload failed to parse
// against its expected shape. It is always surfaced, never silently dropped.
var ErrMalformedEntry = errors.New("malformed entry payload")

// AppError wraps an infrastructure-level failure with a status code and a
// message safe to log. The wrapped cause stays visible to errors.Is/As.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}
