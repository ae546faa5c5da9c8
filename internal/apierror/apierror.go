// Package apierror defines the client-facing error taxonomy and the single
// classifier that turns any handler error into a status code and message.
package apierror

import (
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// MessageDatabase is returned for persistence constraint failures. The cause is logged only.
	MessageDatabase = "DATABASE ERROR"
	// MessageInternal is returned when an unclassified error carries no message.
	MessageInternal = "INTERNAL SERVER ERROR"
)

// Error is a domain error with an explicit status code and a safe message.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCoder is implemented by errors that already know their HTTP status.
type StatusCoder interface {
	error
	StatusCode() int
	PublicMessage() string
}

// StatusCode reports the HTTP status of the error.
func (e *Error) StatusCode() int { return e.Status }

// PublicMessage reports the message that is safe to send to clients.
func (e *Error) PublicMessage() string { return e.Message }

// New builds a domain error.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap builds a domain error that keeps the underlying cause for logging.
func Wrap(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

func Unprocessable(message string) *Error { return New(http.StatusUnprocessableEntity, message) }

func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }

func Forbidden(message string) *Error { return New(http.StatusForbidden, message) }

func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

func Conflict(message string) *Error { return New(http.StatusConflict, message) }

func TooManyRequests(message string) *Error { return New(http.StatusTooManyRequests, message) }

func ServiceUnavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, message)
}

// Database hides a persistence failure behind the generic database message.
func Database(err error) *Error {
	return Wrap(http.StatusBadRequest, MessageDatabase, err)
}

// Internal reports an unexpected failure.
func Internal(err error) *Error {
	message := MessageInternal
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return Wrap(http.StatusInternalServerError, message, err)
}

// Classification is the outcome of Classify.
type Classification struct {
	Status  int
	Message string
	// Cause is set when the original error must be logged but not exposed.
	Cause error
}

// Classify maps an arbitrary error to the status and message sent to the client.
// Domain errors pass through unchanged, integrity constraint violations become a
// generic database error, and everything else is an internal error.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Status: http.StatusInternalServerError, Message: MessageInternal}
	}

	var coded StatusCoder
	if errors.As(err, &coded) {
		return Classification{Status: coded.StatusCode(), Message: coded.PublicMessage(), Cause: errors.Unwrap(coded)}
	}

	if IsConstraintViolation(err) {
		return Classification{Status: http.StatusBadRequest, Message: MessageDatabase, Cause: err}
	}

	message := err.Error()
	if message == "" {
		message = MessageInternal
	}
	return Classification{Status: http.StatusInternalServerError, Message: message, Cause: err}
}

// IsConstraintViolation reports whether err carries a SQLSTATE class 23 code.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
}
