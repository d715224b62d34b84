package marketplace

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrTypeForbidden    ErrorType = "FORBIDDEN"
	ErrTypeConflict     ErrorType = "CONFLICT"
	ErrTypeInternal     ErrorType = "INTERNAL"
)

// DomainError is returned by every Service operation that fails
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func newError(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string, err error) *DomainError {
	return newError(ErrTypeNotFound, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return newError(ErrTypeInvalidInput, message, err)
}

func Unauthorized(message string, err error) *DomainError {
	return newError(ErrTypeUnauthorized, message, err)
}

func Forbidden(message string, err error) *DomainError {
	return newError(ErrTypeForbidden, message, err)
}

func Conflict(message string, err error) *DomainError {
	return newError(ErrTypeConflict, message, err)
}

func Internal(message string, err error) *DomainError {
	return newError(ErrTypeInternal, message, err)
}

// TypeOf returns the type of a DomainError anywhere in err's chain, or INTERNAL
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ErrTypeInternal
}

// MessageOf returns the user-facing message of a DomainError in err's chain
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "Internal server error"
}
