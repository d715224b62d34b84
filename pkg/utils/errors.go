package utils

import (
	"fmt"
	"net/http"
)

// CustomError represents an error raised by the HTTP layer itself
type CustomError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func NewBadRequestError(message string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Kind: "invalid_request", Message: message}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Kind: "validation_failed", Message: "Validation failed", Detail: detail}
}

func NewUnauthorizedError(message string) *CustomError {
	return &CustomError{Code: http.StatusUnauthorized, Kind: "unauthorized", Message: message}
}

func NewNotFoundError(message string) *CustomError {
	return &CustomError{Code: http.StatusNotFound, Kind: "not_found", Message: message}
}

func NewForbiddenError(message string) *CustomError {
	return &CustomError{Code: http.StatusForbidden, Kind: "forbidden", Message: message}
}

func NewTooManyRequestsError(message string) *CustomError {
	return &CustomError{Code: http.StatusTooManyRequests, Kind: "rate_limited", Message: message}
}

func NewRequestTooLargeError(message string) *CustomError {
	return &CustomError{Code: http.StatusRequestEntityTooLarge, Kind: "request_too_large", Message: message}
}
