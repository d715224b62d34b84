package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

var domainStatus = map[marketplace.ErrorType]int{
	marketplace.ErrTypeNotFound:     http.StatusNotFound,
	marketplace.ErrTypeInvalidInput: http.StatusBadRequest,
	marketplace.ErrTypeUnauthorized: http.StatusUnauthorized,
	marketplace.ErrTypeForbidden:    http.StatusForbidden,
	marketplace.ErrTypeConflict:     http.StatusConflict,
	marketplace.ErrTypeInternal:     http.StatusInternalServerError,
}

// ErrorHandler renders every error returned by handlers and middleware as
// a models.ErrorResponse. Install it as echo's HTTPErrorHandler.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, resp := errorResponse(err)
	resp.RequestID = middleware.GetRequestID(c)
	resp.Timestamp = time.Now().UTC()

	logger := middleware.Logger(c)
	if status >= http.StatusInternalServerError {
		fields := map[string]interface{}{"error": err.Error()}
		var de *marketplace.DomainError
		if errors.As(err, &de) && len(de.Stack) > 0 {
			fields["stack"] = string(de.Stack)
		}
		logger.Error("Request failed", fields)
	} else {
		logger.Debug("Request rejected", map[string]interface{}{"error": err.Error(), "status": status})
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, resp)
	}
	if writeErr != nil {
		logger.WithError(writeErr).Warn("Failed to write error response")
	}
}

func errorResponse(err error) (int, models.ErrorResponse) {
	var (
		de     *marketplace.DomainError
		ce     *utils.CustomError
		he     *echo.HTTPError
		maxErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &de):
		status, ok := domainStatus[de.Type]
		if !ok {
			status = http.StatusInternalServerError
		}
		msg := de.Message
		if status == http.StatusInternalServerError {
			msg = "Internal server error"
		}
		return status, models.ErrorResponse{Error: msg, Code: string(de.Type)}

	case errors.As(err, &ce):
		return ce.Code, models.ErrorResponse{Error: ce.Message, Code: strings.ToUpper(ce.Kind), Message: ce.Detail}

	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large", Code: "REQUEST_TOO_LARGE"}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, models.ErrorResponse{Error: "The server took too long to respond", Code: "TIMEOUT"}

	case errors.As(err, &he):
		if he.Internal != nil && errors.Is(he.Internal, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable, models.ErrorResponse{Error: "The server took too long to respond", Code: "TIMEOUT"}
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, models.ErrorResponse{Error: msg, Code: strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))}

	default:
		return http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error", Code: string(marketplace.ErrTypeInternal)}
	}
}

// bind decodes and validates the request body into req
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return utils.NewRequestTooLargeError("Request body too large")
		}
		return utils.NewBadRequestError("Invalid request format")
	}
	return c.Validate(req)
}

func ctxOf(c echo.Context) context.Context {
	return c.Request().Context()
}
