package middleware

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"villagework/internal/logging"
	"villagework/pkg/utils"
)

const (
	requestIDKey = "request_id"
	loggerKey    = "logger"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// RequestValidation tags every request with an id and a request-scoped
// logger, and rejects bodies larger than maxBodyBytes.
func RequestValidation(maxBodyBytes int64, logger logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if !requestIDPattern.MatchString(requestID) {
				requestID = utils.GenerateRequestID()
			}
			c.Set(requestIDKey, requestID)
			c.Set(loggerKey, logger.WithField("request_id", requestID))
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			req := c.Request()
			if maxBodyBytes > 0 && req.Body != nil && req.Body != http.NoBody {
				if req.ContentLength > maxBodyBytes {
					return utils.NewRequestTooLargeError("Request body too large")
				}
				// chunked bodies have no Content-Length
				req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)
			}

			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestValidation
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDKey).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// Logger returns the request-scoped logger, or the global logger outside a request
func Logger(c echo.Context) logging.Logger {
	if l, ok := c.Get(loggerKey).(logging.Logger); ok {
		return l
	}
	return logging.LogWithRequestID(GetRequestID(c))
}
