package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"villagework/pkg/models"
	"villagework/pkg/utils"
)

const (
	userKey  = "user"
	tokenKey = "auth_token"
)

// Authenticator resolves a bearer token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests without a valid bearer token. The resolved
// user is available to handlers through CurrentUser.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return utils.NewUnauthorizedError("Authentication required")
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(userKey, user)
			c.Set(tokenKey, token)
			c.Set(loggerKey, Logger(c).WithField("user_id", user.ID))
			return next(c)
		}
	}
}

// RequireRole allows only users holding one of roles. It must run after RequireAuth.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return utils.NewUnauthorizedError("Authentication required")
			}
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return utils.NewForbiddenError("Your role cannot perform this action")
		}
	}
}

func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}

// SessionToken returns the bearer token of the current request
func SessionToken(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
