package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

// RegisterHandler creates a worker or owner account and returns its token
func RegisterHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.RegisterRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		user, token, err := svc.Register(ctxOf(c), req)
		if err != nil {
			return err
		}

		middleware.Logger(c).Info("Account created", map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		})
		return c.JSON(http.StatusCreated, models.AuthResponse{Success: true, Token: token, User: user})
	}
}

func LoginHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.LoginRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		user, token, err := svc.Login(ctxOf(c), req.Phone, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.AuthResponse{Success: true, Token: token, User: user})
	}
}

// LogoutHandler ends the session behind the request's bearer token
func LogoutHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.Logout(ctxOf(c), middleware.SessionToken(c)); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Signed out"})
	}
}

func MeHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.UserResponse{Success: true, User: middleware.CurrentUser(c)})
	}
}
