package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

func NotificationsHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, unread, err := svc.Notifications(ctxOf(c), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.NotificationsResponse{Success: true, Notifications: list, UnreadCount: unread})
	}
}

func UnreadCountHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		count, err := svc.UnreadCount(ctxOf(c), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.UnreadCountResponse{Success: true, Count: count})
	}
}

// MarkReadHandler marks one notification read; repeating it is harmless
func MarkReadHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.MarkNotificationRead(ctxOf(c), middleware.CurrentUser(c), c.Param("id")); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
	}
}

func MarkAllReadHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := svc.MarkAllNotificationsRead(ctxOf(c), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.MarkAllReadResponse{Success: true, Updated: n})
	}
}
