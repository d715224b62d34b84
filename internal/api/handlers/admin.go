package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

// AdminOverviewHandler returns platform-wide counts
func AdminOverviewHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		overview, err := svc.AdminOverview(ctxOf(c), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.OverviewResponse{Success: true, Overview: overview})
	}
}
