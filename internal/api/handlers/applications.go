package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

// ApplyHandler submits the current worker's application to a job
func ApplyHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ApplyRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		app, err := svc.Apply(ctxOf(c), middleware.CurrentUser(c), req.JobID, req.Message)
		if err != nil {
			return err
		}

		middleware.Logger(c).Info("Application submitted", map[string]interface{}{
			"application_id": app.ID,
			"job_id":         app.JobID,
		})
		return c.JSON(http.StatusCreated, models.ApplicationResponse{Success: true, Application: app})
	}
}

func MyApplicationsHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		apps, err := svc.MyApplications(ctxOf(c), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.ApplicationsResponse{Success: true, Applications: apps})
	}
}

// UpdateApplicationStatusHandler shortlists or rejects a pending application
func UpdateApplicationStatusHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ApplicationStatusRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		app, err := svc.UpdateApplicationStatus(ctxOf(c), middleware.CurrentUser(c), c.Param("id"), req.Status)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.ApplicationResponse{Success: true, Application: app})
	}
}
