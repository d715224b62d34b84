package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

// ListJobsHandler returns every job. Filtering happens on the client.
func ListJobsHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobs, err := svc.ListJobs(ctxOf(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.JobsResponse{Success: true, Jobs: jobs})
	}
}

func GetJobHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := svc.GetJob(ctxOf(c), c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.JobResponse{Success: true, Job: job})
	}
}

func CreateJobHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.JobRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		job, err := svc.CreateJob(ctxOf(c), middleware.CurrentUser(c), req)
		if err != nil {
			return err
		}

		middleware.Logger(c).Info("Job posted", map[string]interface{}{"job_id": job.ID})
		return c.JSON(http.StatusCreated, models.JobResponse{Success: true, Job: job})
	}
}

func UpdateJobHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.JobRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		job, err := svc.UpdateJob(ctxOf(c), middleware.CurrentUser(c), c.Param("id"), req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.JobResponse{Success: true, Job: job})
	}
}

// SetJobStatusHandler pauses or resumes a job
func SetJobStatusHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.JobStatusRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		job, err := svc.SetJobStatus(ctxOf(c), middleware.CurrentUser(c), c.Param("id"), req.Status)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.JobResponse{Success: true, Job: job})
	}
}

// DeleteJobHandler removes a job together with its applications
func DeleteJobHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if err := svc.DeleteJob(ctxOf(c), middleware.CurrentUser(c), id); err != nil {
			return err
		}

		middleware.Logger(c).Info("Job deleted", map[string]interface{}{"job_id": id})
		return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Job deleted"})
	}
}

func JobApplicationsHandler(svc *marketplace.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		apps, err := svc.JobApplications(ctxOf(c), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, models.ApplicationsResponse{Success: true, Applications: apps})
	}
}
