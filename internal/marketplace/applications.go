package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"villagework/internal/events"
	"villagework/internal/store"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// Apply submits worker's application to an active job and tells the owner
func (s *Service) Apply(ctx context.Context, worker *models.User, jobID, message string) (*models.Application, error) {
	if err := requireRole(worker, models.RoleWorker); err != nil {
		return nil, err
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsActive() {
		return nil, InvalidInput("This job is not accepting applications", nil)
	}

	app := &models.Application{
		ID:            utils.NewID(),
		JobID:         job.ID,
		WorkerID:      worker.ID,
		ApplicantName: worker.Name,
		Message:       strings.TrimSpace(message),
		Status:        models.ApplicationPending,
		AppliedAt:     s.now().UTC(),
	}

	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("You have already applied for this job", err)
		}
		return nil, storeError("job", err)
	}

	created, err := s.store.GetApplication(ctx, app.ID)
	if err != nil {
		return nil, storeError("application", err)
	}

	s.logger.Info("application submitted", map[string]interface{}{
		"application_id": app.ID,
		"job_id":         job.ID,
		"worker_id":      worker.ID,
	})
	s.notify(ctx, job.OwnerID, models.NotificationApplication,
		"New application",
		fmt.Sprintf("%s applied for %s", worker.Name, job.Title),
		app.ID)
	s.publish(ctx, events.SubjectApplicationCreated, created)
	return created, nil
}

// MyApplications lists the caller's applications, each with its job embedded
func (s *Service) MyApplications(ctx context.Context, worker *models.User) ([]models.Application, error) {
	if err := requireRole(worker, models.RoleWorker); err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplicationsByWorker(ctx, worker.ID)
	if err != nil {
		return nil, storeError("applications", err)
	}
	return apps, nil
}

// UpdateApplicationStatus shortlists or rejects a pending application to one of
// the caller's jobs and tells the worker
func (s *Service) UpdateApplicationStatus(ctx context.Context, owner *models.User, id string, status models.ApplicationStatus) (*models.Application, error) {
	if status != models.ApplicationShortlisted && status != models.ApplicationRejected {
		return nil, InvalidInput("Status must be shortlisted or rejected", nil)
	}
	if err := requireRole(owner, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, storeError("application", err)
	}

	ownerID := ""
	if app.Job != nil {
		ownerID = app.Job.OwnerID
	}
	if !canManage(owner, ownerID) {
		return nil, Forbidden("You can only review applications to your own jobs", nil)
	}
	if !app.Status.CanTransition(status) {
		return nil, Conflict(fmt.Sprintf("Application is already %s", app.Status), nil)
	}

	// conditional on pending so a concurrent decision cannot be overwritten
	if err := s.store.UpdateApplicationStatus(ctx, id, app.Status, status); err != nil {
		return nil, storeError("application", err)
	}
	app.Status = status

	title := "Application update"
	message := fmt.Sprintf("Your application was %s", status)
	if app.Job != nil {
		message = fmt.Sprintf("Your application for %s was %s", app.Job.Title, status)
	}
	s.notify(ctx, app.WorkerID, models.NotificationStatus, title, message, app.ID)
	s.publish(ctx, events.SubjectApplicationStatus, map[string]string{
		"applicationId": app.ID,
		"jobId":         app.JobID,
		"workerId":      app.WorkerID,
		"status":        string(status),
	})
	return app, nil
}
