package marketplace

import (
	"context"
	"strings"

	"villagework/internal/events"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// ListJobs returns every job, newest first. Filtering happens on the client.
func (s *Service) ListJobs(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, storeError("jobs", err)
	}
	return jobs, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, storeError("job", err)
	}
	return job, nil
}

// CreateJob posts a new active job owned by owner
func (s *Service) CreateJob(ctx context.Context, owner *models.User, req models.JobRequest) (*models.Job, error) {
	if err := requireRole(owner, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:       utils.NewID(),
		Status:   models.JobStatusActive,
		PostedBy: owner.Name,
		OwnerID:  owner.ID,
		PostedAt: s.now().UTC(),
	}
	if err := applyJobRequest(job, req); err != nil {
		return nil, err
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, storeError("job", err)
	}

	s.logger.Info("job created", map[string]interface{}{
		"job_id":   job.ID,
		"owner_id": owner.ID,
	})
	s.publish(ctx, events.SubjectJobCreated, job)
	return job, nil
}

// UpdateJob replaces the editable fields of a job the caller owns
func (s *Service) UpdateJob(ctx context.Context, owner *models.User, id string, req models.JobRequest) (*models.Job, error) {
	job, err := s.managedJob(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := applyJobRequest(job, req); err != nil {
		return nil, err
	}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, storeError("job", err)
	}
	return s.GetJob(ctx, id)
}

// SetJobStatus pauses or resumes a job
func (s *Service) SetJobStatus(ctx context.Context, owner *models.User, id string, status models.JobStatus) (*models.Job, error) {
	if status != models.JobStatusActive && status != models.JobStatusPaused {
		return nil, InvalidInput("Status must be Active or Paused", nil)
	}

	job, err := s.managedJob(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if job.Status == status {
		return job, nil
	}

	job.Status = status
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, storeError("job", err)
	}
	return s.GetJob(ctx, id)
}

// DeleteJob removes a job and every application to it
func (s *Service) DeleteJob(ctx context.Context, owner *models.User, id string) error {
	job, err := s.managedJob(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return storeError("job", err)
	}

	s.logger.Info("job deleted", map[string]interface{}{
		"job_id":   id,
		"owner_id": job.OwnerID,
	})
	s.publish(ctx, events.SubjectJobDeleted, map[string]string{"jobId": id, "ownerId": job.OwnerID})
	return nil
}

// JobApplications lists the applications to a job the caller owns
func (s *Service) JobApplications(ctx context.Context, owner *models.User, jobID string) ([]models.Application, error) {
	if _, err := s.managedJob(ctx, owner, jobID); err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, storeError("applications", err)
	}
	return apps, nil
}

func (s *Service) managedJob(ctx context.Context, user *models.User, id string) (*models.Job, error) {
	if err := requireRole(user, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(user, job.OwnerID) {
		return nil, Forbidden("You can only manage your own jobs", nil)
	}
	return job, nil
}

func applyJobRequest(job *models.Job, req models.JobRequest) error {
	level, ok := models.NormalizeExperienceLevel(req.ExperienceLevel)
	if !ok {
		return InvalidInput("Unknown experience level", nil)
	}

	title := strings.TrimSpace(req.Title)
	location := strings.TrimSpace(req.Location)
	if title == "" || location == "" {
		return InvalidInput("Title and location are required", nil)
	}

	job.Title = title
	job.Description = strings.TrimSpace(req.Description)
	job.Location = location
	job.Salary = strings.TrimSpace(req.Salary)
	job.Category = strings.TrimSpace(req.Category)
	job.ExperienceLevel = level
	job.TrainingProvided = req.TrainingProvided
	job.Requirements = utils.CleanList(req.Requirements)
	job.Benefits = utils.CleanList(req.Benefits)
	return nil
}
