package models

import "time"

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// CanTransition reports whether an application may move from s to next.
// Only pending applications can be decided; shortlisted and rejected are final.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	if s != ApplicationPending {
		return false
	}
	return next == ApplicationShortlisted || next == ApplicationRejected
}

// Application is a worker's request to take a job
type Application struct {
	ID            string            `json:"_id"`
	JobID         string            `json:"jobId"`
	Job           *Job              `json:"job,omitempty"`
	WorkerID      string            `json:"workerId"`
	ApplicantName string            `json:"applicantName"`
	Message       string            `json:"message"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
}

// TargetJobID returns the id of the applied job, preferring the embedded job
func (a *Application) TargetJobID() string {
	if a.Job != nil && a.Job.ID != "" {
		return a.Job.ID
	}
	return a.JobID
}
