package models

import (
	"strings"
	"time"
)

// JobStatus is the listing state of a job posting
type JobStatus string

const (
	JobStatusActive JobStatus = "Active"
	JobStatusPaused JobStatus = "Paused"
)

// Job categories used as filter keys. Owners may also post free-text categories.
const (
	CategoryDaily     = "daily"
	CategoryTechnical = "technical"
)

// ExperienceLevel is the experience a job asks for
type ExperienceLevel string

const (
	ExperienceHelper ExperienceLevel = "helper"
	ExperienceWorker ExperienceLevel = "worker"
	ExperienceExpert ExperienceLevel = "expert"
	ExperienceAny    ExperienceLevel = "any"
)

// NormalizeExperienceLevel maps accepted aliases onto the canonical levels.
// The second return value is false when the input is not a known level.
func NormalizeExperienceLevel(level string) (ExperienceLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "helper", "beginner":
		return ExperienceHelper, true
	case "worker", "experienced":
		return ExperienceWorker, true
	case "expert":
		return ExperienceExpert, true
	case "any", "":
		return ExperienceAny, true
	default:
		return "", false
	}
}

// Job represents a job posted by an owner
type Job struct {
	ID               string          `json:"_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	Salary           string          `json:"salary"`
	Category         string          `json:"category"`
	ExperienceLevel  ExperienceLevel `json:"experienceLevel"`
	TrainingProvided bool            `json:"trainingProvided"`
	Applicants       int             `json:"applicants"`
	Status           JobStatus       `json:"status"`
	PostedBy         string          `json:"postedBy"`
	OwnerID          string          `json:"ownerId"`
	PostedAt         time.Time       `json:"postedAt"`
	Requirements     []string        `json:"requirements"`
	Benefits         []string        `json:"benefits"`
}

// IsActive reports whether the job accepts applications
func (j *Job) IsActive() bool {
	return j.Status == JobStatusActive
}
