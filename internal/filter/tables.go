package filter

import (
	"strings"

	"villagework/pkg/models"
)

// UrgentApplicantThreshold marks a job as urgent while it has fewer applicants than this
const UrgentApplicantThreshold = 3

var jobTable = NewTable(map[string]Predicate[models.Job]{
	"urgent":      func(j *models.Job) bool { return j.Applicants < UrgentApplicantThreshold },
	"training":    func(j *models.Job) bool { return j.TrainingProvided },
	"helper":      experience(models.ExperienceHelper),
	"beginner":    experience(models.ExperienceHelper),
	"worker":      experience(models.ExperienceWorker),
	"experienced": experience(models.ExperienceWorker),
	"expert":      experience(models.ExperienceExpert),
	"daily":       category(models.CategoryDaily),
	"technical":   category(models.CategoryTechnical),
	"active":      func(j *models.Job) bool { return j.Status == models.JobStatusActive },
	"paused":      func(j *models.Job) bool { return j.Status == models.JobStatusPaused },
}, func(j *models.Job) []string {
	return []string{j.Title, j.Location, j.PostedBy}
})

var applicationTable = NewTable(map[string]Predicate[models.Application]{
	"pending":     applicationStatus(models.ApplicationPending),
	"shortlisted": applicationStatus(models.ApplicationShortlisted),
	"rejected":    applicationStatus(models.ApplicationRejected),
}, func(a *models.Application) []string {
	fields := []string{a.ApplicantName}
	if a.Job != nil {
		fields = append(fields, a.Job.Title)
	}
	return fields
})

// Jobs filters jobs by key and query
func Jobs(jobs []models.Job, key, query string) []models.Job {
	return jobTable.Apply(jobs, key, query)
}

// Applications filters applications by key and query
func Applications(apps []models.Application, key, query string) []models.Application {
	return applicationTable.Apply(apps, key, query)
}

// JobKeys lists the filter keys understood by Jobs
func JobKeys() []string {
	return jobTable.Keys()
}

// ApplicationKeys lists the filter keys understood by Applications
func ApplicationKeys() []string {
	return applicationTable.Keys()
}

// IsJobKey reports whether key is a known job filter
func IsJobKey(key string) bool {
	return jobTable.Known(key)
}

func experience(level models.ExperienceLevel) Predicate[models.Job] {
	return func(j *models.Job) bool {
		normalized, ok := models.NormalizeExperienceLevel(string(j.ExperienceLevel))
		return ok && normalized == level
	}
}

func category(name string) Predicate[models.Job] {
	return func(j *models.Job) bool {
		return strings.EqualFold(j.Category, name)
	}
}

func applicationStatus(status models.ApplicationStatus) Predicate[models.Application] {
	return func(a *models.Application) bool { return a.Status == status }
}
