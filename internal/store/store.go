// Package store persists marketplace records.
package store

import (
	"context"
	"errors"
	"time"

	"villagework/pkg/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrStale is returned by conditional updates when the stored status
	// no longer matches the expected one
	ErrStale = errors.New("record was modified concurrently")
)

// PaymentQuery selects payments for one party, optionally by status
type PaymentQuery struct {
	WorkerID string
	OwnerID  string
	Status   models.PaymentStatus
}

// Matches reports whether p satisfies the query
func (q PaymentQuery) Matches(p *models.Payment) bool {
	if q.WorkerID != "" && p.WorkerID != q.WorkerID {
		return false
	}
	if q.OwnerID != "" && p.OwnerID != q.OwnerID {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	return true
}

// Store is the persistence boundary of the marketplace. List methods return
// records newest first unless stated otherwise; they never return nil slices.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	CountUsersByRole(ctx context.Context) (map[models.Role]int, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	// DeleteJob removes the job and every application to it
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context) ([]models.Job, error)

	// CreateApplication stores the application and increments the job's
	// applicant count atomically. A second application by the same worker
	// to the same job fails with ErrDuplicate.
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	// UpdateApplicationStatus moves the application from one status to
	// another, failing with ErrStale if it is no longer in from.
	UpdateApplicationStatus(ctx context.Context, id string, from, to models.ApplicationStatus) error
	ListApplicationsByWorker(ctx context.Context, workerID string) ([]models.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error)
	FindApplication(ctx context.Context, jobID, workerID string) (*models.Application, error)
	CountApplications(ctx context.Context) (int, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	// UpdatePayment stores p's status, paid time and method if the stored
	// payment is still in from, otherwise it fails with ErrStale.
	UpdatePayment(ctx context.Context, p *models.Payment, from models.PaymentStatus) error
	ListPayments(ctx context.Context, q PaymentQuery) ([]models.Payment, error)

	Ping(ctx context.Context) error
	Close() error
}
