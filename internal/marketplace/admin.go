package marketplace

import (
	"context"

	"villagework/internal/store"
	"villagework/pkg/models"
)

// AdminOverview summarizes the whole platform
func (s *Service) AdminOverview(ctx context.Context, admin *models.User) (models.PlatformOverview, error) {
	var overview models.PlatformOverview
	if err := requireRole(admin, models.RoleAdmin); err != nil {
		return overview, err
	}

	roles, err := s.store.CountUsersByRole(ctx)
	if err != nil {
		return overview, storeError("users", err)
	}
	overview.Workers = roles[models.RoleWorker]
	overview.Owners = roles[models.RoleOwner]
	overview.Admins = roles[models.RoleAdmin]

	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return overview, storeError("jobs", err)
	}
	overview.Jobs = len(jobs)
	for i := range jobs {
		if jobs[i].IsActive() {
			overview.ActiveJobs++
		}
	}

	if overview.Applications, err = s.store.CountApplications(ctx); err != nil {
		return overview, storeError("applications", err)
	}

	payments, err := s.store.ListPayments(ctx, store.PaymentQuery{})
	if err != nil {
		return overview, storeError("payments", err)
	}
	overview.Payments = len(payments)
	for _, p := range payments {
		switch p.Status {
		case models.PaymentCompleted:
			overview.CompletedVolume += p.Amount
		case models.PaymentPending:
			overview.PendingVolume += p.Amount
		}
	}

	return overview, nil
}
