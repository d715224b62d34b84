package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"villagework/internal/events"
	"villagework/internal/store"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// CreatePayment records a pending payment from the job's owner to a worker
// who applied to that job
func (s *Service) CreatePayment(ctx context.Context, owner *models.User, req models.PaymentRequest) (*models.Payment, error) {
	if req.Amount <= 0 {
		return nil, InvalidInput("Amount must be greater than zero", nil)
	}
	switch req.Method {
	case models.PaymentMethodCash, models.PaymentMethodUPI, models.PaymentMethodBank:
	default:
		return nil, InvalidInput("Method must be cash, upi or bank", nil)
	}

	job, err := s.managedJob(ctx, owner, req.JobID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindApplication(ctx, job.ID, req.WorkerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, InvalidInput("This worker has not applied for the job", nil)
		}
		return nil, storeError("application", err)
	}

	payment := &models.Payment{
		ID:        utils.NewID(),
		JobID:     job.ID,
		JobTitle:  job.Title,
		WorkerID:  req.WorkerID,
		OwnerID:   job.OwnerID,
		Amount:    req.Amount,
		Method:    req.Method,
		Status:    models.PaymentPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, storeError("payment", err)
	}

	s.notify(ctx, payment.WorkerID, models.NotificationPayment,
		"Payment recorded",
		fmt.Sprintf("₹%d for %s is on its way", payment.Amount, payment.JobTitle),
		payment.ID)
	s.publish(ctx, events.SubjectPaymentUpdated, payment)
	return payment, nil
}

// UpdatePaymentStatus settles a pending payment as completed or failed
func (s *Service) UpdatePaymentStatus(ctx context.Context, owner *models.User, id string, status models.PaymentStatus) (*models.Payment, error) {
	if status != models.PaymentCompleted && status != models.PaymentFailed {
		return nil, InvalidInput("Status must be completed or failed", nil)
	}
	if err := requireRole(owner, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, storeError("payment", err)
	}
	if !canManage(owner, payment.OwnerID) {
		return nil, Forbidden("You can only settle your own payments", nil)
	}
	if payment.Status != models.PaymentPending {
		return nil, Conflict(fmt.Sprintf("Payment is already %s", payment.Status), nil)
	}

	payment.Status = status
	if status == models.PaymentCompleted {
		paidAt := s.now().UTC()
		payment.PaidAt = &paidAt
	}
	if err := s.store.UpdatePayment(ctx, payment, models.PaymentPending); err != nil {
		return nil, storeError("payment", err)
	}

	message := fmt.Sprintf("₹%d for %s has been paid", payment.Amount, payment.JobTitle)
	if status == models.PaymentFailed {
		message = fmt.Sprintf("₹%d for %s could not be paid", payment.Amount, payment.JobTitle)
	}
	s.notify(ctx, payment.WorkerID, models.NotificationPayment, "Payment update", message, payment.ID)
	s.publish(ctx, events.SubjectPaymentUpdated, payment)
	return payment, nil
}

// PaymentHistory lists the caller's payments, newest first. Workers see what
// they were paid, owners what they paid and admins everything. status may be
// empty.
func (s *Service) PaymentHistory(ctx context.Context, user *models.User, status string) ([]models.Payment, error) {
	q := store.PaymentQuery{Status: models.PaymentStatus(status)}
	if status != "" && !q.Status.Valid() {
		return nil, InvalidInput("Unknown payment status", nil)
	}

	switch user.Role {
	case models.RoleWorker:
		q.WorkerID = user.ID
	case models.RoleOwner:
		q.OwnerID = user.ID
	}

	payments, err := s.store.ListPayments(ctx, q)
	if err != nil {
		return nil, storeError("payments", err)
	}
	return payments, nil
}

// EarningsSummary totals the caller's payments. ThisMonth counts completed
// payments paid in the current calendar month (UTC).
func (s *Service) EarningsSummary(ctx context.Context, user *models.User) (models.EarningsSummary, error) {
	payments, err := s.PaymentHistory(ctx, user, "")
	if err != nil {
		return models.EarningsSummary{}, err
	}
	return summarize(payments, s.now().UTC()), nil
}

func summarize(payments []models.Payment, now time.Time) models.EarningsSummary {
	var sum models.EarningsSummary
	for _, p := range payments {
		switch p.Status {
		case models.PaymentCompleted:
			sum.TotalEarnings += p.Amount
			sum.CompletedPayments++
			paid := p.CreatedAt
			if p.PaidAt != nil {
				paid = *p.PaidAt
			}
			paid = paid.UTC()
			if paid.Year() == now.Year() && paid.Month() == now.Month() {
				sum.ThisMonth += p.Amount
			}
		case models.PaymentPending:
			sum.PendingAmount += p.Amount
			sum.PendingPayments++
		}
	}
	return sum
}
