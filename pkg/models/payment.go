package models

import "time"

// PaymentStatus tracks a payment from an owner to a worker
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Payment methods
const (
	PaymentMethodCash = "cash"
	PaymentMethodUPI  = "upi"
	PaymentMethodBank = "bank"
)

// Payment is money owed or paid for work on a job. Amount is in whole rupees.
type Payment struct {
	ID        string        `json:"_id"`
	JobID     string        `json:"jobId"`
	JobTitle  string        `json:"jobTitle"`
	WorkerID  string        `json:"workerId"`
	OwnerID   string        `json:"ownerId"`
	Amount    int64         `json:"amount"`
	Method    string        `json:"method"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	PaidAt    *time.Time    `json:"paidAt,omitempty"`
}

// EarningsSummary aggregates a user's payments
type EarningsSummary struct {
	TotalEarnings     int64 `json:"totalEarnings"`
	PendingAmount     int64 `json:"pendingAmount"`
	ThisMonth         int64 `json:"thisMonth"`
	CompletedPayments int   `json:"completedPayments"`
	PendingPayments   int   `json:"pendingPayments"`
}

// PlatformOverview is the admin dashboard summary
type PlatformOverview struct {
	Workers         int   `json:"workers"`
	Owners          int   `json:"owners"`
	Admins          int   `json:"admins"`
	Jobs            int   `json:"jobs"`
	ActiveJobs      int   `json:"activeJobs"`
	Applications    int   `json:"applications"`
	Payments        int   `json:"payments"`
	CompletedVolume int64 `json:"completedVolume"`
	PendingVolume   int64 `json:"pendingVolume"`
}
