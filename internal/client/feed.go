package client

import (
	"context"

	"villagework/pkg/models"
)

// Feed wraps the passive loads a screen performs on open. A failed load is
// logged and shows up as an empty list or a zeroed summary; the caller
// decides nothing. User-triggered actions go through Client directly.
type Feed struct {
	client *Client
}

func NewFeed(c *Client) *Feed {
	return &Feed{client: c}
}

func (f *Feed) degraded(what string, err error) {
	f.client.logger.Warn("load failed, showing empty "+what, map[string]interface{}{
		"error": err.Error(),
	})
}

func (f *Feed) Jobs(ctx context.Context) []models.Job {
	jobs, err := f.client.ListJobs(ctx)
	if err != nil {
		f.degraded("jobs", err)
		return []models.Job{}
	}
	return jobs
}

func (f *Feed) MyApplications(ctx context.Context) []models.Application {
	apps, err := f.client.MyApplications(ctx)
	if err != nil {
		f.degraded("applications", err)
		return []models.Application{}
	}
	return apps
}

func (f *Feed) Notifications(ctx context.Context) ([]models.Notification, int) {
	list, unread, err := f.client.Notifications(ctx)
	if err != nil {
		f.degraded("notifications", err)
		return []models.Notification{}, 0
	}
	return list, unread
}

func (f *Feed) Payments(ctx context.Context, status string) []models.Payment {
	payments, err := f.client.PaymentHistory(ctx, status)
	if err != nil {
		f.degraded("payments", err)
		return []models.Payment{}
	}
	return payments
}

func (f *Feed) Earnings(ctx context.Context) models.EarningsSummary {
	summary, err := f.client.EarningsSummary(ctx)
	if err != nil {
		f.degraded("earnings", err)
		return models.EarningsSummary{}
	}
	return summary
}
