package client

import (
	"context"
	"net/url"

	"villagework/pkg/models"
)

func escape(id string) string { return url.PathEscape(id) }

// Register creates an account and returns its token
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Post(ctx, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, phone, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Post(ctx, "/api/auth/login", models.LoginRequest{Phone: phone, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "/api/auth/logout", nil, nil, WithAuth())
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.UserResponse
	if err := c.Get(ctx, "/api/auth/me", &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ListJobs fetches every job. No authentication is needed.
func (c *Client) ListJobs(ctx context.Context) ([]models.Job, error) {
	var out models.JobsResponse
	if err := c.Get(ctx, "/api/jobs", &out); err != nil {
		return nil, err
	}
	return nonNil(out.Jobs), nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var out models.JobResponse
	if err := c.Get(ctx, "/api/jobs/"+escape(id), &out); err != nil {
		return nil, err
	}
	return out.Job, nil
}

func (c *Client) CreateJob(ctx context.Context, req models.JobRequest) (*models.Job, error) {
	var out models.JobResponse
	if err := c.Post(ctx, "/api/jobs", req, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Job, nil
}

func (c *Client) UpdateJob(ctx context.Context, id string, req models.JobRequest) (*models.Job, error) {
	var out models.JobResponse
	if err := c.Put(ctx, "/api/jobs/"+escape(id), req, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Job, nil
}

func (c *Client) SetJobStatus(ctx context.Context, id string, status models.JobStatus) (*models.Job, error) {
	var out models.JobResponse
	if err := c.Put(ctx, "/api/jobs/"+escape(id)+"/status", models.JobStatusRequest{Status: status}, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Job, nil
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.Del(ctx, "/api/jobs/"+escape(id), nil, WithAuth())
}

func (c *Client) JobApplications(ctx context.Context, jobID string) ([]models.Application, error) {
	var out models.ApplicationsResponse
	if err := c.Get(ctx, "/api/jobs/"+escape(jobID)+"/applications", &out, WithAuth()); err != nil {
		return nil, err
	}
	return nonNil(out.Applications), nil
}

// Apply submits an application. The server's "error" message (for example a
// duplicate application) is returned as an *APIError.
func (c *Client) Apply(ctx context.Context, jobID, message string) (*models.Application, error) {
	var out models.ApplicationResponse
	if err := c.Post(ctx, "/api/applications", models.ApplyRequest{JobID: jobID, Message: message}, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Application, nil
}

func (c *Client) MyApplications(ctx context.Context) ([]models.Application, error) {
	var out models.ApplicationsResponse
	if err := c.Get(ctx, "/api/applications/my-applications", &out, WithAuth()); err != nil {
		return nil, err
	}
	return nonNil(out.Applications), nil
}

func (c *Client) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	var out models.ApplicationResponse
	if err := c.Put(ctx, "/api/applications/"+escape(id)+"/status", models.ApplicationStatusRequest{Status: status}, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Application, nil
}

// HasApplied reports whether apps already holds an application to jobID
func HasApplied(apps []models.Application, jobID string) bool {
	for i := range apps {
		if apps[i].TargetJobID() == jobID {
			return true
		}
	}
	return false
}

// Notifications returns the inbox and its unread count
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, int, error) {
	var out models.NotificationsResponse
	if err := c.Get(ctx, "/api/notifications", &out, WithAuth()); err != nil {
		return nil, 0, err
	}
	return nonNil(out.Notifications), out.UnreadCount, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out models.UnreadCountResponse
	if err := c.Get(ctx, "/api/notifications/unread-count", &out, WithAuth()); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.Put(ctx, "/api/notifications/"+escape(id)+"/read", nil, nil, WithAuth())
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var out models.MarkAllReadResponse
	if err := c.Put(ctx, "/api/notifications/read-all", nil, &out, WithAuth()); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

// PaymentHistory lists payments; status may be empty for all
func (c *Client) PaymentHistory(ctx context.Context, status string) ([]models.Payment, error) {
	var out models.PaymentsResponse
	if err := c.Get(ctx, "/api/payments/history", &out, WithAuth(), WithQuery("status", status)); err != nil {
		return nil, err
	}
	return nonNil(out.Payments), nil
}

func (c *Client) EarningsSummary(ctx context.Context) (models.EarningsSummary, error) {
	var out models.EarningsResponse
	if err := c.Get(ctx, "/api/payments/earnings/summary", &out, WithAuth()); err != nil {
		return models.EarningsSummary{}, err
	}
	return out.Summary, nil
}

func (c *Client) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	var out models.PaymentResponse
	if err := c.Post(ctx, "/api/payments", req, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Payment, nil
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Payment, error) {
	var out models.PaymentResponse
	if err := c.Put(ctx, "/api/payments/"+escape(id)+"/status", models.PaymentStatusRequest{Status: status}, &out, WithAuth()); err != nil {
		return nil, err
	}
	return out.Payment, nil
}

func (c *Client) AdminOverview(ctx context.Context) (models.PlatformOverview, error) {
	var out models.OverviewResponse
	if err := c.Get(ctx, "/api/admin/overview", &out, WithAuth()); err != nil {
		return models.PlatformOverview{}, err
	}
	return out.Overview, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
