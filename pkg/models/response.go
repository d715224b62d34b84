package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response. Error carries the user-facing message
// so clients can surface it directly.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is returned by operations that carry no payload
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// UserResponse wraps a single user
type UserResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

// JobsResponse wraps a job list
type JobsResponse struct {
	Success bool  `json:"success"`
	Jobs    []Job `json:"jobs"`
}

// JobResponse wraps a single job
type JobResponse struct {
	Success bool `json:"success"`
	Job     *Job `json:"job"`
}

// ApplicationsResponse wraps an application list
type ApplicationsResponse struct {
	Success      bool          `json:"success"`
	Applications []Application `json:"applications"`
}

// ApplicationResponse wraps a single application
type ApplicationResponse struct {
	Success     bool         `json:"success"`
	Application *Application `json:"application"`
}

// NotificationsResponse wraps a user's inbox
type NotificationsResponse struct {
	Success       bool           `json:"success"`
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// UnreadCountResponse carries the number of unread notifications
type UnreadCountResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// MarkAllReadResponse carries how many notifications were marked read
type MarkAllReadResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// PaymentsResponse wraps a payment history
type PaymentsResponse struct {
	Success  bool      `json:"success"`
	Payments []Payment `json:"payments"`
}

// PaymentResponse wraps a single payment
type PaymentResponse struct {
	Success bool     `json:"success"`
	Payment *Payment `json:"payment"`
}

// EarningsResponse wraps an earnings summary
type EarningsResponse struct {
	Success bool            `json:"success"`
	Summary EarningsSummary `json:"summary"`
}

// OverviewResponse wraps the admin overview
type OverviewResponse struct {
	Success  bool             `json:"success"`
	Overview PlatformOverview `json:"overview"`
}
