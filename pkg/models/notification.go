package models

import "time"

// NotificationType groups notifications by what triggered them
type NotificationType string

const (
	NotificationApplication NotificationType = "application"
	NotificationStatus      NotificationType = "status"
	NotificationPayment     NotificationType = "payment"
	NotificationJob         NotificationType = "job"
)

// Notification is a message shown in a user's inbox
type Notification struct {
	ID          string           `json:"_id"`
	UserID      string           `json:"userId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	ReferenceID string           `json:"referenceId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}
