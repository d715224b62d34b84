package marketplace

import (
	"context"

	"villagework/pkg/models"
)

// Notifications returns the caller's inbox, newest first, and how much of it is unread
func (s *Service) Notifications(ctx context.Context, user *models.User) ([]models.Notification, int, error) {
	list, err := s.store.ListNotifications(ctx, user.ID)
	if err != nil {
		return nil, 0, storeError("notifications", err)
	}
	return list, countUnread(list), nil
}

func (s *Service) UnreadCount(ctx context.Context, user *models.User) (int, error) {
	_, unread, err := s.Notifications(ctx, user)
	return unread, err
}

// MarkNotificationRead marks one of the caller's notifications read. Marking
// an already read notification succeeds.
func (s *Service) MarkNotificationRead(ctx context.Context, user *models.User, id string) error {
	if err := s.store.MarkNotificationRead(ctx, user.ID, id); err != nil {
		return storeError("notification", err)
	}
	return nil
}

// MarkAllNotificationsRead returns how many notifications changed
func (s *Service) MarkAllNotificationsRead(ctx context.Context, user *models.User) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, user.ID)
	if err != nil {
		return 0, storeError("notifications", err)
	}
	return n, nil
}

func countUnread(list []models.Notification) int {
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	return unread
}
