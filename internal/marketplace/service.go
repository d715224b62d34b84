// Package marketplace implements the rules of the job marketplace: who may
// post, apply, decide and pay, and what everyone is told when they do.
package marketplace

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"villagework/internal/background"
	"villagework/internal/events"
	"villagework/internal/logging"
	"villagework/internal/store"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// Options tunes a Service
type Options struct {
	SessionTTL time.Duration
	BcryptCost int
	// Now overrides the clock, for tests
	Now func() time.Time
}

// Service is the marketplace backend. It is safe for concurrent use.
type Service struct {
	store      store.Store
	dispatcher background.Dispatcher
	publisher  events.Publisher
	logger     logging.Logger
	sessionTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewService wires a service. Side effects (notifications, events) are
// submitted to dispatcher after the primary write has succeeded.
func NewService(st store.Store, dispatcher background.Dispatcher, publisher events.Publisher, logger logging.Logger, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		store:      st,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger.WithField("component", "marketplace"),
		sessionTTL: opts.SessionTTL,
		bcryptCost: opts.BcryptCost,
		now:        opts.Now,
	}
}

// Ping checks the backing store
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// dispatch hands a side effect to the dispatcher. Failures are logged only:
// the action that caused the side effect has already been committed.
func (s *Service) dispatch(ctx context.Context, name string, metadata map[string]interface{}, fn background.TaskFunc) {
	if _, err := s.dispatcher.Submit(ctx, name, metadata, fn); err != nil {
		s.logger.Warn("side effect not delivered", map[string]interface{}{
			"task":  name,
			"error": err.Error(),
		})
	}
}

// notify stores a notification for userID in the background
func (s *Service) notify(ctx context.Context, userID string, kind models.NotificationType, title, message, referenceID string) {
	n := &models.Notification{
		ID:          utils.NewID(),
		UserID:      userID,
		Type:        kind,
		Title:       title,
		Message:     message,
		ReferenceID: referenceID,
		CreatedAt:   s.now().UTC(),
	}
	s.dispatch(ctx, "notify", map[string]interface{}{"user_id": userID, "type": kind}, func(ctx context.Context) error {
		return s.store.CreateNotification(ctx, n)
	})
}

// publish announces a change in the background
func (s *Service) publish(ctx context.Context, subject string, payload interface{}) {
	s.dispatch(ctx, "publish", map[string]interface{}{"subject": subject}, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, subject, payload)
	})
}

// storeError converts store sentinels into domain errors
func storeError(what string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFound(what+" not found", err)
	case errors.Is(err, store.ErrDuplicate):
		return Conflict(what+" already exists", err)
	case errors.Is(err, store.ErrStale):
		return Conflict(what+" was updated by another request", err)
	default:
		return Internal("failed to access "+what, err)
	}
}

// canManage reports whether user may act on a record owned by ownerID.
// Admins may moderate any record.
func canManage(user *models.User, ownerID string) bool {
	return user.Role == models.RoleAdmin || user.ID == ownerID
}

func requireRole(user *models.User, roles ...models.Role) error {
	if user == nil {
		return Unauthorized("Authentication required", nil)
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return Forbidden("Your account cannot perform this action", nil)
}
