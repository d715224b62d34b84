package marketplace

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"villagework/internal/store"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// Register creates a worker or owner account and signs it in.
// Admin accounts cannot be self-registered; see EnsureAdmin.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	if req.Role == models.RoleAdmin {
		return nil, "", Forbidden("Admin accounts cannot be registered", nil)
	}
	user, err := s.createUser(ctx, req)
	if err != nil {
		return nil, "", err
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, token, nil
}

// EnsureAdmin creates the bootstrap admin account if no user holds phone yet
func (s *Service) EnsureAdmin(ctx context.Context, name, phone, password string) error {
	phone = models.NormalizePhone(phone)
	if _, err := s.store.GetUserByPhone(ctx, phone); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return storeError("user", err)
	}

	_, err := s.createUser(ctx, models.RegisterRequest{
		Name:     name,
		Phone:    phone,
		Password: password,
		Role:     models.RoleAdmin,
	})
	return err
}

func (s *Service) createUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if !req.Role.Valid() {
		return nil, InvalidInput("Unknown role", nil)
	}

	skill := ""
	if req.SkillLevel != "" {
		level, ok := models.NormalizeExperienceLevel(req.SkillLevel)
		if !ok {
			return nil, InvalidInput("Unknown skill level", nil)
		}
		skill = string(level)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, InvalidInput("Password must be at most 72 bytes", err)
	}
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}

	user := &models.User{
		ID:           utils.NewID(),
		Name:         strings.TrimSpace(req.Name),
		Phone:        models.NormalizePhone(req.Phone),
		Role:         req.Role,
		SkillLevel:   skill,
		Language:     req.Language,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("An account with this phone number already exists", err)
		}
		return nil, storeError("user", err)
	}
	return user, nil
}

// Login exchanges phone and password for a bearer token
func (s *Service) Login(ctx context.Context, phone, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByPhone(ctx, models.NormalizePhone(phone))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", Unauthorized("Invalid phone number or password", nil)
	}
	if err != nil {
		return nil, "", storeError("user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", Unauthorized("Invalid phone number or password", nil)
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (string, error) {
	session := &models.Session{
		Token:     utils.NewID(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.sessionTTL).UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", storeError("session", err)
	}
	return session.Token, nil
}

// Authenticate resolves a bearer token to its user. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, Unauthorized("Authentication required", nil)
	}

	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthorized("Session is invalid or has expired", nil)
	}
	if err != nil {
		return nil, storeError("session", err)
	}

	if session.Expired(s.now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("expired session not removed", map[string]interface{}{
				"user_id": session.UserID,
				"error":   err.Error(),
			})
		}
		return nil, Unauthorized("Session is invalid or has expired", nil)
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthorized("Session is invalid or has expired", nil)
	}
	if err != nil {
		return nil, storeError("user", err)
	}
	return user, nil
}

// Logout ends the session behind token
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return storeError("session", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, storeError("session", err)
	}
	return n, nil
}
