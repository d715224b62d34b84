// Package settings keeps the client's local preferences and credentials.
package settings

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Known keys
const (
	KeyUserRole           = "userRole"
	KeyLanguage           = "language"
	KeySkillLevel         = "skillLevel"
	KeyOnboardingComplete = "onboardingComplete"
	KeyLanguageSelected   = "languageSelected"
	KeyAuthToken          = "authToken"
	KeyUserID             = "userId"
)

var (
	ErrNotLoaded = errors.New("settings not loaded")
	ErrNotFound  = errors.New("setting not found")
)

// Repository is a string key/value store with an explicit load step.
// Get, Set, Delete and All fail with ErrNotLoaded until Load succeeds.
type Repository interface {
	Load(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
	Close() error
}

// Keys returns every known key in a stable order
func Keys() []string {
	keys := []string{
		KeyUserRole, KeyLanguage, KeySkillLevel, KeyOnboardingComplete,
		KeyLanguageSelected, KeyAuthToken, KeyUserID,
	}
	sort.Strings(keys)
	return keys
}

// values is the in-memory view shared by the backends
type values struct {
	mu     sync.RWMutex
	loaded bool
	data   map[string]string
}

func (v *values) replace(data map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if data == nil {
		data = make(map[string]string)
	}
	v.data = data
	v.loaded = true
}

func (v *values) get(key string) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.loaded {
		return "", ErrNotLoaded
	}
	value, ok := v.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (v *values) snapshot() (map[string]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.loaded {
		return nil, ErrNotLoaded
	}
	out := make(map[string]string, len(v.data))
	for k, val := range v.data {
		out[k] = val
	}
	return out, nil
}

// TokenSource exposes the stored bearer token to the API client
type TokenSource struct {
	Repo Repository
}

// Token returns the stored auth token, or "" when none is stored
func (s TokenSource) Token(ctx context.Context) (string, error) {
	token, err := s.Repo.Get(ctx, KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}
