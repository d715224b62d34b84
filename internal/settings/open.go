package settings

import (
	"fmt"

	"villagework/internal/config"
)

// Open builds the repository selected by cfg.Settings.Backend. The caller must Load it.
func Open(cfg *config.Config) (Repository, error) {
	switch cfg.Settings.Backend {
	case "", "file":
		return NewFileRepository(cfg.Settings.Path)
	case "redis":
		repo, err := NewRedisRepository(RedisOptions{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
			Profile:  cfg.Settings.Profile,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown settings backend: %s", cfg.Settings.Backend)
	}
}
