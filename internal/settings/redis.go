package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures RedisRepository
type RedisOptions struct {
	URL      string
	Password string
	DB       int
	Timeout  time.Duration
	Profile  string
}

// RedisRepository keeps one hash per profile so several devices can share settings
type RedisRepository struct {
	client *redis.Client
	key    string
	values
}

// NewRedisRepository creates a repository for opts.Profile. A malformed
// URL is an error.
func NewRedisRepository(opts RedisOptions) (*RedisRepository, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.Password != "" {
		redisOpts.Password = opts.Password
	}
	if opts.DB != 0 {
		redisOpts.DB = opts.DB
	}
	if opts.Timeout > 0 {
		redisOpts.DialTimeout = opts.Timeout
		redisOpts.ReadTimeout = opts.Timeout
		redisOpts.WriteTimeout = opts.Timeout
	}

	profile := opts.Profile
	if profile == "" {
		profile = "default"
	}

	return &RedisRepository{
		client: redis.NewClient(redisOpts),
		key:    "villagework:settings:" + profile,
	}, nil
}

func (r *RedisRepository) Load(ctx context.Context) error {
	data, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("failed to load settings from redis: %w", err)
	}
	r.replace(data)
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	return r.get(key)
}

func (r *RedisRepository) All(ctx context.Context) (map[string]string, error) {
	return r.snapshot()
}

func (r *RedisRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrNotLoaded
	}
	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	r.data[key] = value
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrNotLoaded
	}
	if err := r.client.HDel(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	delete(r.data, key)
	return nil
}

// Ping tests the Redis connection
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
