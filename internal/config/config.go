package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
		MaxBodyBytes int64         `yaml:"max_body_bytes" default:"1048576"`
		// CORS origins; "*" allows any
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	RateLimit struct {
		Enabled           bool          `yaml:"enabled" default:"true"`
		RequestsPerMinute int           `yaml:"requests_per_minute" default:"120"`
		Burst             int           `yaml:"burst" default:"20"`
		IdleTTL           time.Duration `yaml:"idle_ttl" default:"10m"`
	} `yaml:"rate_limit"`

	Auth struct {
		SessionTTL    time.Duration `yaml:"session_ttl" default:"720h"`
		BcryptCost    int           `yaml:"bcrypt_cost" default:"10"`
		AdminName     string        `yaml:"admin_name" default:"Platform Admin"`
		AdminPhone    string        `yaml:"admin_phone"`
		AdminPassword string        `yaml:"admin_password"`
	} `yaml:"auth"`

	Storage struct {
		Driver          string        `yaml:"driver" default:"memory"` // memory or postgres
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"25"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"10"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"5m"`
	} `yaml:"storage"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	NATS struct {
		Enabled     bool          `yaml:"enabled" default:"false"`
		URL         string        `yaml:"url" default:"nats://localhost:4222"`
		ConnTimeout time.Duration `yaml:"conn_timeout" default:"5s"`
	} `yaml:"nats"`

	Workers struct {
		PoolSize  int `yaml:"pool_size" default:"4"`
		QueueSize int `yaml:"queue_size" default:"256"`
	} `yaml:"workers"`

	BackgroundTasks struct {
		TaskTimeout     time.Duration `yaml:"task_timeout" default:"30s"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge      time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Client struct {
		BaseURL string        `yaml:"base_url" default:"http://localhost:8080"`
		Timeout time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"client"`

	Settings struct {
		Backend string `yaml:"backend" default:"file"` // file or redis
		Path    string `yaml:"path" default:"~/.villagework/settings.yaml"`
		Profile string `yaml:"profile" default:"default"`
	} `yaml:"settings"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// Default returns a configuration populated with built-in defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.MaxBodyBytes = 1024 * 1024
	config.Server.AllowedOrigins = []string{"*"}

	config.RateLimit.Enabled = true
	config.RateLimit.RequestsPerMinute = 120
	config.RateLimit.Burst = 20
	config.RateLimit.IdleTTL = 10 * time.Minute

	config.Auth.SessionTTL = 30 * 24 * time.Hour
	config.Auth.BcryptCost = 10
	config.Auth.AdminName = "Platform Admin"

	config.Storage.Driver = "memory"
	config.Storage.MaxOpenConns = 25
	config.Storage.MaxIdleConns = 10
	config.Storage.ConnMaxLifetime = 5 * time.Minute

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	config.NATS.URL = "nats://localhost:4222"
	config.NATS.ConnTimeout = 5 * time.Second

	config.Workers.PoolSize = 4
	config.Workers.QueueSize = 256

	config.BackgroundTasks.TaskTimeout = 30 * time.Second
	config.BackgroundTasks.CleanupInterval = time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Client.BaseURL = "http://localhost:8080"
	config.Client.Timeout = 15 * time.Second

	config.Settings.Backend = "file"
	config.Settings.Path = "~/.villagework/settings.yaml"
	config.Settings.Profile = "default"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()

	return config, nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if rpm := os.Getenv("RATE_LIMIT_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		c.RateLimit.Enabled = enabled == "true" || enabled == "1"
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Auth.SessionTTL = d
		}
	}

	if phone := os.Getenv("ADMIN_PHONE"); phone != "" {
		c.Auth.AdminPhone = phone
	}

	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		c.Auth.AdminPassword = password
	}

	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Storage.DSN = dsn
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
		c.NATS.Enabled = true
	}

	if poolSize := os.Getenv("WORKER_POOL_SIZE"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil {
			c.Workers.PoolSize = n
		}
	}

	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		c.Client.BaseURL = baseURL
	}

	if timeout := os.Getenv("API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Client.Timeout = d
		}
	}

	if backend := os.Getenv("SETTINGS_BACKEND"); backend != "" {
		c.Settings.Backend = backend
	}

	if path := os.Getenv("SETTINGS_PATH"); path != "" {
		c.Settings.Path = path
	}

	if profile := os.Getenv("SETTINGS_PROFILE"); profile != "" {
		c.Settings.Profile = profile
	}
}
