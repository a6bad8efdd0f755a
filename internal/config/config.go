package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - настройки приложения из окружения.
type Config struct {
	Port    string
	Env     string
	LogFile string

	DBDriver    string
	DatabaseURL string

	SecretKey  string
	SessionTTL time.Duration

	PostsPerPage int
	CacheTTL     time.Duration
	CacheSize    int

	MediaBackend string
	MediaRoot    string
	MediaURL     string

	AWSBucket          string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию через переданную функцию поиска.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:         withDefault(getenv("PORT"), "8080"),
		Env:          withDefault(getenv("GOENV"), "development"),
		LogFile:      getenv("LOG_FILE"),
		DBDriver:     withDefault(getenv("DB_DRIVER"), "postgres"),
		DatabaseURL:  getenv("DATABASE_URL"),
		SecretKey:    getenv("SECRET_KEY"),
		MediaBackend: withDefault(getenv("MEDIA_BACKEND"), "local"),
		MediaRoot:    withDefault(getenv("MEDIA_ROOT"), "./media"),
		MediaURL:     withDefault(getenv("MEDIA_URL"), "/media/"),

		AWSBucket:          getenv("AWS_BUCKET_NAME"),
		AWSRegion:          getenv("AWS_REGION"),
		AWSAccessKeyID:     getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY"),
	}

	var err error
	if cfg.SessionTTL, err = parseDuration(getenv, "SESSION_TTL", 14*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration(getenv, "CACHE_TTL", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.PostsPerPage, err = parseInt(getenv, "POSTS_PER_PAGE", 10); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = parseInt(getenv, "CACHE_SIZE", 256); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		cfg.SecretKey = "dev-secret-key"
	}
	switch cfg.MediaBackend {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}
	return cfg, nil
}

// IsProduction сообщает, запущено ли приложение в боевом окружении.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func parseDuration(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	raw := getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func parseInt(getenv func(string) string, name string, def int) (int, error) {
	raw := getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}
