package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.PostsPerPage)
	assert.Equal(t, 20*time.Second, cfg.CacheTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "local", cfg.MediaBackend)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.NotEmpty(t, cfg.SecretKey)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"PORT":           "9000",
		"POSTS_PER_PAGE": "5",
		"CACHE_TTL":      "1m",
		"DB_DRIVER":      "mysql",
		"MEDIA_BACKEND":  "s3",
		"SECRET_KEY":     "s3cr3t",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5, cfg.PostsPerPage)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "s3", cfg.MediaBackend)
	assert.Equal(t, "s3cr3t", cfg.SecretKey)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad page size", env: map[string]string{"POSTS_PER_PAGE": "zero"}},
		{name: "negative page size", env: map[string]string{"POSTS_PER_PAGE": "-1"}},
		{name: "bad ttl", env: map[string]string{"CACHE_TTL": "soon"}},
		{name: "bad media backend", env: map[string]string{"MEDIA_BACKEND": "ftp"}},
		{name: "production without secret", env: map[string]string{"GOENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}
