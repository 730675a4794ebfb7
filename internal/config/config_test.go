// Package config tests.
package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithPrefix("TBTEST")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "file", cfg.TokenBackend)
	assert.Equal(t, UpdateRefetch, cfg.ProjectUpdateMode)
	assert.Equal(t, UpdateInPlace, cfg.TaskUpdateMode)
	assert.Equal(t, 1, cfg.RetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TASKBOARD_API_BASE_URL", "https://pm.example.com")
	t.Setenv("TASKBOARD_REQUEST_TIMEOUT", "3s")
	t.Setenv("TASKBOARD_TOKEN_BACKEND", "sqlite")
	t.Setenv("TASKBOARD_TASK_UPDATE_MODE", "refetch")
	t.Setenv("TASKBOARD_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://pm.example.com", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.TokenBackend)
	assert.Equal(t, UpdateRefetch, cfg.TaskUpdateMode)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("TASKBOARD_TOKEN_BACKEND", "redis")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_BACKEND")
}

func TestLoad_InvalidUpdateMode(t *testing.T) {
	t.Setenv("TASKBOARD_PROJECT_UPDATE_MODE", "merge")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROJECT_UPDATE_MODE")
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	t.Setenv("TASKBOARD_API_BASE_URL", "not a url")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeRetryAttempts(t *testing.T) {
	t.Setenv("TASKBOARD_RETRY_ATTEMPTS", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRY_ATTEMPTS")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TASKBOARD_REQUEST_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestResolvedTokenPath(t *testing.T) {
	cfg := &Config{TokenPath: "/tmp/explicit.yaml"}
	p, err := cfg.ResolvedTokenPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit.yaml", p)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg = &Config{TokenBackend: "sqlite"}
	p, err = cfg.ResolvedTokenPath()
	require.NoError(t, err)
	assert.Equal(t, "token.db", filepath.Base(p))
	assert.Equal(t, "taskboard", filepath.Base(filepath.Dir(p)))
}
