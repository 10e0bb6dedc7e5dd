package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bkyoung/lintbot/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{
		FileName:  "nonexistent",
		EnvPrefix: "LINTBOT_TEST_DEFAULTS",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.LogLevel() != "error" {
		t.Errorf("expected default log level error, got %s", cfg.LogLevel())
	}
	if cfg.LogFormat() != "text" {
		t.Errorf("expected default log format text, got %s", cfg.LogFormat())
	}
	if cfg.GroupThreshold() != 2 {
		t.Errorf("expected default group threshold 2, got %d", cfg.GroupThreshold())
	}
	if cfg.IssueReportLimit() != 128 {
		t.Errorf("expected default report limit 128, got %d", cfg.IssueReportLimit())
	}
	if !cfg.Store().Enabled {
		t.Error("expected store enabled by default")
	}
	if cfg.Store().Path == "" {
		t.Error("expected a default store path")
	}
	if cfg.HTTP().Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.HTTP().Timeout)
	}
	if cfg.HTTP().MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.HTTP().MaxRetries)
	}
	if cfg.HTTP().InitialBackoff != 2*time.Second {
		t.Errorf("expected default initial backoff 2s, got %s", cfg.HTTP().InitialBackoff)
	}
}

func TestLoadReadsFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lintbot.yaml")
	content := "repository: bkyoung/dummy\nlog_level: info\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("LINTBOT_LOG_LEVEL", "debug")

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "lintbot",
		EnvPrefix:   "LINTBOT",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Repository() != "bkyoung/dummy" {
		t.Errorf("expected repository from file, got %s", cfg.Repository())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("expected env override to win, got %s", cfg.LogLevel())
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("LINTBOT_REPOSITORY", "bkyoung/dummy")
	t.Setenv("LINTBOT_DEBUG", "true")
	t.Setenv("LINTBOT_EXCLUDE_PATHS", "vendor/*,*.min.js")
	t.Setenv("LINTBOT_LIMIT_USERS", "Alice,BOB")
	t.Setenv("LINTBOT_PULL_REQUESTS", "104,107")
	t.Setenv("LINTBOT_START_EVENT", "1000")

	cfg, err := config.Load(config.LoaderOptions{
		FileName:  "nonexistent",
		EnvPrefix: "LINTBOT",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Repository() != "bkyoung/dummy" {
		t.Errorf("unexpected repository: %s", cfg.Repository())
	}
	if !cfg.Debug() {
		t.Error("expected debug mode on")
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("debug mode must pin the debug level, got %s", cfg.LogLevel())
	}

	paths := cfg.ExcludePaths()
	if len(paths) != 2 || paths[0] != "vendor/*" || paths[1] != "*.min.js" {
		t.Errorf("unexpected exclude paths: %v", paths)
	}

	users := cfg.LimitUsers()
	if len(users) != 2 || users[0] != "alice" || users[1] != "bob" {
		t.Errorf("unexpected limit users: %v", users)
	}

	numbers := cfg.PullRequests()
	if len(numbers) != 2 || numbers[0] != 104 || numbers[1] != 107 {
		t.Errorf("unexpected pull requests: %v", numbers)
	}
	if cfg.StartEvent() != 1000 {
		t.Errorf("unexpected start event: %d", cfg.StartEvent())
	}
}

func TestLoadRejectsInvalidValue(t *testing.T) {
	t.Setenv("LINTBOT_LOG_LEVEL", "verbose")

	_, err := config.Load(config.LoaderOptions{
		FileName:  "nonexistent",
		EnvPrefix: "LINTBOT",
	})
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "log_level" {
		t.Fatalf("expected log_level ConfigError, got %v", err)
	}
}

func TestLoadRejectsConflictingUserLists(t *testing.T) {
	t.Setenv("LINTBOT_LIMIT_USERS", "alice")
	t.Setenv("LINTBOT_EXCLUDE_USERS", "eve")

	_, err := config.Load(config.LoaderOptions{
		FileName:  "nonexistent",
		EnvPrefix: "LINTBOT",
	})
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigError, got %v", err)
	}
}

func TestLoadParsesStoreAndHTTPSections(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lintbot.yaml")
	content := `repository: bkyoung/dummy
store:
  enabled: false
  path: /tmp/lintbot-test.db
http:
  timeout: 10s
  max_retries: 7
  initial_backoff: 500ms
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "lintbot",
		EnvPrefix:   "LINTBOT",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Store().Enabled {
		t.Error("expected store disabled")
	}
	if cfg.Store().Path != "/tmp/lintbot-test.db" {
		t.Errorf("unexpected store path: %s", cfg.Store().Path)
	}
	if cfg.HTTP().Timeout != 10*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.HTTP().Timeout)
	}
	if cfg.HTTP().MaxRetries != 7 {
		t.Errorf("unexpected max retries: %d", cfg.HTTP().MaxRetries)
	}
	if cfg.HTTP().InitialBackoff != 500*time.Millisecond {
		t.Errorf("unexpected initial backoff: %s", cfg.HTTP().InitialBackoff)
	}
}
