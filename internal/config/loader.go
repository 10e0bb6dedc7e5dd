package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load merges defaults, an optional config file, a local .env, and
// environment variables, then runs everything through the validating
// setters. The first invalid value aborts the load.
func Load(opts LoaderOptions) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "lintbot"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "LINTBOT"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return applyValues(v)
}

// applyValues routes every viper value through its setter. Log level goes
// before debug so debug mode pins the level last.
func applyValues(v *viper.Viper) (*Config, error) {
	cfg := New()

	if value := v.GetString("repository"); value != "" {
		if err := cfg.SetRepository(value); err != nil {
			return nil, err
		}
	}
	if err := cfg.SetLogLevel(v.GetString("log_level")); err != nil {
		return nil, err
	}
	if err := cfg.SetLogFormat(v.GetString("log_format")); err != nil {
		return nil, err
	}
	cfg.SetDebug(v.GetBool("debug"))
	cfg.SetExcludePaths(v.GetString("exclude_paths"))
	if err := cfg.SetLimitUsers(v.GetString("limit_users")); err != nil {
		return nil, err
	}
	if err := cfg.SetExcludeUsers(v.GetString("exclude_users")); err != nil {
		return nil, err
	}
	if err := cfg.SetPullRequests(v.GetString("pull_requests")); err != nil {
		return nil, err
	}
	if err := cfg.SetStartEvent(v.GetInt64("start_event")); err != nil {
		return nil, err
	}
	if err := cfg.SetGroupThreshold(v.GetInt("comment_group_threshold")); err != nil {
		return nil, err
	}
	if err := cfg.SetIssueReportLimit(v.GetInt("pr_issue_report_limit")); err != nil {
		return nil, err
	}
	if err := cfg.SetStore(StoreConfig{
		Enabled: v.GetBool("store.enabled"),
		Path:    v.GetString("store.path"),
	}); err != nil {
		return nil, err
	}
	if err := cfg.SetHTTP(HTTPConfig{
		Timeout:        v.GetDuration("http.timeout"),
		MaxRetries:     v.GetInt("http.max_retries"),
		InitialBackoff: v.GetDuration("http.initial_backoff"),
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", "text")
	v.SetDefault("comment_group_threshold", DefaultGroupThreshold)
	v.SetDefault("pr_issue_report_limit", DefaultIssueReportLimit)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.initial_backoff", "2s")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./lintbot.db"
	}
	return filepath.Join(home, ".config", "lintbot", "lintbot.db")
}
