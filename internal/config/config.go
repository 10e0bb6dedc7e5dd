// Package config holds the validated runtime configuration. Every mutation
// goes through a setter so cross-field invariants hold at all times and a
// bad value fails fast instead of surfacing mid-run.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogLevel keeps a long-running bot quiet unless asked otherwise.
	DefaultLogLevel = "error"

	// DefaultGroupThreshold is the largest line gap two repeats of a message
	// may have and still join one group.
	DefaultGroupThreshold = 2

	// DefaultIssueReportLimit caps comments per pull request.
	DefaultIssueReportLimit = 128
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool
	Path    string
}

// HTTPConfig tunes the platform client.
type HTTPConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// Config is the full application configuration.
type Config struct {
	repository       string
	debug            bool
	excludePaths     []string
	limitUsers       []string
	excludeUsers     []string
	logLevel         string
	logFormat        string
	pullRequests     []int
	startEvent       int64
	groupThreshold   int
	issueReportLimit int
	store            StoreConfig
	http             HTTPConfig
}

// New returns a Config carrying the default values.
func New() *Config {
	return &Config{
		logLevel:         DefaultLogLevel,
		logFormat:        "text",
		groupThreshold:   DefaultGroupThreshold,
		issueReportLimit: DefaultIssueReportLimit,
	}
}

// SetRepository validates and stores the owner/name pair.
func (c *Config) SetRepository(value string) error {
	parts := strings.Split(value, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return &ConfigError{Field: "repository", Value: value, Reason: "must be owner/name"}
	}
	c.repository = value
	return nil
}

// Repository returns the owner/name pair, empty when unset.
func (c *Config) Repository() string { return c.repository }

// Owner returns the repository owner.
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.repository, "/")
	return owner
}

// Name returns the repository name.
func (c *Config) Name() string {
	_, name, _ := strings.Cut(c.repository, "/")
	return name
}

// SetDebug toggles debug mode. Enabling it forces and pins the debug log
// level; disabling it leaves the level where it is.
func (c *Config) SetDebug(value bool) {
	c.debug = value
	if value {
		c.logLevel = "debug"
	}
}

// Debug reports whether debug mode is on.
func (c *Config) Debug() bool { return c.debug }

// SetLogLevel validates and stores the log level. While debug mode is on
// the level is pinned and the call is a no-op.
func (c *Config) SetLogLevel(value string) error {
	if c.debug {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(value))
	if _, err := logrus.ParseLevel(level); err != nil {
		return &ConfigError{Field: "log_level", Value: value, Reason: "unknown level"}
	}
	c.logLevel = level
	return nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string { return c.logLevel }

// SetLogFormat selects the log formatter.
func (c *Config) SetLogFormat(value string) error {
	format := strings.ToLower(strings.TrimSpace(value))
	switch format {
	case "text", "json":
		c.logFormat = format
		return nil
	default:
		return &ConfigError{Field: "log_format", Value: value, Reason: "must be text or json"}
	}
}

// LogFormat returns the configured log format.
func (c *Config) LogFormat() string { return c.logFormat }

// SetExcludePaths parses a comma-separated list of glob patterns for files
// that are never linted.
func (c *Config) SetExcludePaths(value string) {
	c.excludePaths = parseList(value, false)
}

// ExcludePaths returns the exclusion patterns.
func (c *Config) ExcludePaths() []string { return c.excludePaths }

// SetLimitUsers restricts handling to the given comma-separated logins.
// Mutually exclusive with the exclude list.
func (c *Config) SetLimitUsers(value string) error {
	users := parseList(value, true)
	if len(users) > 0 && len(c.excludeUsers) > 0 {
		return &ConfigError{Field: "limit_users", Value: value, Reason: "conflicts with exclude_users"}
	}
	c.limitUsers = users
	return nil
}

// LimitUsers returns the allow list, nil when unrestricted.
func (c *Config) LimitUsers() []string { return c.limitUsers }

// SetExcludeUsers skips pull requests by the given comma-separated logins.
// Mutually exclusive with the limit list.
func (c *Config) SetExcludeUsers(value string) error {
	users := parseList(value, true)
	if len(users) > 0 && len(c.limitUsers) > 0 {
		return &ConfigError{Field: "exclude_users", Value: value, Reason: "conflicts with limit_users"}
	}
	c.excludeUsers = users
	return nil
}

// ExcludeUsers returns the deny list.
func (c *Config) ExcludeUsers() []string { return c.excludeUsers }

// UserAllowed decides whether a pull request author is handled. An allow
// list restricts to its members; otherwise a deny list skips its members;
// with neither, everyone is handled.
func (c *Config) UserAllowed(login string) bool {
	login = strings.ToLower(strings.TrimSpace(login))
	if len(c.limitUsers) > 0 {
		return contains(c.limitUsers, login)
	}
	if len(c.excludeUsers) > 0 {
		return !contains(c.excludeUsers, login)
	}
	return true
}

// SetPullRequests parses the comma-separated pull request numbers that
// switch the run into one-shot mode.
func (c *Config) SetPullRequests(value string) error {
	var numbers []int
	for _, item := range parseList(value, false) {
		number, err := strconv.Atoi(item)
		if err != nil || number <= 0 {
			return &ConfigError{Field: "pull_requests", Value: item, Reason: "must be a positive number"}
		}
		numbers = append(numbers, number)
	}
	c.pullRequests = numbers
	return nil
}

// PullRequests returns the one-shot pull request numbers, nil in watch mode.
func (c *Config) PullRequests() []int { return c.pullRequests }

// SetStartEvent seeds the watch cursor so the named event is the first one
// processed.
func (c *Config) SetStartEvent(value int64) error {
	if value < 0 {
		return &ConfigError{Field: "start_event", Value: strconv.FormatInt(value, 10), Reason: "must not be negative"}
	}
	c.startEvent = value
	return nil
}

// StartEvent returns the seed event ID, zero when unset.
func (c *Config) StartEvent() int64 { return c.startEvent }

// SetGroupThreshold bounds the line gap for grouping repeated messages.
func (c *Config) SetGroupThreshold(value int) error {
	if value <= 0 {
		return &ConfigError{Field: "comment_group_threshold", Value: strconv.Itoa(value), Reason: "must be positive"}
	}
	c.groupThreshold = value
	return nil
}

// GroupThreshold returns the grouping gap.
func (c *Config) GroupThreshold() int { return c.groupThreshold }

// SetIssueReportLimit caps how many comments one pull request may carry.
func (c *Config) SetIssueReportLimit(value int) error {
	if value <= 0 {
		return &ConfigError{Field: "pr_issue_report_limit", Value: strconv.Itoa(value), Reason: "must be positive"}
	}
	c.issueReportLimit = value
	return nil
}

// IssueReportLimit returns the per-pull comment cap.
func (c *Config) IssueReportLimit() int { return c.issueReportLimit }

// SetStore configures persistence. An enabled store needs a path.
func (c *Config) SetStore(value StoreConfig) error {
	if value.Enabled && value.Path == "" {
		return &ConfigError{Field: "store.path", Value: "", Reason: "required when the store is enabled"}
	}
	c.store = value
	return nil
}

// Store returns the persistence settings.
func (c *Config) Store() StoreConfig { return c.store }

// SetHTTP tunes the platform client.
func (c *Config) SetHTTP(value HTTPConfig) error {
	if value.Timeout < 0 {
		return &ConfigError{Field: "http.timeout", Value: value.Timeout.String(), Reason: "must not be negative"}
	}
	if value.MaxRetries < 0 {
		return &ConfigError{Field: "http.max_retries", Value: strconv.Itoa(value.MaxRetries), Reason: "must not be negative"}
	}
	if value.InitialBackoff < 0 {
		return &ConfigError{Field: "http.initial_backoff", Value: value.InitialBackoff.String(), Reason: "must not be negative"}
	}
	c.http = value
	return nil
}

// HTTP returns the platform client settings.
func (c *Config) HTTP() HTTPConfig { return c.http }

// parseList splits a comma-separated value, trims the items, drops empties,
// and deduplicates while keeping order. Users are compared lowercased.
func parseList(value string, normalize bool) []string {
	var result []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if normalize {
			item = strings.ToLower(item)
		}
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
