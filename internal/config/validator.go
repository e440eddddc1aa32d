package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Sternrassler/uk-petitions/pkg/logging"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string // config key, e.g. "monitor.interval"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log.level values.
func ValidLogLevels() []string {
	return []string{
		string(logging.LevelTrace),
		string(logging.LevelDebug),
		string(logging.LevelInfo),
		string(logging.LevelWarn),
		string(logging.LevelError),
	}
}

// Validate returns every invalid setting.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("api.base_url", c.API.BaseURL, "must be an absolute URL")
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		add("api.user_agent", c.API.UserAgent, "must not be empty")
	}
	if c.API.Timeout <= 0 {
		add("api.timeout", c.API.Timeout, "must be positive")
	}
	if c.API.MaxRetries < 1 {
		add("api.max_retries", c.API.MaxRetries, "must be at least 1")
	}

	if c.Pager.LoadInterval < 0 {
		add("pager.load_interval", c.Pager.LoadInterval, "must not be negative")
	}
	if c.Monitor.InitialInterval < 0 {
		add("monitor.initial_interval", c.Monitor.InitialInterval, "must not be negative")
	}
	if c.Monitor.Interval < 0 {
		add("monitor.interval", c.Monitor.Interval, "must not be negative")
	}
	for _, n := range c.Monitor.Milestones {
		if n < 1 {
			add("monitor.milestones", c.Monitor.Milestones, "must be positive signature counts")
			break
		}
	}

	if c.Redis.DB < 0 {
		add("redis.db", c.Redis.DB, "must not be negative")
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		add("log.level", c.Log.Level, fmt.Sprintf("must be one of %s", strings.Join(ValidLogLevels(), ", ")))
	}

	return errs
}
