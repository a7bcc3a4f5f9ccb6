package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

const maxPort = 65535

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}

	if c.Harvest.Workers < 1 {
		return &ValidationError{Field: "harvest.workers", Message: "must be at least 1"}
	}

	for id, sc := range c.Sources {
		if sc.MaxResults < 0 {
			return &ValidationError{Field: "sources." + id + ".max_results", Message: "must not be negative"}
		}
		if sc.BaseURL == "" {
			continue
		}
		if u, err := url.Parse(sc.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return &ValidationError{Field: "sources." + id + ".base_url", Message: "must be an absolute URL"}
		}
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return &ValidationError{Field: "database.host", Message: "is required"}
		}
		if c.Database.Name == "" {
			return &ValidationError{Field: "database.name", Message: "is required"}
		}
		if c.Database.Port < 1 || c.Database.Port > maxPort {
			return &ValidationError{Field: "database.port", Message: "must be between 1 and 65535"}
		}
	}

	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return &ValidationError{Field: "elasticsearch.addresses", Message: "is required"}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return &ValidationError{Field: "redis.addr", Message: "is required"}
	}

	if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
		return &ValidationError{Field: "scheduler.spec", Message: err.Error()}
	}

	return nil
}
