package config

import (
	"errors"
	"fmt"
	"net/url"

	"cmsimport/internal/services"
)

// Validate ensures the configuration is usable. CMS credentials are checked
// separately by RequireCMS because offline commands do not need them. Errors
// carry services.ErrConfiguration.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateCMS,
		c.validateImport,
		c.validateLogging,
		c.validateMetrics,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validateCMS() error {
	if c.CMS.BaseURL != "" {
		parsed, err := url.Parse(c.CMS.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("cms.base_url must be an absolute URL, got %q", c.CMS.BaseURL)
		}
	}
	if c.CMS.RequestTimeout < 0 {
		return errors.New("cms.request_timeout must be positive")
	}
	if c.CMS.RateLimit < 0 {
		return errors.New("cms.rate_limit must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.GroupSize < 1 {
		return errors.New("import.group_size must be at least 1")
	}
	if c.Import.MaxParallelGroups < 0 {
		return errors.New("import.max_parallel_groups must be zero (unbounded) or positive")
	}
	if c.Import.MaxSearchTerms < 2 {
		return errors.New("import.max_search_terms must be at least 2")
	}
	if c.Import.MaxTimeoutAttempts < 1 {
		return errors.New("import.max_timeout_attempts must be at least 1")
	}
	if c.Import.TimeoutRetryDelayMS < 0 {
		return errors.New("import.timeout_retry_delay_ms must be zero or positive")
	}
	if c.Import.CommunicationRetryDelay < 0 {
		return errors.New("import.communication_retry_delay must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.PushgatewayURL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Metrics.PushgatewayURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("metrics.pushgateway_url must be an absolute URL, got %q", c.Metrics.PushgatewayURL)
	}
	return nil
}

// RequireCMS reports whether the endpoint and credentials needed for remote
// calls are present.
func (c *Config) RequireCMS() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	switch {
	case c.CMS.BaseURL == "":
		return fmt.Errorf("%w: cms.base_url is required. Set CMS_BASE_URL env var or edit %s (create with 'cmsimport config init')", services.ErrConfiguration, defaultPath)
	case c.CMS.Username == "":
		return fmt.Errorf("%w: cms.username is required. Set CMS_USERNAME env var or edit %s", services.ErrConfiguration, defaultPath)
	case c.CMS.Password == "":
		return fmt.Errorf("%w: cms.password is required. Set CMS_PASSWORD env var or edit %s", services.ErrConfiguration, defaultPath)
	}
	return nil
}
