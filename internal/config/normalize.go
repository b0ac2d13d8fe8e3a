package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCMS()
	c.normalizeImport()
	c.normalizeLogging()
	c.normalizeMetrics()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCMS() {
	if c.CMS.BaseURL == "" {
		if value, ok := os.LookupEnv("CMS_BASE_URL"); ok {
			c.CMS.BaseURL = value
		}
	}
	if c.CMS.Username == "" {
		if value, ok := os.LookupEnv("CMS_USERNAME"); ok {
			c.CMS.Username = value
		}
	}
	if c.CMS.Password == "" {
		if value, ok := os.LookupEnv("CMS_PASSWORD"); ok {
			c.CMS.Password = value
		}
	}
	c.CMS.BaseURL = strings.TrimRight(strings.TrimSpace(c.CMS.BaseURL), "/")
	c.CMS.Username = strings.TrimSpace(c.CMS.Username)
	if c.CMS.RequestTimeout == 0 {
		c.CMS.RequestTimeout = defaultRequestTimeout
	}
	if c.CMS.RateLimit > 0 && c.CMS.RateBurst <= 0 {
		c.CMS.RateBurst = defaultRateBurst
	}
}

func (c *Config) normalizeImport() {
	if c.Import.GroupSize == 0 {
		c.Import.GroupSize = defaultGroupSize
	}
	if c.Import.MaxSearchTerms == 0 {
		c.Import.MaxSearchTerms = defaultMaxSearchTerms
	}
	if c.Import.MaxTimeoutAttempts == 0 {
		c.Import.MaxTimeoutAttempts = defaultMaxTimeoutAttempts
	}
	if c.Import.TaxonomyDelimiter == "" {
		c.Import.TaxonomyDelimiter = defaultTaxonomyDelimiter
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func (c *Config) normalizeMetrics() {
	c.Metrics.PushgatewayURL = strings.TrimSpace(c.Metrics.PushgatewayURL)
	c.Metrics.Job = strings.TrimSpace(c.Metrics.Job)
	if c.Metrics.Job == "" {
		c.Metrics.Job = defaultMetricsJob
	}
}
