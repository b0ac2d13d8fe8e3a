package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// CMS contains the remote content repository endpoint and credentials.
type CMS struct {
	BaseURL        string  `toml:"base_url"`
	Username       string  `toml:"username"`
	Password       string  `toml:"password"`
	RequestTimeout int     `toml:"request_timeout"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
}

// Import contains reconciliation tuning knobs.
type Import struct {
	GroupSize               int    `toml:"group_size"`
	MaxParallelGroups       int    `toml:"max_parallel_groups"`
	MaxSearchTerms          int    `toml:"max_search_terms"`
	MaxTimeoutAttempts      int    `toml:"max_timeout_attempts"`
	TimeoutRetryDelayMS     int    `toml:"timeout_retry_delay_ms"`
	CommunicationRetryDelay int    `toml:"communication_retry_delay"`
	TaxonomyDelimiter       string `toml:"taxonomy_delimiter"`
}

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains Prometheus push gateway settings. An empty URL disables pushing.
type Metrics struct {
	PushgatewayURL string `toml:"pushgateway_url"`
	Job            string `toml:"job"`
}

// Config encapsulates all configuration values for cmsimport.
//
// Configuration sections by subsystem:
//   - CMS: endpoint, credentials, and request pacing
//   - Import: grouping, batching, and retry budgets
//   - Paths: journal/lock state and log directories
//   - Logging: log format and level
//   - Metrics: optional push gateway
type Config struct {
	CMS     CMS     `toml:"cms"`
	Import  Import  `toml:"import"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cmsimport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the location of the run journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the location of the run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "cmsimport.lock")
}

// LogPath returns the location of the log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "cmsimport.log")
}

// RequestTimeoutDuration returns the per-request HTTP timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.CMS.RequestTimeout) * time.Second
}

// TimeoutRetryDelay returns the pause between timeout retries.
func (c *Config) TimeoutRetryDelay() time.Duration {
	return time.Duration(c.Import.TimeoutRetryDelayMS) * time.Millisecond
}

// CommunicationRetryDelayDuration returns the pause before the single communication retry.
func (c *Config) CommunicationRetryDelayDuration() time.Duration {
	return time.Duration(c.Import.CommunicationRetryDelay) * time.Second
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c *Config) Redacted() Config {
	clone := *c
	if clone.CMS.Password != "" {
		clone.CMS.Password = "********"
	}
	return clone
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
