package testsupport

import (
	"path/filepath"
	"testing"

	"cmsimport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.CMS.BaseURL = "http://127.0.0.1:0"
	cfgVal.CMS.Username = "importer"
	cfgVal.CMS.Password = "secret"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Import.TimeoutRetryDelayMS = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBaseURL points the test config at a CMS endpoint, usually an httptest server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CMS.BaseURL = url
	}
}

// WithCredentials overrides the CMS credentials.
func WithCredentials(username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CMS.Username = username
		b.cfg.CMS.Password = password
	}
}

// WithPushgateway enables metrics pushing to url.
func WithPushgateway(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.PushgatewayURL = url
	}
}

// WithImport applies fn to the import tuning section.
func WithImport(fn func(*config.Import)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Import)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
