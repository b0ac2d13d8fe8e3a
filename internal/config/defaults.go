package config

const (
	defaultConfigPath = "~/.config/cmsimport/config.toml"
	defaultStateDir   = "~/.local/state/cmsimport"
	defaultLogDir     = "~/.local/state/cmsimport/logs"

	defaultRequestTimeout = 60
	defaultRateBurst      = 10

	defaultGroupSize               = 10
	defaultMaxSearchTerms          = 50
	defaultMaxTimeoutAttempts      = 10
	defaultTimeoutRetryDelayMS     = 2000
	defaultCommunicationRetryDelay = 15
	defaultTaxonomyDelimiter       = ","

	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
	defaultMetricsJob = "cmsimport"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		CMS: CMS{
			RequestTimeout: defaultRequestTimeout,
			RateBurst:      defaultRateBurst,
		},
		Import: Import{
			GroupSize:               defaultGroupSize,
			MaxSearchTerms:          defaultMaxSearchTerms,
			MaxTimeoutAttempts:      defaultMaxTimeoutAttempts,
			TimeoutRetryDelayMS:     defaultTimeoutRetryDelayMS,
			CommunicationRetryDelay: defaultCommunicationRetryDelay,
			TaxonomyDelimiter:       defaultTaxonomyDelimiter,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			Job: defaultMetricsJob,
		},
	}
}
