// Package config loads, normalizes, and validates cmsimport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CMS_PASSWORD. The Config type centralizes every knob the CLI and the
// reconciliation engine need, so the CMS endpoint, retry budgets, and state
// directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
