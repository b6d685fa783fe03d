// Package config loads, normalizes, and validates the TOML configuration.
//
// Load applies repository defaults, decodes the file, resolves ~ paths and
// falls back to environment variables (optionally seeded from a .env file)
// for every credential, then validates pacing, schedule and cron settings.
// Channel-specific behaviour lives in per-channel profile files handled by
// the channels package, not here.
package config
