// Package config loads, normalizes, and validates timelines configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TIMELINES_USER_AGENT and HEIDELTIME_JAR. The Config type centralizes every
// knob the CLI and pipeline need: Wikipedia endpoints and politeness limits,
// the HeidelTime installation, the NER model, matching thresholds, and the
// on-disk store.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
