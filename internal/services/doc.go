// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, stage names, event positions, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     video-fatal failure (caption alignment) from a failure that only
//     degrades one event (fetch, date parse, title resolution).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
