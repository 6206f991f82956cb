// Package logging builds the slog loggers used by the timelines CLI and
// pipeline.
//
// Two handlers are available: a single-line console format that lifts the
// component, video, stage and event into a prefix, and a JSON format with
// UTC millisecond timestamps for log shipping. WithContext copies the run
// identifiers stored by package services onto a logger, and WarnWithContext
// guarantees every warning carries an event_type, error_hint and impact.
package logging
