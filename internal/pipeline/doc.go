// Package pipeline runs the caption event matcher for one or many videos.
//
// A video run is a strict chain: sentence analysis, caption alignment,
// context windows and temporal tagging complete before any event is touched.
// Events are then fetched, matched and resolved concurrently up to the event
// concurrency limit. Each goroutine owns one result slot; events are
// immutable values, so no locking is needed.
//
// Failure policy:
//   - alignment, tagging and analysis failures abort that video only
//   - a failed candidate fetch marks the event fetch_failed, siblings continue
//   - unresolved or unparseable date tags are marked and never fetched
//   - RunBatch never aborts; per-video errors are returned alongside results
package pipeline
