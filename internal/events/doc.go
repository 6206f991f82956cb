// Package events holds the per-event values that flow through a matching run:
// the temporal event lifted from a tagged sentence, its entity context window,
// the candidate descriptions fetched for its date, the selected match and the
// resolved topics.
//
// Values are never mutated once built. Each stage returns a fresh copy through
// the With* helpers, so events of one video can be processed concurrently
// without locking.
package events
