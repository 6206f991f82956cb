// Package metrics exposes Prometheus collectors for matching runs.
//
// Collectors are registered on a caller-supplied registry so tests and the
// CLI each own their registry. Recorder satisfies the observer hooks of the
// wikipedia client, the topic resolver and the pipeline.
package metrics
