// Package event defines the normalized event model the grouping engine
// consumes: an exception chain with stacktraces and frames, plus the
// event-level attributes matchers and fingerprint templates can reference.
//
// Events are owned by the caller and read-only to the engine. The JSON and
// YAML tags exist for fixtures and the debugging CLI only; ingesting raw
// payloads from the wire is out of scope.
package event
