// Package matchers implements the compiled predicates fingerprint rules
// are made of. A matcher pairs a closed attribute key with a glob pattern
// compiled once at rule-load time; evaluation is a pure, allocation-light
// predicate over the event or an individual frame.
package matchers
