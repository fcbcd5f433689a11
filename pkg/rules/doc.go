// Package rules implements fingerprint rules and ordered rule sets.
//
// A rule pairs an ordered set of matchers (AND semantics, short-circuit
// on first failure) with a fingerprint template and optional attributes.
// A rule set applies rules in declared order and the first full match
// wins; later rules are unreachable once an earlier one matches.
//
// # Rule DSL
//
// Rules have a canonical one-line textual form:
//
//	type:"DatabaseUnavailable" -> "{{ package }}"
//	family:native !package:"*/libc*" -> native-crash title="Native Crash"
//
// Matcher patterns are globs compiled once at load time. Fingerprint
// tokens are literals or {{ variable }} placeholders; placeholders that
// the event cannot resolve render as the empty string. A fingerprint
// containing {{ default }} keeps the default grouping components and only
// salts their hash.
//
// Parsed rules round-trip: Rule.Text renders a form that parses back to
// an equivalent rule.
package rules
