// Package variants builds the candidate grouping strategies for an event.
//
// A variant pairs a key (app, system, custom_fingerprint, message,
// fallback) with a tree of contributing components: chained exceptions
// wrap exceptions, exceptions wrap stacktraces, stacktraces wrap frames,
// and frames carry module/function/context-line leaves. Only contributing
// nodes feed the group hash; suppressed nodes remain in the tree with a
// hint explaining why.
//
// Variants are computed fresh per event and never mutated after
// construction, so they are safe to share across goroutines.
package variants
