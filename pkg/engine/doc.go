// Package engine wires rule application, variant building and hashing
// into the single entry point callers use: Evaluate an event, get back
// the variant map plus group-hash metadata.
//
// The engine holds the rule set behind an atomic pointer. Reloading
// configuration constructs a fresh immutable rule set and swaps the
// reference; evaluations already in flight keep the snapshot they were
// handed. Beyond that one pointer there is no shared mutable state, no
// I/O and no blocking, so evaluations run safely in parallel without
// locks.
package engine
